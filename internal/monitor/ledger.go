package monitor

import (
	"context"
	"sync"

	"github.com/preppal/backend/internal/contracts"
)

// Ledger is the append-only accuracy record store. Records are never
// mutated or deleted; queries run over recency or an (item, business)
// filter.
type Ledger interface {
	Append(ctx context.Context, rec contracts.AccuracyRecord) (contracts.AccuracyRecord, error)
	Recent(ctx context.Context, n int) ([]contracts.AccuracyRecord, error)
	Filter(ctx context.Context, itemName string, businessType contracts.BusinessType, n int) ([]contracts.AccuracyRecord, error)
	Count(ctx context.Context) (int, error)
}

// MemoryLedger is an in-process Ledger. It backs tests and single-node runs
// without a database; durability requires the Postgres repository.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []contracts.AccuracyRecord
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(_ context.Context, rec contracts.AccuracyRecord) (contracts.AccuracyRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec.ID = int64(len(l.records) + 1)
	l.records = append(l.records, rec)
	return rec, nil
}

func (l *MemoryLedger) Recent(_ context.Context, n int) ([]contracts.AccuracyRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lastN(l.records, n), nil
}

func (l *MemoryLedger) Filter(_ context.Context, itemName string, businessType contracts.BusinessType, n int) ([]contracts.AccuracyRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []contracts.AccuracyRecord
	for _, r := range l.records {
		if itemName != "" && r.ItemName != itemName {
			continue
		}
		if businessType != "" && r.BusinessType != businessType {
			continue
		}
		out = append(out, r)
	}
	return lastN(out, n), nil
}

func (l *MemoryLedger) Count(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records), nil
}

func lastN(records []contracts.AccuracyRecord, n int) []contracts.AccuracyRecord {
	if n <= 0 || n > len(records) {
		n = len(records)
	}
	out := make([]contracts.AccuracyRecord, n)
	copy(out, records[len(records)-n:])
	return out
}

package commands

import (
	"context"
	"fmt"

	"github.com/preppal/backend/internal/history"
	"github.com/preppal/backend/internal/model"
	"github.com/preppal/backend/internal/monitor"
	"github.com/preppal/backend/pkg/config"
	"github.com/preppal/backend/pkg/database"
	"github.com/preppal/backend/pkg/logger"
)

// runtime bundles the collaborators most commands need. Commands that
// run without a DATABASE_URL get in-memory stores instead of pgx
// repositories.
type runtime struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	store  *model.Store
	hist   history.Store
	ledger monitor.Ledger
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	rt := &runtime{
		cfg:   cfg,
		log:   log,
		store: model.NewStore(cfg.Model.Path, log.Zerolog()),
	}

	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory history and ledger")
		rt.hist = history.NewMemoryStore()
		rt.ledger = monitor.NewMemoryLedger()
		return rt, nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	rt.db = db

	histRepo := history.NewRepository(db.Pool)
	if err := histRepo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	ledgerRepo := monitor.NewRepository(db.Pool)
	if err := ledgerRepo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	rt.hist = histRepo
	rt.ledger = ledgerRepo
	return rt, nil
}

func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/monitor"
	"github.com/preppal/backend/internal/retrain"
	"github.com/preppal/backend/pkg/config"
	"github.com/preppal/backend/pkg/logger"
)

// RetrainCheckJob checks recent accuracy and kicks off retraining when
// the model has drifted and new data is waiting
// ⭐ SSOT: the retrain schedule lives in this Job only
type RetrainCheckJob struct {
	monitor *monitor.Monitor
	gate    *retrain.Gate
	config  *config.Config
	logger  *logger.Logger
}

// NewRetrainCheckJob creates a new retrain check job
func NewRetrainCheckJob(mon *monitor.Monitor, gate *retrain.Gate, cfg *config.Config, log *logger.Logger) *RetrainCheckJob {
	return &RetrainCheckJob{
		monitor: mon,
		gate:    gate,
		config:  cfg,
		logger:  log,
	}
}

// Name returns the job name
func (j *RetrainCheckJob) Name() string {
	return "retrain_check"
}

// Schedule returns the cron schedule
func (j *RetrainCheckJob) Schedule() string {
	return j.config.Scheduler.RetrainCheckCron
}

// Run checks drift and retrains from the newest incoming CSV
func (j *RetrainCheckJob) Run(ctx context.Context) error {
	needed, err := j.monitor.NeedsRetraining(ctx,
		j.config.Monitoring.RetrainMAPE, j.config.Monitoring.RetrainWindow)
	if err != nil {
		return fmt.Errorf("check retrain need: %w", err)
	}
	if !needed {
		j.logger.Info("Accuracy within threshold, no retrain needed")
		return nil
	}

	path, err := newestCSV(j.config.Retrain.IncomingDir)
	if err != nil {
		return err
	}
	if path == "" {
		j.logger.Warn("Retrain needed but no incoming data found")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open incoming data: %w", err)
	}
	records, err := retrain.ParseCSV(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parse incoming data: %w", err)
	}

	decision, err := j.gate.Attempt(ctx, records)
	if err != nil {
		if errors.Is(err, contracts.ErrRetrainInProgress) {
			j.logger.Warn("Retrain attempt already running, skipping scheduled check")
			return nil
		}
		return fmt.Errorf("retrain attempt: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"attempt_id": decision.AttemptID,
		"deployed":   decision.Deployed,
		"old_mape":   decision.OldMAPE,
		"new_mape":   decision.NewMAPE,
		"data_path":  path,
	}).Info("Scheduled retrain attempt finished")
	return nil
}

// newestCSV returns the lexically last CSV in dir. Uploads are named with
// date prefixes, so lexical order is chronological order.
func newestCSV(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read incoming dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

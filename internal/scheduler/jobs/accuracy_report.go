package jobs

import (
	"context"
	"fmt"

	"github.com/preppal/backend/internal/monitor"
	"github.com/preppal/backend/pkg/config"
	"github.com/preppal/backend/pkg/logger"
)

// AccuracyReportJob logs a morning summary of recent model accuracy
type AccuracyReportJob struct {
	monitor *monitor.Monitor
	config  *config.Config
	logger  *logger.Logger
}

// NewAccuracyReportJob creates a new accuracy report job
func NewAccuracyReportJob(mon *monitor.Monitor, cfg *config.Config, log *logger.Logger) *AccuracyReportJob {
	return &AccuracyReportJob{
		monitor: mon,
		config:  cfg,
		logger:  log,
	}
}

// Name returns the job name
func (j *AccuracyReportJob) Name() string {
	return "accuracy_report"
}

// Schedule returns the cron schedule
func (j *AccuracyReportJob) Schedule() string {
	return j.config.Scheduler.AccuracyReportCron
}

// Run summarizes the recent ledger window
func (j *AccuracyReportJob) Run(ctx context.Context) error {
	perf, err := j.monitor.RecentPerformance(ctx, j.config.Monitoring.RetrainWindow)
	if err != nil {
		return fmt.Errorf("recent performance: %w", err)
	}
	if perf == nil {
		j.logger.Info("No accuracy records yet, skipping report")
		return nil
	}

	fields := map[string]interface{}{
		"window":   perf.Window,
		"avg_mape": perf.AvgMAPE,
		"avg_mae":  perf.AvgMAE,
		"avg_r2":   perf.AvgR2,
	}
	if perf.AvgMAPE > j.config.Monitoring.DriftMAPE {
		j.logger.WithFields(fields).Warn("Model accuracy degraded")
	} else {
		j.logger.WithFields(fields).Info("Model accuracy report")
	}
	return nil
}

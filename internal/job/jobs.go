package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trakr/internal/metrics"
	"trakr/internal/repository"
)

const jobTimeout = 30 * time.Second

type resetTokenStore interface {
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenCleanupJob clears password reset tokens past their expiry.
type ResetTokenCleanupJob struct {
	users  resetTokenStore
	logger *zap.Logger
	now    func() time.Time
}

func NewResetTokenCleanupJob(users resetTokenStore, logger *zap.Logger) *ResetTokenCleanupJob {
	return &ResetTokenCleanupJob{users: users, logger: logger, now: time.Now}
}

func (j *ResetTokenCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cleared, err := j.users.DeleteExpiredResetTokens(ctx, j.now().UTC())
	if err != nil {
		j.logger.Error("Failed to clear expired reset tokens", zap.Error(err))
		return
	}
	if cleared > 0 {
		j.logger.Info("Cleared expired reset tokens", zap.Int64("count", cleared))
	}
}

type projectCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ticketCounter interface {
	Count(ctx context.Context, projectID int64) (int64, error)
}

// BusinessMetricsJob refreshes the project and ticket gauges.
type BusinessMetricsJob struct {
	projects projectCounter
	tickets  ticketCounter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewBusinessMetricsJob(projects projectCounter, tickets ticketCounter, m *metrics.Metrics, logger *zap.Logger) *BusinessMetricsJob {
	return &BusinessMetricsJob{projects: projects, tickets: tickets, metrics: m, logger: logger}
}

func (j *BusinessMetricsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if n, err := j.projects.Count(ctx); err != nil {
		j.logger.Error("Failed to count projects", zap.Error(err))
	} else {
		j.metrics.SetProjectsTotal(n)
	}

	if n, err := j.tickets.Count(ctx, 0); err != nil {
		j.logger.Error("Failed to count tickets", zap.Error(err))
	} else {
		j.metrics.SetTicketsTotal(n)
	}
}

type sizeReconciler interface {
	ReconcileSizes(ctx context.Context) (*repository.SizeReconciliation, error)
}

type columnInvalidator interface {
	Invalidate(ctx context.Context, projectID int64)
}

// ReconcileSizesJob recomputes column size counters that drifted from the
// ticket rows and drops the cached columns of every corrected project.
type ReconcileSizesJob struct {
	columns sizeReconciler
	cache   columnInvalidator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewReconcileSizesJob(columns sizeReconciler, cache columnInvalidator, m *metrics.Metrics, logger *zap.Logger) *ReconcileSizesJob {
	return &ReconcileSizesJob{columns: columns, cache: cache, metrics: m, logger: logger}
}

func (j *ReconcileSizesJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := j.columns.ReconcileSizes(ctx)
	if err != nil {
		j.logger.Error("Failed to reconcile column sizes", zap.Error(err))
		return
	}
	for _, projectID := range result.Projects {
		j.cache.Invalidate(ctx, projectID)
	}
	j.metrics.AddColumnSizesReconciled(result.Columns)
	if result.Columns > 0 {
		j.logger.Warn("Corrected drifted column sizes",
			zap.Int64("columns", result.Columns), zap.Int64s("projects", result.Projects))
	}
}

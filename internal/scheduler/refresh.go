package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/workload"
)

// Refresher reloads the dataset bypassing any cache.
type Refresher interface {
	Refresh(ctx context.Context) (*workload.Dataset, error)
}

// RefreshRecorder is told about every scheduled refresh.
type RefreshRecorder interface {
	RecordScheduledRun(err error)
	ObserveDataset(ds *workload.Dataset)
}

// RefreshJob keeps the cached dataset warm.
type RefreshJob struct {
	refresher Refresher
	recorder  RefreshRecorder
	logger    *zap.Logger
}

func NewRefreshJob(refresher Refresher, recorder RefreshRecorder, logger *zap.Logger) *RefreshJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshJob{
		refresher: refresher,
		recorder:  recorder,
		logger:    logger.With(zap.String("job", "refresh_dataset")),
	}
}

func (j *RefreshJob) Name() string {
	return "refresh_dataset"
}

func (j *RefreshJob) Run(ctx context.Context) error {
	ds, err := j.refresher.Refresh(ctx)
	if j.recorder != nil {
		j.recorder.RecordScheduledRun(err)
	}
	if err != nil {
		return err
	}

	if j.recorder != nil {
		j.recorder.ObserveDataset(ds)
	}

	j.logger.Info("dataset refreshed",
		zap.Int("people", len(ds.People)),
		zap.Int("items", len(ds.Items)),
	)
	return nil
}

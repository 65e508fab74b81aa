package workload

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/notion"
)

// Querier reads every page of a workspace database.
type Querier interface {
	QueryDatabase(ctx context.Context, databaseID string) (*notion.QueryResult, error)
}

type Ingestor struct {
	client     Querier
	databaseID string
	normalizer *Normalizer
	logger     *zap.Logger
	now        func() time.Time
}

func NewIngestor(client Querier, databaseID string, normalizer *Normalizer, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ingestor{
		client:     client,
		databaseID: databaseID,
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// Key identifies the query parameters of this ingestor.
func (i *Ingestor) Key() string {
	return i.databaseID + "#" + i.normalizer.Mapping().String()
}

// Fetch queries the database and normalizes the result. On transport or
// upstream failure it returns an empty dataset together with the error so
// callers can keep rendering.
func (i *Ingestor) Fetch(ctx context.Context) (*Dataset, error) {
	start := i.now()

	result, err := i.client.QueryDatabase(ctx, i.databaseID)
	if err != nil {
		i.logger.Error("fetching workload database", zap.Error(err))
		ds := Empty()
		ds.FetchedAt = start.UTC()
		return ds, fmt.Errorf("query database: %w", err)
	}

	ds := i.normalizer.Normalize(ctx, result.Pages)
	ds.Requests = result.Requests
	ds.Truncated = result.Truncated
	ds.FetchedAt = start.UTC()

	i.logger.Info("fetched workload database",
		zap.Int("pages", ds.Pages),
		zap.Int("requests", ds.Requests),
		zap.Int("people", len(ds.People)),
		zap.Int("items", len(ds.Items)),
		zap.Int("defaulted_fields", ds.DefaultedTotal()),
		zap.Duration("took", i.now().Sub(start)),
	)

	return ds, nil
}

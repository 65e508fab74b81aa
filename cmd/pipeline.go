package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/ai/gemini"
	"github.com/spigell/workload-radar/internal/cache"
	"github.com/spigell/workload-radar/internal/logger"
	"github.com/spigell/workload-radar/internal/notion"
	"github.com/spigell/workload-radar/internal/secrets"
	"github.com/spigell/workload-radar/internal/signals"
	"github.com/spigell/workload-radar/internal/telemetry"
	"github.com/spigell/workload-radar/internal/workload"
)

// pipeline wires the Notion client, the normalizer and the dataset cache.
type pipeline struct {
	config  *Config
	logger  *zap.Logger
	loader  *cache.Loader
	metrics *telemetry.Manager
}

// setup builds the logger and the pipeline. Failures are fatal.
func setup(ctx context.Context, command string) *pipeline {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Info("starting the workload-radar", zap.String("version", version), zap.String("command", command))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	p, err := newPipeline(ctx, config, l)
	if err != nil {
		l.Fatal("building the pipeline", zap.Error(err))
	}
	return p
}

func newPipeline(ctx context.Context, config *Config, l *zap.Logger) (*pipeline, error) {
	nc := config.Notion
	if strings.TrimSpace(nc.DatabaseID) == "" {
		return nil, errors.New("notion.database-id is required")
	}

	progress := nc.Progress.WithDefaults()
	if err := progress.Validate(); err != nil {
		return nil, fmt.Errorf("notion.progress: %w", err)
	}

	token, err := resolveToken(config)
	if err != nil {
		return nil, fmt.Errorf("%w (set NOTION_TOKEN_FILE or notion.token-file)", err)
	}

	provider, err := newMetricProvider(ctx, config.Metrics, l)
	if err != nil {
		return nil, fmt.Errorf("building metric provider: %w", err)
	}

	l = logger.WithPipelineFields(l, nc.DatabaseID, provider.Name())

	client := notion.New(l.Named("notion"), token)
	if nc.APIURL != "" {
		client.APIURL = strings.TrimRight(nc.APIURL, "/")
	}
	if nc.PageSize > 0 {
		client.PageSize = nc.PageSize
	}
	if nc.MaxPages > 0 {
		client.MaxPages = nc.MaxPages
	}
	client.SetTimeout(nc.Timeout)
	if viper.IsSet("notion.rate-limit") {
		client.SetRateLimit(nc.RateLimit)
	}

	normalizer := workload.NewNormalizer(nc.Fields, progress, provider, l.Named("normalizer"))
	ingestor := workload.NewIngestor(client, nc.DatabaseID, normalizer, l.Named("ingest"))

	metrics := telemetry.NewManager(telemetry.WithRuntimeCollectors())

	loader := cache.NewLoader(ingestor, config.Cache.TTL, l.Named("cache"))
	loader.SetObserver(metrics)

	return &pipeline{
		config:  config,
		logger:  l,
		loader:  loader,
		metrics: metrics,
	}, nil
}

// dataset loads the current dataset. An upstream failure still yields the
// empty dataset so reports keep rendering.
func (p *pipeline) dataset(ctx context.Context) *workload.Dataset {
	ds, err := p.loader.Get(ctx)
	if err != nil {
		p.logger.Error("fetching workload data, continuing with an empty dataset", zap.Error(err))
		return ds
	}

	p.metrics.ObserveDataset(ds)
	p.logger.Info("workload data fetched",
		zap.Int("people", len(ds.People)),
		zap.Int("items", len(ds.Items)),
		zap.Int("pages", ds.Pages),
		zap.Int("defaulted", ds.DefaultedTotal()),
	)
	if ds.Truncated {
		p.logger.Warn("stopped following cursors at notion.max-pages", zap.Int("pages", ds.Pages))
	}
	return ds
}

func resolveToken(config *Config) (string, error) {
	if config == nil || config.Notion == nil {
		return "", errors.New("config is required")
	}

	tokenFile := strings.TrimSpace(config.Notion.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("notion.token-file"))
	}

	return secrets.Load(secrets.Source{
		Name: "notion token",
		File: tokenFile,
		Env:  "NOTION_TOKEN",
	})
}

func newMetricProvider(ctx context.Context, cfg *MetricsConfig, l *zap.Logger) (workload.MetricProvider, error) {
	if cfg == nil {
		cfg = &MetricsConfig{}
	}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", signals.ProviderRandom:
		return signals.NewRandom(cfg.Seed), nil
	case signals.ProviderStatic:
		if err := cfg.Static.Validate(); err != nil {
			return nil, err
		}
		return cfg.Static, nil
	case signals.ProviderGemini:
		return newGeminiProvider(ctx, cfg.Gemini, l)
	default:
		return nil, fmt.Errorf("unsupported metric provider: %s", cfg.Provider)
	}
}

func newGeminiProvider(ctx context.Context, cfg *GeminiConfig, l *zap.Logger) (workload.MetricProvider, error) {
	if cfg == nil {
		cfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set metrics.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model)
	if err != nil {
		return nil, err
	}

	estimatorLogger := logger.WithFields(l, logger.StringFields(
		logger.StringField{Key: logger.FieldModel, Value: generator.Model()},
	)...)

	return signals.NewEstimated(gemini.NewEstimator(generator, estimatorLogger, cfg.MaxLogLength)), nil
}

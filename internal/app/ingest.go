package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/guttosm/firdspulse/config"
	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/enums"
	"github.com/guttosm/firdspulse/internal/fetcher"
	"github.com/guttosm/firdspulse/internal/ingestion"
	"github.com/guttosm/firdspulse/internal/logger"
	"github.com/guttosm/firdspulse/internal/mapper"
	"github.com/guttosm/firdspulse/internal/storage"
)

// IngestRequest is one ingestion run as requested from the command line.
// Zero fields fall back to config.AppConfig.
type IngestRequest struct {
	From      time.Time
	To        time.Time
	Source    models.Source
	FileTypes []models.FileType
	Parallel  int
	Force     bool
}

// resolve fills unset fields from cfg. An empty date range becomes the last
// Firds.WindowDays publication days.
func (r IngestRequest) resolve(cfg config.Config, now time.Time) (IngestRequest, error) {
	if r.Source == "" {
		r.Source = models.Source(cfg.Firds.Source)
	}
	if len(r.FileTypes) == 0 {
		for _, ft := range cfg.Firds.FileTypes {
			r.FileTypes = append(r.FileTypes, models.FileType(ft))
		}
	}
	if r.Parallel <= 0 {
		r.Parallel = cfg.Ingest.Parallel
	}
	if r.From.IsZero() && r.To.IsZero() {
		days := cfg.Firds.WindowDays
		if days <= 0 {
			days = 1
		}
		r.From, r.To = ingestion.DefaultWindow(days, now)
	}
	if r.From.IsZero() {
		r.From = r.To
	}
	if r.To.IsZero() {
		r.To = r.From
	}
	if r.To.Before(r.From) {
		return r, fmt.Errorf("--to %s is before --from %s", r.To.Format(time.DateOnly), r.From.Format(time.DateOnly))
	}
	return r, nil
}

// BuildPipeline assembles the fetch stack and the pipeline over sink.
//
// Behavior:
//   - Archives land in the content-addressed cache under Cache.Dir.
//   - When a bucket is configured it backs the local cache; a bucket that
//     cannot be reached only disables the shared cache for this run.
//   - The lister targets req.Source with the configured index URL override.
func BuildPipeline(ctx context.Context, cfg config.Config, sink ingestion.Sink, req IngestRequest) (*ingestion.Pipeline, error) {
	cache, err := fetcher.NewDiskCache(cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	retry := fetcher.DefaultRetryPolicy
	retry.MaxRetries = uint64(cfg.Fetch.MaxRetries)

	opts := fetcher.Options{
		Timeout:   cfg.Fetch.Timeout,
		Retry:     retry,
		UserAgent: cfg.Fetch.UserAgent,
	}
	if cfg.Cache.S3.Enabled() {
		store, err := remoteOpener(ctx, cfg.Cache.S3)
		if err != nil {
			logger.L().Warn().Err(err).Str("bucket", cfg.Cache.S3.Bucket).Msg("archive bucket disabled for this run")
		} else {
			opts.Remote = store
		}
	}

	client := &http.Client{Transport: http.DefaultTransport}
	idx := fetcher.IndexConfig{Retry: retry, UserAgent: cfg.Fetch.UserAgent}
	switch req.Source {
	case models.SourceESMA:
		idx.BaseURL = cfg.Firds.ESMAIndexURL
	case models.SourceFCA:
		idx.BaseURL = cfg.Firds.FCAIndexURL
	}
	lister, err := fetcher.NewLister(req.Source, client, idx)
	if err != nil {
		return nil, err
	}

	return ingestion.NewPipeline(
		lister,
		fetcher.New(client, cache, opts),
		sink,
		mapper.New(enums.Default()),
		ingestion.Options{
			Parallel:            req.Parallel,
			BatchSize:           cfg.Ingest.BatchSize,
			QuarantineThreshold: cfg.Ingest.QuarantineThreshold,
			Force:               req.Force,
		},
	), nil
}

// RunIngestion connects to Postgres, runs one ingestion for req and closes
// the connection.
//
// Returns:
//   - ingestion.RunReport: per-file ledgers in publication order.
//   - error: configuration, connection or run-level failure. File-level
//     failures are reported in the ledgers, not here.
func RunIngestion(ctx context.Context, req IngestRequest) (ingestion.RunReport, error) {
	cfg := config.AppConfig

	req, err := req.resolve(cfg, time.Now())
	if err != nil {
		return ingestion.RunReport{}, err
	}

	db, err := postgresOpener(cfg)
	if err != nil {
		return ingestion.RunReport{}, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	defer func() { _ = db.Close() }()

	p, err := BuildPipeline(ctx, cfg, storage.NewReferenceDataRepository(db), req)
	if err != nil {
		return ingestion.RunReport{}, err
	}

	return p.Run(ctx, fetcher.Criteria{
		Source:    req.Source,
		From:      req.From,
		To:        req.To,
		FileTypes: req.FileTypes,
	})
}

// Package ingestion orchestrates FIRDS runs: list the published files, fetch
// and extract each archive, map and classify its records and hand them to a
// single writer in publication order.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/firdspulse/internal/classifier"
	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/fetcher"
	"github.com/guttosm/firdspulse/internal/logger"
	"github.com/guttosm/firdspulse/internal/mapper"
	"github.com/guttosm/firdspulse/internal/metrics"
)

const (
	defaultBatchSize           = 5000
	defaultQuarantineThreshold = 0.05
	maxParallel                = 8
	streamBuffer               = 4
)

// Fetcher downloads (or finds in cache) the archive behind a descriptor.
type Fetcher interface {
	Fetch(ctx context.Context, d fetcher.FileDescriptor) (fetcher.RawArchive, error)
}

// RecordMapper decodes one XML member into a stream of mapped records.
type RecordMapper interface {
	Records(r io.Reader) iter.Seq[mapper.Result]
}

// Sink is the persistence side of a run. storage.ReferenceDataRepository satisfies it.
type Sink interface {
	InsertChangeBatch(ctx context.Context, batch []models.ChangeRecord) error
	HasIngestion(ctx context.Context, archiveHash string) (bool, error)
	UpsertIngestionLog(ctx context.Context, l models.FileLedger) error
	DeleteByArchive(ctx context.Context, archiveHash string) error
}

// Options tune a Pipeline. Zero values pick the defaults.
type Options struct {
	Parallel            int     // files processed concurrently; 0 = min(NumCPU, 8)
	BatchSize           int     // records per InsertChangeBatch call
	QuarantineThreshold float64 // rejected/total above which a file is quarantined
	Force               bool    // reprocess archives already in the ingestion log
	OnFileDone          func(models.FileLedger)
}

// RunReport summarises a run, one ledger per listed file in publication order.
type RunReport struct {
	RunID      string
	Files      []models.FileLedger
	StartedAt  time.Time
	FinishedAt time.Time
}

// Totals sums ingested and rejected records over every file.
func (r RunReport) Totals() (ingested, rejected int) {
	for _, f := range r.Files {
		ingested += f.Ingested
		rejected += f.Rejected
	}
	return ingested, rejected
}

// Count returns how many files ended with status s.
func (r RunReport) Count(s models.FileStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == s {
			n++
		}
	}
	return n
}

// Pipeline runs ingestion for one regulator.
type Pipeline struct {
	lister  fetcher.Lister
	fetcher Fetcher
	sink    Sink
	mapper  RecordMapper
	opts    Options
}

// extract is an indirection for unit testing; defaults to fetcher.Extract.
var extract = fetcher.Extract

// NewPipeline wires a Pipeline and applies option defaults.
func NewPipeline(lister fetcher.Lister, f Fetcher, sink Sink, m RecordMapper, opts Options) *Pipeline {
	if opts.Parallel <= 0 {
		opts.Parallel = min(runtime.NumCPU(), maxParallel)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.QuarantineThreshold <= 0 {
		opts.QuarantineThreshold = defaultQuarantineThreshold
	}
	return &Pipeline{lister: lister, fetcher: f, sink: sink, mapper: m, opts: opts}
}

// ─── Events ─────────────────────────────────────────────

type eventKind int

const (
	evReset eventKind = iota + 1 // drop rows an earlier load of the archive left behind
	evBatch
	evLedger // last event of a file
)

type event struct {
	kind   eventKind
	hash   string
	batch  []models.ChangeRecord
	ledger models.FileLedger
}

// Run lists the files matching c and ingests them.
//
// Behavior:
//   - Up to Options.Parallel files are fetched, extracted and mapped at once.
//   - Each file streams its batches over its own channel. A single consumer
//     drains the channels in publication order, so the sink sees every file's
//     records contiguously and in document order.
//   - File-level failures (integrity, corrupt archive, malformed XML, fetch
//     errors) are recorded in that file's ledger and the run continues.
//   - Sink errors and context cancellation abort the run and are returned as is.
//
// Returns:
//   - RunReport: ledgers of every file that reached the consumer.
//   - error: listing, sink or context error.
func (p *Pipeline) Run(ctx context.Context, c fetcher.Criteria) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	log := logger.Component("ingestion").With().Str("run_id", report.RunID).Logger()

	files, err := p.lister.ListAvailable(ctx, c)
	if err != nil {
		return report, fmt.Errorf("list available files: %w", err)
	}
	log.Info().Int("files", len(files)).Str("source", string(c.Source)).
		Str("from", c.From.Format(time.DateOnly)).Str("to", c.To.Format(time.DateOnly)).
		Int("max_parallel", p.opts.Parallel).Bool("force", p.opts.Force).Msg("ingestion start")

	streams := make([]chan event, len(files))
	for i := range streams {
		streams[i] = make(chan event, streamBuffer)
	}
	claims := &claimSet{seen: make(map[string]string)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		workers, wctx := errgroup.WithContext(gctx)
		workers.SetLimit(p.opts.Parallel)
		for i, d := range files {
			if wctx.Err() != nil {
				break
			}
			workers.Go(func() error {
				defer close(streams[i])
				return p.processFile(wctx, report.RunID, i, len(files), d, claims, streams[i])
			})
		}
		return workers.Wait()
	})

	g.Go(func() error {
		for i := range streams {
			if err := p.consume(gctx, streams[i], &report); err != nil {
				return err
			}
		}
		return nil
	})

	err = g.Wait()
	report.FinishedAt = time.Now().UTC()
	ingested, rejected := report.Totals()
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("files", len(report.Files)).Int("ingested", ingested).Int("rejected", rejected).
		Int("quarantined", report.Count(models.FileQuarantined)).Int("failed", report.Count(models.FileFailed)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).Msg("ingestion finished")
	return report, err
}

// ─── Consumer ───────────────────────────────────────────

// consume drains one file's stream into the sink.
func (p *Pipeline) consume(ctx context.Context, in <-chan event, report *RunReport) error {
	wrote := false
	for {
		var ev event
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok = <-in:
		}
		if !ok {
			return nil
		}

		switch ev.kind {
		case evReset:
			if err := p.sink.DeleteByArchive(ctx, ev.hash); err != nil {
				return fmt.Errorf("delete archive %s: %w", ev.hash, err)
			}
		case evBatch:
			if err := p.sink.InsertChangeBatch(ctx, ev.batch); err != nil {
				return fmt.Errorf("insert batch: %w", err)
			}
			wrote = true
		case evLedger:
			l := ev.ledger
			// A quarantined or failed file must not leave partial data behind.
			if wrote && (l.Status == models.FileQuarantined || l.Status == models.FileFailed) {
				if err := p.sink.DeleteByArchive(ctx, l.ArchiveHash); err != nil {
					return fmt.Errorf("roll back archive %s: %w", l.ArchiveHash, err)
				}
			}
			if l.Status != models.FileSkipped {
				if err := p.sink.UpsertIngestionLog(ctx, l); err != nil {
					return fmt.Errorf("upsert ingestion log: %w", err)
				}
			}
			p.finish(l)
			report.Files = append(report.Files, l)
		}
	}
}

// finish logs, counts and announces a file's final ledger.
func (p *Pipeline) finish(l models.FileLedger) {
	metrics.IncFile(string(l.FileType), string(l.Status))
	metrics.FileDuration.WithLabelValues(string(l.FileType)).Observe(l.FinishedAt.Sub(l.StartedAt).Seconds())
	for kind, n := range l.ByKind {
		metrics.RecordsTotal.WithLabelValues("rejected", kind).Add(float64(n))
	}
	metrics.RecordsTotal.WithLabelValues("ingested", "").Add(float64(l.Ingested))

	log := logger.Component("ingestion").With().Str("run_id", l.RunID).Str("file", l.FileName).Logger()
	elapsed := l.FinishedAt.Sub(l.StartedAt)
	switch l.Status {
	case models.FileSkipped:
		log.Info().Str("archive_hash", l.ArchiveHash).Msg("file skipped")
	case models.FileFailed:
		log.Error().Str("archive_hash", l.ArchiveHash).Str("error", l.Error).
			Interface("by_kind", l.ByKind).Dur("elapsed", elapsed).Msg("file failed")
	case models.FileQuarantined:
		log.Warn().Str("archive_hash", l.ArchiveHash).Int("ingested", l.Ingested).Int("rejected", l.Rejected).
			Float64("reject_rate", l.RejectRate()).Interface("by_kind", l.ByKind).Dur("elapsed", elapsed).Msg("file quarantined")
	default:
		log.Info().Str("archive_hash", l.ArchiveHash).Int("members", l.Members).Int("ingested", l.Ingested).
			Int("rejected", l.Rejected).Interface("by_kind", l.ByKind).Dur("elapsed", elapsed).Msg("file done")
	}

	if p.opts.OnFileDone != nil {
		p.opts.OnFileDone(l)
	}
}

// ─── Workers ────────────────────────────────────────────

// claimSet deduplicates archives that appear under several descriptors in one run.
type claimSet struct {
	mu   sync.Mutex
	seen map[string]string
}

func (c *claimSet) claim(hash, file string) (owner string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, dup := c.seen[hash]; dup {
		return owner, false
	}
	c.seen[hash] = file
	return file, true
}

// fileRun carries the state of one file through processFile.
type fileRun struct {
	ctx    context.Context
	out    chan<- event
	ledger models.FileLedger
	batch  []models.ChangeRecord
}

func (f *fileRun) send(ev event) error {
	select {
	case f.out <- ev:
		return nil
	case <-f.ctx.Done():
		return f.ctx.Err()
	}
}

// processFile runs one descriptor end to end and always finishes with a
// ledger event unless the context is done.
func (p *Pipeline) processFile(ctx context.Context, runID string, idx, total int, d fetcher.FileDescriptor, claims *claimSet, out chan<- event) error {
	fr := &fileRun{
		ctx: ctx,
		out: out,
		ledger: models.FileLedger{
			RunID:       runID,
			FileName:    d.FileName,
			URL:         d.URL,
			Source:      d.Source,
			FileType:    d.FileType,
			PublishedAt: d.PublishedAt,
			ArchiveHash: d.ExpectedHash,
			Status:      models.FileDone,
			StartedAt:   time.Now().UTC(),
		},
	}
	log := logger.Component("ingestion")
	log.Info().Str("run_id", runID).Int("idx", idx+1).Int("total", total).
		Str("file", d.FileName).Str("type", string(d.FileType)).Msg("file start")

	if err := p.ingestFile(fr, d, claims); err != nil {
		return err
	}

	fr.ledger.FinishedAt = time.Now().UTC()
	return fr.send(event{kind: evLedger, ledger: fr.ledger})
}

// ingestFile fills fr.ledger. It only returns context errors; every other
// failure ends up in the ledger.
func (p *Pipeline) ingestFile(fr *fileRun, d fetcher.FileDescriptor, claims *claimSet) error {
	ctx := fr.ctx
	l := &fr.ledger

	raw, err := p.fetcher.Fetch(ctx, d)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case errors.Is(err, fetcher.ErrIntegrityMismatch):
			l.Fail(models.KindIntegrityMismatch, err)
		case errors.Is(err, fetcher.ErrCorruptArchive):
			l.Fail(models.KindCorruptArchive, err)
		default:
			l.Fail(models.KindFetchFailed, err)
		}
		return nil
	}
	l.ArchiveHash = raw.Hash

	if owner, ok := claims.claim(raw.Hash, d.FileName); !ok {
		log := logger.Component("ingestion")
		log.Debug().Str("file", d.FileName).Str("same_as", owner).Msg("archive already claimed in this run")
		l.Status = models.FileSkipped
		return nil
	}

	exists, err := p.sink.HasIngestion(ctx, raw.Hash)
	if err != nil {
		return fmt.Errorf("file %s: check ingestion log: %w", d.FileName, err)
	}
	if exists && !p.opts.Force {
		l.Status = models.FileSkipped
		return nil
	}
	// An interrupted run commits batches without a ledger, so every archive
	// that is (re)loaded starts by dropping whatever it left behind.
	if err := fr.send(event{kind: evReset, hash: raw.Hash}); err != nil {
		return err
	}

	archive, err := extract(raw)
	if err != nil {
		l.Fail(models.KindCorruptArchive, err)
		return nil
	}
	defer func() { _ = archive.Close() }()

	for _, m := range archive.Members {
		l.Members++
		if err := p.ingestMember(fr, raw, m); err != nil {
			return err
		}
		if l.Status == models.FileFailed {
			return nil
		}
	}
	if err := p.flush(fr); err != nil {
		return err
	}

	if l.RejectRate() > p.opts.QuarantineThreshold {
		l.Status = models.FileQuarantined
		l.Error = fmt.Sprintf("reject rate %.4f above threshold %.4f", l.RejectRate(), p.opts.QuarantineThreshold)
	}
	return nil
}

// ingestMember maps and classifies the records of one XML member.
func (p *Pipeline) ingestMember(fr *fileRun, raw fetcher.RawArchive, m fetcher.Member) error {
	l := &fr.ledger
	rc, err := m.Open()
	if err != nil {
		l.Fail(models.KindCorruptArchive, fmt.Errorf("open member %s: %w", m.Name, err))
		return nil
	}
	defer func() { _ = rc.Close() }()

	meta := models.SourceMetadata{
		Source:      raw.Descriptor.Source,
		FileName:    raw.Descriptor.FileName,
		FileType:    raw.Descriptor.FileType,
		PublishedAt: raw.Descriptor.PublishedAt,
		ArchiveHash: raw.Hash,
		Member:      m.Name,
	}

	for res := range p.mapper.Records(rc) {
		if err := fr.ctx.Err(); err != nil {
			return err
		}
		if res.Err != nil {
			var de *mapper.DocumentError
			if errors.As(res.Err, &de) {
				kind := models.KindMalformedDocument
				if errors.Is(res.Err, fetcher.ErrCorruptArchive) {
					kind = models.KindCorruptArchive
				}
				l.Fail(kind, fmt.Errorf("member %s: %w", m.Name, res.Err))
				return nil
			}
			var me *mapper.MappingError
			if errors.As(res.Err, &me) {
				l.Reject(me.Kind.String())
			} else {
				l.Reject(models.KindInvalidValue)
			}
			continue
		}

		meta.RecordElement = res.Element
		rec, err := classifier.Classify(res.Record, meta)
		if err != nil {
			l.Reject(models.KindUnclassifiableSource)
			continue
		}
		fr.batch = append(fr.batch, rec)
		l.Ingested++
		if len(fr.batch) >= p.opts.BatchSize {
			if err := p.flush(fr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) flush(fr *fileRun) error {
	if len(fr.batch) == 0 {
		return nil
	}
	batch := fr.batch
	fr.batch = make([]models.ChangeRecord, 0, p.opts.BatchSize)
	return fr.send(event{kind: evBatch, batch: batch})
}

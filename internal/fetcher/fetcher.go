package fetcher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/guttosm/firdspulse/internal/logger"
	"github.com/guttosm/firdspulse/internal/metrics"
)

// RemoteStore is a shared second-level cache keyed by archive hash.
type RemoteStore interface {
	Exists(ctx context.Context, hash string) (bool, error)
	Download(ctx context.Context, hash string, w io.Writer) error
	Upload(ctx context.Context, hash string, r io.Reader) error
}

// Options tunes a Fetcher. Zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration // per download attempt
	Retry     RetryPolicy
	UserAgent string
	Remote    RemoteStore // optional
}

// RawArchive is an archive committed to the local cache.
type RawArchive struct {
	Descriptor FileDescriptor
	Hash       string
	Path       string
	Size       int64
	CacheHit   bool
}

// Fetcher downloads archives into a DiskCache. Concurrent requests for the
// same archive share one download.
type Fetcher struct {
	client *http.Client
	cache  *DiskCache
	opts   Options
	group  singleflight.Group
}

// New returns a Fetcher using client for HTTP and cache for storage.
func New(client *http.Client, cache *DiskCache, opts Options) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy
	}
	return &Fetcher{client: client, cache: cache, opts: opts}
}

// Fetch returns the archive for d, from the cache when the advertised hash
// is already present, otherwise by downloading it.
//
// Behavior:
//   - Transient failures (connection errors, 5xx, 429) are retried per Options.Retry.
//   - A hash mismatch returns *IntegrityError without retrying.
//   - A shared download is detached from the cancellation of whichever
//     caller started it and is bounded by the per-attempt timeout and the
//     retry policy; each caller still returns early when its own ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, d FileDescriptor) (RawArchive, error) {
	key := d.ExpectedHash
	if key == "" {
		key = "url:" + d.URL
	}
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		return f.fetch(shared, d)
	})
	select {
	case <-ctx.Done():
		return RawArchive{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return RawArchive{}, res.Err
		}
		raw := res.Val.(RawArchive)
		raw.Descriptor = d
		return raw, nil
	}
}

func (f *Fetcher) fetch(ctx context.Context, d FileDescriptor) (RawArchive, error) {
	source := string(d.Source)
	if d.ExpectedHash != "" {
		if p, size, ok := f.cache.Lookup(d.ExpectedHash); ok {
			metrics.IncFetch(source, "hit")
			return RawArchive{Descriptor: d, Hash: d.ExpectedHash, Path: p, Size: size, CacheHit: true}, nil
		}
		if f.opts.Remote != nil {
			raw, err := f.fromRemote(ctx, d)
			if err == nil {
				metrics.IncFetch(source, "remote_hit")
				return raw, nil
			}
			if !errors.Is(err, errRemoteMiss) {
				log := logger.Component("fetcher")
				log.Warn().Err(err).Str("file", d.FileName).Msg("remote cache unavailable, downloading from source")
			}
		}
	}

	start := time.Now()
	var raw RawArchive
	err := retry(ctx, f.opts.Retry, "download", func() error {
		var attemptErr error
		raw, attemptErr = f.download(ctx, d)
		return attemptErr
	})
	if err != nil {
		metrics.IncFetch(source, "error")
		return RawArchive{}, err
	}
	metrics.ObserveDuration(metrics.FetchDuration, start, source)
	metrics.IncFetch(source, "miss")

	if f.opts.Remote != nil {
		f.toRemote(ctx, raw)
	}
	return raw, nil
}

// download performs one attempt. The body is hashed while it is written to a
// staged cache file.
func (f *Fetcher) download(ctx context.Context, d FileDescriptor) (RawArchive, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, d.URL, nil)
	if err != nil {
		return RawArchive{}, err
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return RawArchive{}, ctx.Err()
		}
		return RawArchive{}, transient(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return RawArchive{}, &StatusError{URL: d.URL, Code: resp.StatusCode}
	}

	tmp, err := f.cache.Stage()
	if err != nil {
		return RawArchive{}, err
	}
	h := md5.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if err != nil {
		f.cache.Discard(tmp)
		if ctx.Err() != nil {
			return RawArchive{}, ctx.Err()
		}
		return RawArchive{}, transient(fmt.Errorf("read body of %s: %w", d.URL, err))
	}
	return f.commit(tmp, h, size, d)
}

var errRemoteMiss = errors.New("not in remote cache")

func (f *Fetcher) fromRemote(ctx context.Context, d FileDescriptor) (RawArchive, error) {
	ok, err := f.opts.Remote.Exists(ctx, d.ExpectedHash)
	if err != nil {
		return RawArchive{}, err
	}
	if !ok {
		return RawArchive{}, errRemoteMiss
	}
	tmp, err := f.cache.Stage()
	if err != nil {
		return RawArchive{}, err
	}
	h := md5.New()
	cw := &countingWriter{w: io.MultiWriter(tmp, h)}
	if err := f.opts.Remote.Download(ctx, d.ExpectedHash, cw); err != nil {
		f.cache.Discard(tmp)
		return RawArchive{}, err
	}
	return f.commit(tmp, h, cw.n, d)
}

func (f *Fetcher) toRemote(ctx context.Context, raw RawArchive) {
	l := logger.Component("fetcher").With().Str("file", raw.Descriptor.FileName).Str("hash", raw.Hash).Logger()
	exists, err := f.opts.Remote.Exists(ctx, raw.Hash)
	if err != nil {
		l.Warn().Err(err).Msg("remote cache lookup failed")
		return
	}
	if exists {
		return
	}
	file, err := os.Open(raw.Path)
	if err != nil {
		l.Warn().Err(err).Msg("open cached archive for upload")
		return
	}
	defer func() { _ = file.Close() }()
	if err := f.opts.Remote.Upload(ctx, raw.Hash, file); err != nil {
		l.Warn().Err(err).Msg("remote cache upload failed")
		return
	}
	l.Debug().Msg("archive uploaded to remote cache")
}

// commit checks the computed hash against the advertised one and publishes
// the staged file.
func (f *Fetcher) commit(tmp *os.File, h hash.Hash, size int64, d FileDescriptor) (RawArchive, error) {
	actual := hex.EncodeToString(h.Sum(nil))
	if d.ExpectedHash != "" && actual != d.ExpectedHash {
		f.cache.Discard(tmp)
		return RawArchive{}, &IntegrityError{URL: d.URL, Expected: d.ExpectedHash, Actual: actual}
	}
	p, err := f.cache.Commit(tmp, actual)
	if err != nil {
		return RawArchive{}, err
	}
	return RawArchive{Descriptor: d, Hash: actual, Path: p, Size: size}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

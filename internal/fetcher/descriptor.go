// Package fetcher lists FIRDS files published by a regulator, downloads them
// into a content-addressed cache and extracts their XML members.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/logger"
	"github.com/guttosm/firdspulse/internal/metrics"
)

// FileDescriptor is one archive advertised by a regulator's file index.
type FileDescriptor struct {
	URL          string
	FileName     string
	FileID       string
	FileType     models.FileType
	Source       models.Source
	PublishedAt  time.Time
	ExpectedHash string // lowercase hex md5, empty when the index does not advertise one
	ArchiveKind  string
}

// Criteria selects files by publication date (inclusive, day precision) and type.
// An empty FileTypes selects every type.
type Criteria struct {
	Source    models.Source
	From      time.Time
	To        time.Time
	FileTypes []models.FileType
}

func (c Criteria) wants(ft models.FileType) bool {
	if len(c.FileTypes) == 0 {
		return true
	}
	for _, t := range c.FileTypes {
		if t == ft {
			return true
		}
	}
	return false
}

func (c Criteria) validate() error {
	if c.From.IsZero() || c.To.IsZero() {
		return errors.New("criteria: from and to are required")
	}
	if c.To.Before(c.From) {
		return fmt.Errorf("criteria: to %s before from %s", c.To.Format(time.DateOnly), c.From.Format(time.DateOnly))
	}
	return nil
}

// Lister queries a regulator's file index.
type Lister interface {
	ListAvailable(ctx context.Context, c Criteria) ([]FileDescriptor, error)
}

// sortByPublication orders descriptors by publication time, then file name.
func sortByPublication(ds []FileDescriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		if !ds[i].PublishedAt.Equal(ds[j].PublishedAt) {
			return ds[i].PublishedAt.Before(ds[j].PublishedAt)
		}
		return ds[i].FileName < ds[j].FileName
	})
}

// RetryPolicy bounds retries of transient failures.
type RetryPolicy struct {
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy retries 4 times starting at 500ms.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 4, InitialBackoff: 500 * time.Millisecond, MaxBackoff: 30 * time.Second}

// retry runs op with exponential backoff. Only errors matching
// ErrNetworkTransient are retried; anything else is returned immediately.
func retry(ctx context.Context, p RetryPolicy, what string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		b.InitialInterval = p.InitialBackoff
	}
	if p.MaxBackoff > 0 {
		b.MaxInterval = p.MaxBackoff
	}
	b.MaxElapsedTime = 0

	wrapped := func() error {
		err := op()
		if err == nil || errors.Is(err, ErrNetworkTransient) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		metrics.IncRetry(what)
		log := logger.Component("fetcher")
		log.Warn().Err(err).Str("op", what).Dur("retry_in", wait).Msg("transient failure, retrying")
	}
	return backoff.RetryNotify(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx), notify)
}

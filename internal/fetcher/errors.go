package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetworkTransient marks failures worth retrying (connection errors, 5xx, 429).
	ErrNetworkTransient = errors.New("transient network failure")
	// ErrIntegrityMismatch is matched by *IntegrityError.
	ErrIntegrityMismatch = errors.New("integrity mismatch")
	// ErrCorruptArchive reports an archive that cannot be opened or decompressed.
	ErrCorruptArchive = errors.New("corrupt archive")
)

// IntegrityError reports a downloaded body whose hash disagrees with the
// one advertised by the index.
type IntegrityError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity mismatch for %s: expected md5 %s, got %s", e.URL, e.Expected, e.Actual)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrityMismatch }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Is makes 5xx and 429 responses match ErrNetworkTransient.
func (e *StatusError) Is(target error) bool {
	return target == ErrNetworkTransient && (e.Code >= 500 || e.Code == http.StatusTooManyRequests)
}

type transientError struct{ err error }

func (e *transientError) Error() string        { return e.err.Error() }
func (e *transientError) Unwrap() error        { return e.err }
func (e *transientError) Is(target error) bool { return target == ErrNetworkTransient }

func transient(err error) error { return &transientError{err: err} }

type corruptError struct{ err error }

func (e *corruptError) Error() string        { return "corrupt archive: " + e.err.Error() }
func (e *corruptError) Unwrap() error        { return e.err }
func (e *corruptError) Is(target error) bool { return target == ErrCorruptArchive }

func corrupt(err error) error { return &corruptError{err: err} }

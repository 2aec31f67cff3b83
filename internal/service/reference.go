package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/guttosm/firdspulse/internal/domain/models"
)

// ErrInvalidISIN is returned for identifiers that are not shaped like an ISIN.
var ErrInvalidISIN = errors.New("invalid isin")

var isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

const maxIngestionLimit = 500

// Reader is the read side of the reference-data store.
type Reader interface {
	GetInstrument(ctx context.Context, isin string) ([]models.InstrumentVersion, error)
	ListIngestions(ctx context.Context, limit int) ([]models.FileLedger, error)
}

// InstrumentHistory groups the stored versions of one ISIN.
type InstrumentHistory struct {
	ISIN    string
	Current []models.InstrumentVersion // open version per venue
	History []models.InstrumentVersion // every version, newest first
}

// ReferenceService defines the queries served by the read API.
type ReferenceService interface {
	GetInstrument(ctx context.Context, isin string) (*InstrumentHistory, error)
	ListIngestions(ctx context.Context, limit int) ([]models.FileLedger, error)
}

type referenceService struct {
	repo Reader
}

func NewReferenceService(repo Reader) ReferenceService {
	return &referenceService{repo: repo}
}

// GetInstrument normalizes isin and loads its history. It returns nil, nil
// when nothing is stored for the ISIN.
func (s *referenceService) GetInstrument(ctx context.Context, isin string) (*InstrumentHistory, error) {
	isin = strings.ToUpper(strings.TrimSpace(isin))
	if !isinPattern.MatchString(isin) {
		return nil, ErrInvalidISIN
	}
	versions, err := s.repo.GetInstrument(ctx, isin)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	h := &InstrumentHistory{ISIN: isin, History: versions}
	for _, v := range versions {
		if v.Latest {
			h.Current = append(h.Current, v)
		}
	}
	return h, nil
}

// ListIngestions clamps limit to 1..500 (default 50).
func (s *referenceService) ListIngestions(ctx context.Context, limit int) ([]models.FileLedger, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > maxIngestionLimit:
		limit = maxIngestionLimit
	}
	return s.repo.ListIngestions(ctx, limit)
}

package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/guttosm/firdspulse/internal/domain/models"
)

func TestErrorResponse_Error(t *testing.T) {
	e := ErrorResponse{Message: "oops"}
	if e.Error() != "oops" {
		t.Fatalf("want 'oops' got %q", e.Error())
	}
	e2 := ErrorResponse{Message: "oops", ErrorDetails: "bad"}
	if e2.Error() != "oops: bad" {
		t.Fatalf("want 'oops: bad' got %q", e2.Error())
	}
}

func TestNewErrorResponse(t *testing.T) {
	// without inner error
	e := NewErrorResponse("msg", nil)
	if e.Message != "msg" || e.ErrorDetails != "" {
		t.Fatalf("unexpected %+v", e)
	}
	if e.Timestamp.IsZero() || time.Since(e.Timestamp) > time.Second {
		t.Fatalf("timestamp not set")
	}

	// with inner error
	err := errors.New("boom")
	e2 := NewErrorResponse("msg", err)
	if e2.ErrorDetails != "boom" || e2.Message != "msg" {
		t.Fatalf("unexpected %+v", e2)
	}
}

func TestNewInstrumentVersionResponse(t *testing.T) {
	to := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	v := models.InstrumentVersion{
		ISIN:       "XS0000000001",
		ChangeType: models.ChangeModified,
		ValidFrom:  time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		ValidTo:    &to,
	}
	r := NewInstrumentVersionResponse(v)
	if r.ValidFrom != "2025-01-02" || r.ValidTo == nil || *r.ValidTo != "2025-02-03" || r.ChangeType != "MODIFIED" {
		t.Fatalf("unexpected %+v", r)
	}

	v.ValidTo = nil
	if r := NewInstrumentVersionResponse(v); r.ValidTo != nil {
		t.Fatalf("open version should have no valid_to, got %v", *r.ValidTo)
	}
}

func TestNewIngestionResponse(t *testing.T) {
	start := time.Date(2025, 2, 3, 6, 0, 0, 0, time.UTC)
	l := models.FileLedger{
		FileName:   "DLTINS_20250204_01of01.zip",
		Status:     models.FileQuarantined,
		Source:     models.SourceFCA,
		ByKind:     map[string]int{models.KindUnknownCode: 3},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
	r := NewIngestionResponse(l)
	if r.Status != "quarantined" || r.Source != "FCA" || r.DurationMs != 1500 || r.ByKind[models.KindUnknownCode] != 3 {
		t.Fatalf("unexpected %+v", r)
	}
}

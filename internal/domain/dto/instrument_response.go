package dto

import (
	"time"

	"github.com/guttosm/firdspulse/internal/domain/models"
)

// InstrumentVersionResponse is one stored version of an instrument at a venue.
type InstrumentVersionResponse struct {
	ISIN             string    `json:"isin" example:"XS1234567890"`
	FullName         string    `json:"full_name" example:"Acme 5% 2030"`
	ShortName        string    `json:"short_name" example:"ACME/5 BD 20300101"`
	CFI              string    `json:"cfi" example:"DBFTFB"`
	InstrumentClass  string    `json:"instrument_class" example:"debt"`
	IssuerLEI        string    `json:"issuer_lei" example:"529900HNOAA1KXQJUQ27"`
	NotionalCurrency string    `json:"notional_currency" example:"EUR"`
	VenueID          string    `json:"venue_id" example:"XLON"`
	ChangeType       string    `json:"change_type" example:"NEW"`
	FileName         string    `json:"file_name" example:"FULINS_D_20250203_01of01.zip"`
	PublishedAt      time.Time `json:"published_at"`
	ValidFrom        string    `json:"valid_from" example:"2025-02-03"`
	ValidTo          *string   `json:"valid_to,omitempty" example:"2025-02-09"`
	Latest           bool      `json:"latest"`
}

// InstrumentResponse is returned by GET /api/v1/instruments/{isin}.
//
// Current holds the open version of every venue; History lists all versions,
// newest first.
type InstrumentResponse struct {
	ISIN    string                      `json:"isin" example:"XS1234567890"`
	Current []InstrumentVersionResponse `json:"current"`
	History []InstrumentVersionResponse `json:"history"`
}

// NewInstrumentVersionResponse maps a stored version to its API shape.
func NewInstrumentVersionResponse(v models.InstrumentVersion) InstrumentVersionResponse {
	out := InstrumentVersionResponse{
		ISIN:             v.ISIN,
		FullName:         v.FullName,
		ShortName:        v.ShortName,
		CFI:              v.CFI,
		InstrumentClass:  v.InstrumentClass,
		IssuerLEI:        v.IssuerLEI,
		NotionalCurrency: v.NotionalCurrency,
		VenueID:          v.VenueID,
		ChangeType:       string(v.ChangeType),
		FileName:         v.FileName,
		PublishedAt:      v.PublishedAt,
		ValidFrom:        v.ValidFrom.Format(time.DateOnly),
		Latest:           v.Latest,
	}
	if v.ValidTo != nil {
		s := v.ValidTo.Format(time.DateOnly)
		out.ValidTo = &s
	}
	return out
}

package models

import (
	"time"

	"github.com/guttosm/firdspulse/internal/enums"
)

// ReferenceData is one instrument record of a FIRDS file.
//
// Fields:
//   - ISIN: 12-character instrument identifier.
//   - FullName / ShortName: FullNm and ShrtNm (the FISN).
//   - CFI: 6-character classification code.
//   - CommodityDerivative: CmmdtyDerivInd.
//   - IssuerLEI: 20-character issuer LEI.
//   - NotionalCurrency: ISO 4217 code.
//   - TradingVenue: exactly one set of venue attributes.
//   - Technical: optional technical attributes.
//   - Attributes: nil, DebtAttributes or DerivativeAttributes.
//
// Build values with NewReferenceData so the invariants are checked.
type ReferenceData struct {
	ISIN                string
	FullName            string
	ShortName           string
	CFI                 string
	CommodityDerivative bool
	IssuerLEI           string
	NotionalCurrency    string
	TradingVenue        TradingVenueAttributes
	Technical           *TechnicalAttributes
	Attributes          InstrumentAttributes
}

// NewReferenceData validates rd and returns it unchanged on success.
func NewReferenceData(rd ReferenceData) (ReferenceData, error) {
	if err := rd.TradingVenue.validate(); err != nil {
		return ReferenceData{}, err
	}
	if rd.Technical != nil {
		if err := rd.Technical.validate(); err != nil {
			return ReferenceData{}, err
		}
	}
	return rd, nil
}

// Debt returns the debt attributes, if the record carries them.
func (r ReferenceData) Debt() (DebtAttributes, bool) {
	d, ok := r.Attributes.(DebtAttributes)
	return d, ok
}

// Derivative returns the derivative attributes, if the record carries them.
func (r ReferenceData) Derivative() (DerivativeAttributes, bool) {
	d, ok := r.Attributes.(DerivativeAttributes)
	return d, ok
}

// InstrumentAttributes is the debt-or-derivative variant of a record.
// Implemented by DebtAttributes and DerivativeAttributes only.
type InstrumentAttributes interface {
	InstrumentClass() enums.InstrumentClass
}

// NewInstrumentAttributes returns whichever branch is non-nil.
// Both set is an invariant violation; both nil yields (nil, nil).
func NewInstrumentAttributes(debt *DebtAttributes, deriv *DerivativeAttributes) (InstrumentAttributes, error) {
	switch {
	case debt != nil && deriv != nil:
		return nil, invariant("instrument_attributes", "both debt and derivative attributes present")
	case debt != nil:
		return *debt, nil
	case deriv != nil:
		return *deriv, nil
	default:
		return nil, nil
	}
}

// TradingVenueAttributes holds TradgVnRltdAttrbts.
type TradingVenueAttributes struct {
	VenueID         string
	IssuerRequested bool
	ApprovalDate    *time.Time
	RequestDate     *time.Time
	AdmissionDate   *time.Time // admission to trading or first trade date
	TerminationDate *time.Time
}

func (t TradingVenueAttributes) validate() error {
	if t.TerminationDate != nil && t.AdmissionDate != nil && t.TerminationDate.Before(*t.AdmissionDate) {
		return invariant("trading_venue_dates", "termination %s before admission %s",
			t.TerminationDate.Format(time.DateOnly), t.AdmissionDate.Format(time.DateOnly))
	}
	return nil
}

// TechnicalAttributes holds TechAttrbts.
type TechnicalAttributes struct {
	CompetentAuthority   string
	PublicationPeriod    *PublicationPeriod
	RelevantTradingVenue string
}

// PublicationPeriod is FrDt or FrDtToDt.
type PublicationPeriod struct {
	From time.Time
	To   *time.Time
}

func (t TechnicalAttributes) validate() error {
	if p := t.PublicationPeriod; p != nil && p.To != nil && p.To.Before(p.From) {
		return invariant("publication_period", "to %s before from %s",
			p.To.Format(time.DateOnly), p.From.Format(time.DateOnly))
	}
	return nil
}

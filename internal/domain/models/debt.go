package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/firdspulse/internal/enums"
)

// DebtAttributes holds DebtInstrmAttrbts.
type DebtAttributes struct {
	TotalIssuedAmount   decimal.Decimal
	MaturityDate        *time.Time
	NominalCurrency     string
	NominalValuePerUnit decimal.Decimal
	InterestRate        InterestRate
	Seniority           string // empty when not reported
}

func (DebtAttributes) InstrumentClass() enums.InstrumentClass { return enums.ClassDebt }

// NewDebtAttributes rejects a debt record without an interest rate.
func NewDebtAttributes(d DebtAttributes) (DebtAttributes, error) {
	if d.InterestRate == nil {
		return DebtAttributes{}, invariant("interest_rate", "debt attributes require an interest rate")
	}
	return d, nil
}

// InterestRate is either FixedRate or FloatingInterestRate.
type InterestRate interface {
	isInterestRate()
}

// FixedRate is a fixed coupon, as a decimal (0.05 means 5%).
type FixedRate struct {
	Rate decimal.Decimal
}

// FloatingInterestRate references a benchmark with an optional spread in basis points.
type FloatingInterestRate struct {
	Reference FloatingRate
	SpreadBps *int
}

func (FixedRate) isInterestRate()            {}
func (FloatingInterestRate) isInterestRate() {}

// NewInterestRate builds the variant from raw optional inputs.
// Exactly one of fixed and floating must be given.
func NewInterestRate(fixed *decimal.Decimal, floating *FloatingRate, spreadBps *int) (InterestRate, error) {
	switch {
	case fixed != nil && floating != nil:
		return nil, invariant("interest_rate", "both fixed and floating present")
	case fixed == nil && floating == nil:
		return nil, invariant("interest_rate", "neither fixed nor floating present")
	case fixed != nil:
		if spreadBps != nil {
			return nil, invariant("interest_rate", "spread given for a fixed rate")
		}
		return FixedRate{Rate: *fixed}, nil
	default:
		return FloatingInterestRate{Reference: *floating, SpreadBps: spreadBps}, nil
	}
}

// FloatingRate is a reference rate with an optional term.
type FloatingRate struct {
	Reference RateReference // nil when the feed names no reference
	Term      *Term
}

// Term is a tenor such as 3 MNTH.
type Term struct {
	Number int
	Unit   string
}

// RateReference is RateIndex, RateName or RateISIN.
type RateReference interface {
	isRateReference()
}

// RateIndex is a registered benchmark code (Indx).
type RateIndex struct{ Code string }

// RateName is a free-text benchmark name (Nm).
type RateName struct{ Name string }

// RateISIN identifies the benchmark by ISIN.
type RateISIN struct{ ISIN string }

func (RateIndex) isRateReference() {}
func (RateName) isRateReference()  {}
func (RateISIN) isRateReference()  {}

// NewRateReference picks the single non-empty reference.
// All empty yields (nil, nil).
func NewRateReference(isin, indexCode, name string) (RateReference, error) {
	var out []RateReference
	if isin != "" {
		out = append(out, RateISIN{ISIN: isin})
	}
	if indexCode != "" {
		out = append(out, RateIndex{Code: indexCode})
	}
	if name != "" {
		out = append(out, RateName{Name: name})
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	default:
		return nil, invariant("rate_reference", "%d of isin/index/name present", len(out))
	}
}

package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/firdspulse/internal/enums"
)

// DerivativeAttributes holds DerivInstrmAttrbts. Every field is optional.
type DerivativeAttributes struct {
	ExpiryDate          *time.Time
	PriceMultiplier     *decimal.Decimal
	Underlying          Underlying
	OptionType          string
	OptionExerciseStyle string
	DeliveryType        string
	StrikePrice         *StrikePrice
	AssetClass          AssetClassAttributes
}

func (DerivativeAttributes) InstrumentClass() enums.InstrumentClass { return enums.ClassDerivative }

// ─── Underlying ─────────────────────────────────────────

// Underlying is SingleISIN, SingleIndex, SingleIssuer or Basket.
type Underlying interface {
	isUnderlying()
}

// SingleISIN is an underlying identified by one instrument ISIN.
type SingleISIN struct{ ISIN string }

// SingleIndex is an underlying index or benchmark rate.
type SingleIndex struct{ Index UnderlyingIndex }

// SingleIssuer is an underlying identified by its issuer LEI.
type SingleIssuer struct{ LEI string }

// Basket lists the ISINs and issuer LEIs of a basket underlying.
type Basket struct {
	ISINs      []string
	IssuerLEIs []string
}

// UnderlyingIndex is an index underlying: an optional ISIN and the rate it tracks.
type UnderlyingIndex struct {
	ISIN string
	Rate *FloatingRate
}

func (SingleISIN) isUnderlying()   {}
func (SingleIndex) isUnderlying()  {}
func (SingleIssuer) isUnderlying() {}
func (Basket) isUnderlying()       {}

// NewSingleUnderlying requires exactly one of isin, index and lei.
func NewSingleUnderlying(isin string, index *UnderlyingIndex, lei string) (Underlying, error) {
	var out []Underlying
	if isin != "" {
		out = append(out, SingleISIN{ISIN: isin})
	}
	if index != nil {
		out = append(out, SingleIndex{Index: *index})
	}
	if lei != "" {
		out = append(out, SingleIssuer{LEI: lei})
	}
	if len(out) != 1 {
		return nil, invariant("underlying_single", "%d of isin/index/issuer present", len(out))
	}
	return out[0], nil
}

// NewBasket copies the identifiers; an empty basket is rejected.
func NewBasket(isins, leis []string) (Underlying, error) {
	if len(isins) == 0 && len(leis) == 0 {
		return nil, invariant("underlying_basket", "empty basket")
	}
	return Basket{
		ISINs:      append([]string(nil), isins...),
		IssuerLEIs: append([]string(nil), leis...),
	}, nil
}

// ─── Strike price ───────────────────────────────────────

// PriceValue is the price-type variant of a strike price. PriceType returns
// the strike_price_type registry code.
type PriceValue interface {
	PriceType() string
}

// MonetaryValue is a strike given as an amount, optionally in a currency.
type MonetaryValue struct {
	Amount   decimal.Decimal
	Currency string
}

// Percentage is a strike given as a percentage.
type Percentage struct{ Value decimal.Decimal }

// Yield is a strike given as a yield.
type Yield struct{ Value decimal.Decimal }

// BasisPoints is a strike given in basis points.
type BasisPoints struct{ Value decimal.Decimal }

// NoPrice is reported when the strike is not yet known.
type NoPrice struct{ Currency string }

func (MonetaryValue) PriceType() string { return "MONETARY_VALUE" }
func (Percentage) PriceType() string    { return "PERCENTAGE" }
func (Yield) PriceType() string         { return "YIELD" }
func (BasisPoints) PriceType() string   { return "BASIS_POINTS" }
func (NoPrice) PriceType() string       { return "NO_PRICE" }

// StrikePrice is a price variant plus the pending flag.
type StrikePrice struct {
	Price   PriceValue
	Pending bool
}

// NewStrikePrice requires a price and only allows Pending together with NoPrice.
func NewStrikePrice(p PriceValue, pending bool) (StrikePrice, error) {
	if p == nil {
		return StrikePrice{}, invariant("strike_price", "no price variant present")
	}
	if _, none := p.(NoPrice); pending && !none {
		return StrikePrice{}, invariant("strike_price", "pending flag on %s", p.PriceType())
	}
	return StrikePrice{Price: p, Pending: pending}, nil
}

// ─── Asset class ────────────────────────────────────────

// AssetClassAttributes is CommodityAttributes, InterestRateAttributes or FxAttributes.
type AssetClassAttributes interface {
	AssetClass() enums.AssetClass
}

// CommodityAttributes holds Cmmdty. Empty strings mean not reported.
type CommodityAttributes struct {
	BaseProduct       string
	SubProduct        string
	FurtherSubProduct string
	TransactionType   string
	FinalPriceType    string
}

// InterestRateAttributes holds Intrst.
type InterestRateAttributes struct {
	ReferenceRate         FloatingRate
	FirstLegRate          InterestRate
	OtherLegRate          InterestRate
	OtherNotionalCurrency string
}

// FxAttributes holds FX.
type FxAttributes struct {
	OtherNotionalCurrency string
	FxType                string
}

func (CommodityAttributes) AssetClass() enums.AssetClass    { return enums.AssetCommodity }
func (InterestRateAttributes) AssetClass() enums.AssetClass { return enums.AssetInterestRate }
func (FxAttributes) AssetClass() enums.AssetClass           { return enums.AssetFX }

// NewCommodityAttributes checks every code against r and the base/sub/further nesting.
func NewCommodityAttributes(r *enums.Registry, c CommodityAttributes) (CommodityAttributes, error) {
	if err := r.ValidateProduct(c.BaseProduct, c.SubProduct, c.FurtherSubProduct); err != nil {
		var te *enums.TaxonomyError
		if errors.As(err, &te) {
			return CommodityAttributes{}, &InvariantError{Which: "product_taxonomy", Detail: te.Error()}
		}
		return CommodityAttributes{}, err
	}
	if c.TransactionType != "" {
		if _, err := r.Lookup(enums.TableTransactionType, c.TransactionType); err != nil {
			return CommodityAttributes{}, err
		}
	}
	if c.FinalPriceType != "" {
		if _, err := r.Lookup(enums.TableFinalPriceType, c.FinalPriceType); err != nil {
			return CommodityAttributes{}, err
		}
	}
	return c, nil
}

// NewAssetClassAttributes returns the single non-nil branch; nil when none is set.
func NewAssetClassAttributes(c *CommodityAttributes, ir *InterestRateAttributes, fx *FxAttributes) (AssetClassAttributes, error) {
	var out []AssetClassAttributes
	if c != nil {
		out = append(out, *c)
	}
	if ir != nil {
		out = append(out, *ir)
	}
	if fx != nil {
		out = append(out, *fx)
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	default:
		return nil, invariant("asset_class_specific_attributes", "%d branches present", len(out))
	}
}

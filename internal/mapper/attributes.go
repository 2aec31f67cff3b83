package mapper

import (
	"errors"
	"fmt"

	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/enums"
)

// ─── Debt ───────────────────────────────────────────────

func (m *Mapper) debt(el *element) (models.DebtAttributes, error) {
	var d models.DebtAttributes

	amt := el.child("TtlIssdNmnlAmt")
	if amt == nil || amt.text == "" {
		return d, missing("DebtInstrmAttrbts", "TtlIssdNmnlAmt")
	}
	var err error
	if d.TotalIssuedAmount, err = parseDecimal("TtlIssdNmnlAmt", amt.text); err != nil {
		return d, err
	}
	d.NominalCurrency = amt.attr("Ccy")
	if d.NominalCurrency == "" {
		return d, missing("TtlIssdNmnlAmt", "@Ccy")
	}
	if err := checkShape("TtlIssdNmnlAmt/@Ccy", d.NominalCurrency, currencyPattern); err != nil {
		return d, err
	}
	if d.MaturityDate, err = parseOptionalDate("MtrtyDt", el.textAt("MtrtyDt")); err != nil {
		return d, err
	}
	nominal := el.textAt("NmnlValPerUnit")
	if nominal == "" {
		return d, missing("DebtInstrmAttrbts", "NmnlValPerUnit")
	}
	if d.NominalValuePerUnit, err = parseDecimal("NmnlValPerUnit", nominal); err != nil {
		return d, err
	}
	ir := el.child("IntrstRate")
	if ir == nil {
		return d, missing("DebtInstrmAttrbts", "IntrstRate")
	}
	if d.InterestRate, err = m.interestRate(ir); err != nil {
		return d, err
	}
	if d.Seniority, err = m.optionalCode(enums.TableDebtSeniority, el.textAt("DebtSnrty")); err != nil {
		return d, err
	}
	return models.NewDebtAttributes(d)
}

// interestRate decodes an element holding Fxd and/or Fltg.
func (m *Mapper) interestRate(el *element) (models.InterestRate, error) {
	fixed, err := parseOptionalDecimal("Fxd", el.textAt("Fxd"))
	if err != nil {
		return nil, err
	}
	var floating *models.FloatingRate
	var spread *int
	if fl := el.child("Fltg"); fl != nil {
		fr, err := m.floatingRate(fl)
		if err != nil {
			return nil, err
		}
		floating = &fr
		if s := fl.textAt("BsisPtSprd"); s != "" {
			n, err := parseInt("BsisPtSprd", s)
			if err != nil {
				return nil, err
			}
			spread = &n
		}
	}
	return models.NewInterestRate(fixed, floating, spread)
}

// floatingRate decodes an element holding RefRate and Term.
func (m *Mapper) floatingRate(el *element) (models.FloatingRate, error) {
	var fr models.FloatingRate
	if ref := el.child("RefRate"); ref != nil {
		isin := ref.textAt("ISIN")
		if isin != "" {
			if err := checkShape("RefRate/ISIN", isin, isinPattern); err != nil {
				return fr, err
			}
		}
		idx, err := m.optionalCode(enums.TableIndexCode, ref.textAt("Indx"))
		if err != nil {
			return fr, err
		}
		if fr.Reference, err = models.NewRateReference(isin, idx, ref.textAt("Nm")); err != nil {
			return fr, err
		}
	}
	if term := el.child("Term"); term != nil {
		val, unit := term.textAt("Val"), term.textAt("Unit")
		if val == "" {
			return fr, missing("Term", "Val")
		}
		if unit == "" {
			return fr, missing("Term", "Unit")
		}
		n, err := parseCount("Term/Val", val)
		if err != nil {
			return fr, err
		}
		if _, err := m.code(enums.TableTermUnit, unit); err != nil {
			return fr, err
		}
		fr.Term = &models.Term{Number: n, Unit: unit}
	}
	return fr, nil
}

// ─── Derivative ─────────────────────────────────────────

func (m *Mapper) derivative(el *element, cfi string) (models.DerivativeAttributes, error) {
	var d models.DerivativeAttributes
	var err error

	if d.ExpiryDate, err = parseOptionalDate("XpryDt", el.textAt("XpryDt")); err != nil {
		return d, err
	}
	if d.PriceMultiplier, err = parseOptionalDecimal("PricMltplr", el.textAt("PricMltplr")); err != nil {
		return d, err
	}
	if u := el.child("UndrlygInstrm"); u != nil {
		if d.Underlying, err = m.underlying(u); err != nil {
			return d, err
		}
	}
	if d.OptionType, err = m.optionalCode(enums.TableOptionType, el.textAt("OptnTp")); err != nil {
		return d, err
	}
	if d.OptionExerciseStyle, err = m.optionalCode(enums.TableOptionExerciseStyle, el.textAt("OptnExrcStyle")); err != nil {
		return d, err
	}
	if d.DeliveryType, err = m.optionalCode(enums.TableDeliveryType, el.textAt("DlvryTp")); err != nil {
		return d, err
	}
	if sp := el.child("StrkPric"); sp != nil {
		p, err := m.strikePrice(sp)
		if err != nil {
			return d, err
		}
		d.StrikePrice = &p
	}
	if ac := el.child("AsstClssSpcfcAttrbts"); ac != nil {
		if d.AssetClass, err = m.assetClass(ac, cfi); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (m *Mapper) underlying(el *element) (models.Underlying, error) {
	single, basket := el.child("Sngl"), el.child("Bskt")
	switch {
	case single != nil && basket != nil:
		return nil, &MappingError{Kind: InvariantViolation, Field: "underlying", Err: errors.New("both single and basket present")}
	case basket != nil:
		return m.basket(basket)
	case single != nil:
		return m.single(single)
	default:
		return nil, missing("UndrlygInstrm", "Sngl|Bskt")
	}
}

func (m *Mapper) single(el *element) (models.Underlying, error) {
	isin, lei := el.textAt("ISIN"), el.textAt("LEI")
	if isin != "" {
		if err := checkShape("Sngl/ISIN", isin, isinPattern); err != nil {
			return nil, err
		}
	}
	if lei != "" {
		if err := checkShape("Sngl/LEI", lei, leiPattern); err != nil {
			return nil, err
		}
	}
	var index *models.UnderlyingIndex
	if ix := el.child("Indx"); ix != nil {
		index = &models.UnderlyingIndex{ISIN: ix.textAt("ISIN")}
		if index.ISIN != "" {
			if err := checkShape("Indx/ISIN", index.ISIN, isinPattern); err != nil {
				return nil, err
			}
		}
		if nm := ix.child("Nm"); nm != nil {
			fr, err := m.floatingRate(nm)
			if err != nil {
				return nil, err
			}
			index.Rate = &fr
		}
	}
	return models.NewSingleUnderlying(isin, index, lei)
}

func (m *Mapper) basket(el *element) (models.Underlying, error) {
	var isins, leis []string
	for _, c := range el.all("ISIN") {
		if err := checkShape("Bskt/ISIN", c.text, isinPattern); err != nil {
			return nil, err
		}
		isins = append(isins, c.text)
	}
	for _, c := range el.all("LEI") {
		if err := checkShape("Bskt/LEI", c.text, leiPattern); err != nil {
			return nil, err
		}
		leis = append(leis, c.text)
	}
	return models.NewBasket(isins, leis)
}

func (m *Mapper) strikePrice(el *element) (models.StrikePrice, error) {
	pric, noPric := el.child("Pric"), el.child("NoPric")
	if pric != nil && noPric != nil {
		return models.StrikePrice{}, &MappingError{Kind: InvariantViolation, Field: "strike_price", Err: errors.New("both Pric and NoPric present")}
	}

	var price models.PriceValue
	pending := false
	switch {
	case noPric != nil:
		switch pdg := noPric.textAt("Pdg"); pdg {
		case "PNDG":
			pending = true
		case "":
		default:
			return models.StrikePrice{}, invalid("NoPric/Pdg", fmt.Errorf("unexpected value %q", pdg))
		}
		np := models.NoPrice{Currency: noPric.textAt("Ccy")}
		if np.Currency != "" {
			if err := checkShape("NoPric/Ccy", np.Currency, currencyPattern); err != nil {
				return models.StrikePrice{}, err
			}
		}
		price = np
	case pric != nil:
		var variants []models.PriceValue
		if mv := pric.child("MntryVal"); mv != nil {
			amt := mv.child("Amt")
			if amt == nil || amt.text == "" {
				return models.StrikePrice{}, missing("MntryVal", "Amt")
			}
			v, err := parseDecimal("MntryVal/Amt", amt.text)
			if err != nil {
				return models.StrikePrice{}, err
			}
			ccy := mv.textAt("Ccy")
			if ccy == "" {
				ccy = amt.attr("Ccy")
			}
			variants = append(variants, models.MonetaryValue{Amount: v, Currency: ccy})
		}
		for _, name := range []string{"Pctg", "Yld", "BsisPts"} {
			s := pric.textAt(name)
			if s == "" {
				continue
			}
			v, err := parseDecimal(name, s)
			if err != nil {
				return models.StrikePrice{}, err
			}
			switch name {
			case "Pctg":
				variants = append(variants, models.Percentage{Value: v})
			case "Yld":
				variants = append(variants, models.Yield{Value: v})
			case "BsisPts":
				variants = append(variants, models.BasisPoints{Value: v})
			}
		}
		if len(variants) != 1 {
			return models.StrikePrice{}, &MappingError{Kind: InvariantViolation, Field: "strike_price",
				Err: fmt.Errorf("%d price variants present", len(variants))}
		}
		price = variants[0]
	default:
		return models.StrikePrice{}, missing("StrkPric", "Pric|NoPric")
	}

	if _, err := m.code(enums.TableStrikePriceType, price.PriceType()); err != nil {
		return models.StrikePrice{}, err
	}
	return models.NewStrikePrice(price, pending)
}

// ─── Asset class ────────────────────────────────────────

func (m *Mapper) assetClass(el *element, cfi string) (models.AssetClassAttributes, error) {
	var (
		cmdty *models.CommodityAttributes
		ir    *models.InterestRateAttributes
		fx    *models.FxAttributes
	)
	if c := el.child("Cmmdty"); c != nil {
		v, err := m.commodity(c)
		if err != nil {
			return nil, err
		}
		cmdty = &v
	}
	if c := el.child("Intrst"); c != nil {
		v, err := m.interestRateDerivative(c)
		if err != nil {
			return nil, err
		}
		ir = &v
	}
	if c := el.child("FX"); c != nil {
		v, err := m.fx(c)
		if err != nil {
			return nil, err
		}
		fx = &v
	}
	attrs, err := models.NewAssetClassAttributes(cmdty, ir, fx)
	if err != nil || attrs == nil {
		return attrs, err
	}

	want := enums.AssetClassOf(cfi)
	if want != enums.AssetUndetermined && attrs.AssetClass() != want {
		return nil, unexpected("AsstClssSpcfcAttrbts",
			fmt.Sprintf("%s attributes on a %s instrument (%s)", attrs.AssetClass(), want, cfi))
	}
	return attrs, nil
}

func (m *Mapper) commodity(el *element) (models.CommodityAttributes, error) {
	pdct := el.child("Pdct")
	if pdct == nil {
		return models.CommodityAttributes{}, missing("Cmmdty", "Pdct")
	}
	base := pdct.find("BasePdct")
	if base == nil || base.text == "" {
		return models.CommodityAttributes{}, missing("Pdct", "BasePdct")
	}
	c := models.CommodityAttributes{
		BaseProduct:     base.text,
		TransactionType: el.textAt("TxTp"),
		FinalPriceType:  el.textAt("FnlPricTp"),
	}
	if sub := pdct.find("SubPdct"); sub != nil {
		c.SubProduct = sub.text
	}
	if further := pdct.find("AddtlSubPdct"); further != nil {
		c.FurtherSubProduct = further.text
	}
	return models.NewCommodityAttributes(m.reg, c)
}

func (m *Mapper) interestRateDerivative(el *element) (models.InterestRateAttributes, error) {
	var a models.InterestRateAttributes
	ref := el.child("IntrstRate")
	if ref == nil {
		return a, missing("Intrst", "IntrstRate")
	}
	var err error
	if a.ReferenceRate, err = m.floatingRate(ref); err != nil {
		return a, err
	}
	if leg := el.child("FrstLegIntrstRate"); leg != nil {
		if a.FirstLegRate, err = m.interestRate(leg); err != nil {
			return a, err
		}
	}
	if leg := el.child("OthrLegIntrstRate"); leg != nil {
		if a.OtherLegRate, err = m.interestRate(leg); err != nil {
			return a, err
		}
	}
	if a.OtherNotionalCurrency = el.textAt("OthrNtnlCcy"); a.OtherNotionalCurrency != "" {
		if err := checkShape("OthrNtnlCcy", a.OtherNotionalCurrency, currencyPattern); err != nil {
			return a, err
		}
	}
	return a, nil
}

func (m *Mapper) fx(el *element) (models.FxAttributes, error) {
	a := models.FxAttributes{OtherNotionalCurrency: el.textAt("OthrNtnlCcy")}
	if a.OtherNotionalCurrency != "" {
		if err := checkShape("OthrNtnlCcy", a.OtherNotionalCurrency, currencyPattern); err != nil {
			return a, err
		}
	}
	var err error
	if a.FxType, err = m.optionalCode(enums.TableFxType, el.textAt("FxTp")); err != nil {
		return a, err
	}
	return a, nil
}

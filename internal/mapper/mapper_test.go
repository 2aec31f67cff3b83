package mapper

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/enums"
)

const (
	testLEI   = "529900HNOAA1KXQJUQ27"
	debtCFI   = "DBFTFB"
	cmdtyCFI  = "FCEPSX"
	swapCFI   = "SRCCSP"
	equityCFI = "ESVUFR"
)

// record renders one record element with the given CFI and extra attribute subtrees.
func record(elem, isin, cfi, extra string) string {
	return fmt.Sprintf(`<%[1]s>
  <FinInstrmGnlAttrbts>
    <Id>%[2]s</Id>
    <FullNm>Test instrument %[2]s</FullNm>
    <ShrtNm>TEST/%[2]s</ShrtNm>
    <ClssfctnTp>%[3]s</ClssfctnTp>
    <NtnlCcy>EUR</NtnlCcy>
    <CmmdtyDerivInd>false</CmmdtyDerivInd>
  </FinInstrmGnlAttrbts>
  <Issr>%[4]s</Issr>
  <TradgVnRltdAttrbts>
    <Id>XLON</Id>
    <IssrReq>false</IssrReq>
    <FrstTradDt>2024-01-02T00:00:00Z</FrstTradDt>
    <TermntnDt>2030-01-01T23:59:59Z</TermntnDt>
  </TradgVnRltdAttrbts>
  <TechAttrbts>
    <RlvntCmptntAuthrty>GB</RlvntCmptntAuthrty>
    <PblctnPrd><FrDt>2024-01-03</FrDt></PblctnPrd>
    <RlvntTradgVn>XLON</RlvntTradgVn>
  </TechAttrbts>
  %[5]s
</%[1]s>`, elem, isin, cfi, testLEI, extra)
}

func document(records ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<BizData><Pyld><Document><FinInstrmRptgRefDataRpt>` + strings.Join(records, "\n") +
		`</FinInstrmRptgRefDataRpt></Document></Pyld></BizData>`
}

const fixedDebt = `<DebtInstrmAttrbts>
  <TtlIssdNmnlAmt Ccy="EUR">1000000</TtlIssdNmnlAmt>
  <MtrtyDt>2030-01-01</MtrtyDt>
  <NmnlValPerUnit Ccy="EUR">1000</NmnlValPerUnit>
  <IntrstRate><Fxd>0.05</Fxd></IntrstRate>
  <DebtSnrty>SNDB</DebtSnrty>
</DebtInstrmAttrbts>`

const nrgyElec = `<DerivInstrmAttrbts>
  <XpryDt>2026-12-31</XpryDt>
  <PricMltplr>1</PricMltplr>
  <DlvryTp>PHYS</DlvryTp>
  <AsstClssSpcfcAttrbts>
    <Cmmdty>
      <Pdct><Nrgy><Elec><BasePdct>NRGY</BasePdct><SubPdct>ELEC</SubPdct></Elec></Nrgy></Pdct>
      <TxTp>FUTR</TxTp>
      <FnlPricTp>EXOF</FnlPricTp>
    </Cmmdty>
  </AsstClssSpcfcAttrbts>
</DerivInstrmAttrbts>`

func mapAll(t *testing.T, doc string) []Result {
	t.Helper()
	var out []Result
	for r := range New(enums.Default()).Records(strings.NewReader(doc)) {
		out = append(out, r)
	}
	return out
}

func requireKind(t *testing.T, err error, kind Kind) *MappingError {
	t.Helper()
	var me *MappingError
	require.True(t, errors.As(err, &me), "want *MappingError, got %v", err)
	require.Equal(t, kind, me.Kind, "error: %v", err)
	return me
}

func TestRecords_FixedRateDebt(t *testing.T) {
	res := mapAll(t, document(record(ElemRefData, "XS1234567890", debtCFI, fixedDebt)))
	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)

	rec := res[0].Record
	assert.Equal(t, "XS1234567890", rec.ISIN)
	assert.Equal(t, ElemRefData, res[0].Element)

	debt, ok := rec.Debt()
	require.True(t, ok)
	assert.True(t, debt.TotalIssuedAmount.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), *debt.MaturityDate)
	assert.Equal(t, "EUR", debt.NominalCurrency)
	assert.True(t, debt.NominalValuePerUnit.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "SNDB", debt.Seniority)

	fixed, ok := debt.InterestRate.(models.FixedRate)
	require.True(t, ok, "want fixed rate, got %T", debt.InterestRate)
	assert.True(t, fixed.Rate.Equal(decimal.RequireFromString("0.05")))

	_, isDeriv := rec.Derivative()
	assert.False(t, isDeriv)

	assert.Equal(t, "XLON", rec.TradingVenue.VenueID)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), *rec.TradingVenue.AdmissionDate)
	require.NotNil(t, rec.Technical)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), rec.Technical.PublicationPeriod.From)
}

func TestRecords_CommodityWithoutFurtherSubProduct(t *testing.T) {
	res := mapAll(t, document(record(ElemNewRecord, "DE000A0TGJ55", cmdtyCFI, nrgyElec)))
	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)

	deriv, ok := res[0].Record.Derivative()
	require.True(t, ok)
	c, ok := deriv.AssetClass.(models.CommodityAttributes)
	require.True(t, ok)
	assert.Equal(t, "NRGY", c.BaseProduct)
	assert.Equal(t, "ELEC", c.SubProduct)
	assert.Empty(t, c.FurtherSubProduct)
	assert.Equal(t, "FUTR", c.TransactionType)
	assert.Equal(t, "PHYS", deriv.DeliveryType)
}

func TestRecords_FloatingRate(t *testing.T) {
	floating := `<DebtInstrmAttrbts>
  <TtlIssdNmnlAmt Ccy="EUR">500000</TtlIssdNmnlAmt>
  <NmnlValPerUnit>100</NmnlValPerUnit>
  <IntrstRate><Fltg>
    <RefRate><Indx>EURI</Indx></RefRate>
    <Term><Unit>MNTH</Unit><Val>3</Val></Term>
    <BsisPtSprd>75</BsisPtSprd>
  </Fltg></IntrstRate>
</DebtInstrmAttrbts>`
	res := mapAll(t, document(record(ElemRefData, "XS1234567890", debtCFI, floating)))
	require.NoError(t, res[0].Err)

	debt, _ := res[0].Record.Debt()
	fl, ok := debt.InterestRate.(models.FloatingInterestRate)
	require.True(t, ok)
	assert.Equal(t, models.RateIndex{Code: "EURI"}, fl.Reference.Reference)
	assert.Equal(t, &models.Term{Number: 3, Unit: "MNTH"}, fl.Reference.Term)
	assert.Equal(t, 75, *fl.SpreadBps)
	assert.Nil(t, debt.MaturityDate)
}

func TestRecords_FloatingRateSigns(t *testing.T) {
	floating := func(term, spread string) string {
		return `<DebtInstrmAttrbts>
  <TtlIssdNmnlAmt Ccy="EUR">500000</TtlIssdNmnlAmt>
  <NmnlValPerUnit>100</NmnlValPerUnit>
  <IntrstRate><Fltg>
    <RefRate><Indx>EURI</Indx></RefRate>
    <Term><Unit>MNTH</Unit><Val>` + term + `</Val></Term>
    <BsisPtSprd>` + spread + `</BsisPtSprd>
  </Fltg></IntrstRate>
</DebtInstrmAttrbts>`
	}

	t.Run("negative spread", func(t *testing.T) {
		res := mapAll(t, document(record(ElemRefData, "XS1234567890", debtCFI, floating("6", "-25"))))
		require.NoError(t, res[0].Err)
		debt, _ := res[0].Record.Debt()
		fl := debt.InterestRate.(models.FloatingInterestRate)
		assert.Equal(t, -25, *fl.SpreadBps)
	})
	for _, term := range []string{"-3", "+3"} {
		t.Run("signed term "+term, func(t *testing.T) {
			res := mapAll(t, document(record(ElemRefData, "XS1234567890", debtCFI, floating(term, "75"))))
			me := requireKind(t, res[0].Err, InvalidValue)
			assert.Equal(t, "Term/Val", me.Field)
		})
	}
}

func TestRecords_InterestRateExclusivity(t *testing.T) {
	both := strings.Replace(fixedDebt, "<Fxd>0.05</Fxd>",
		"<Fxd>0.05</Fxd><Fltg><RefRate><Nm>SONIA</Nm></RefRate></Fltg>", 1)
	neither := strings.Replace(fixedDebt, "<Fxd>0.05</Fxd>", "", 1)

	for name, body := range map[string]string{"both": both, "neither": neither} {
		t.Run(name, func(t *testing.T) {
			res := mapAll(t, document(record(ElemRefData, "XS1234567890", debtCFI, body)))
			require.Len(t, res, 1)
			me := requireKind(t, res[0].Err, InvariantViolation)
			assert.Equal(t, "interest_rate", me.Field)
			assert.Equal(t, "XS1234567890", me.ISIN)
			assert.Equal(t, 1, me.Ordinal)
		})
	}
}

func underlyingDeriv(single string) string {
	return `<DerivInstrmAttrbts><UndrlygInstrm><Sngl>` + single + `</Sngl></UndrlygInstrm></DerivInstrmAttrbts>`
}

func TestRecords_SingleUnderlying(t *testing.T) {
	tests := []struct {
		name    string
		single  string
		want    models.Underlying
		wantErr bool
	}{
		{name: "isin", single: "<ISIN>US0378331005</ISIN>", want: models.SingleISIN{ISIN: "US0378331005"}},
		{name: "lei", single: "<LEI>" + testLEI + "</LEI>", want: models.SingleIssuer{LEI: testLEI}},
		{
			name:   "index",
			single: "<Indx><Nm><RefRate><Nm>FTSE 100</Nm></RefRate></Nm></Indx>",
			want: models.SingleIndex{Index: models.UnderlyingIndex{
				Rate: &models.FloatingRate{Reference: models.RateName{Name: "FTSE 100"}},
			}},
		},
		{name: "isin and lei", single: "<ISIN>US0378331005</ISIN><LEI>" + testLEI + "</LEI>", wantErr: true},
		{name: "isin and index", single: "<ISIN>US0378331005</ISIN><Indx><ISIN>GB0001383545</ISIN></Indx>", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mapAll(t, document(record(ElemRefData, "DE000A0TGJ55", "OCASPS", underlyingDeriv(tt.single))))
			require.Len(t, res, 1)
			if tt.wantErr {
				me := requireKind(t, res[0].Err, InvariantViolation)
				assert.Equal(t, "underlying_single", me.Field)
				return
			}
			require.NoError(t, res[0].Err)
			deriv, _ := res[0].Record.Derivative()
			assert.Equal(t, tt.want, deriv.Underlying)
		})
	}
}

func TestRecords_Basket(t *testing.T) {
	body := `<DerivInstrmAttrbts><UndrlygInstrm><Bskt>
  <ISIN>US0378331005</ISIN><ISIN>US5949181045</ISIN><LEI>` + testLEI + `</LEI>
</Bskt></UndrlygInstrm></DerivInstrmAttrbts>`
	res := mapAll(t, document(record(ElemRefData, "DE000A0TGJ55", "OCASPS", body)))
	require.NoError(t, res[0].Err)
	deriv, _ := res[0].Record.Derivative()
	assert.Equal(t, models.Basket{
		ISINs:      []string{"US0378331005", "US5949181045"},
		IssuerLEIs: []string{testLEI},
	}, deriv.Underlying)
}

func TestRecords_UnknownCodeIsolatedToRecord(t *testing.T) {
	badSeniority := strings.Replace(fixedDebt, "SNDB", "XXXX", 1)
	doc := document(
		record(ElemRefData, "XS1234567890", debtCFI, fixedDebt),
		record(ElemRefData, "XS0000000001", "ZBFTFB", ""),
		record(ElemRefData, "XS0000000002", debtCFI, badSeniority),
		record(ElemRefData, "XS1234567899", debtCFI, fixedDebt),
	)
	res := mapAll(t, doc)
	require.Len(t, res, 4)

	assert.NoError(t, res[0].Err)
	me := requireKind(t, res[1].Err, UnknownCode)
	assert.Equal(t, enums.TableCFICategory, me.Table)
	assert.Equal(t, "Z", me.Code)
	me = requireKind(t, res[2].Err, UnknownCode)
	assert.Equal(t, enums.TableDebtSeniority, me.Table)
	assert.Equal(t, "XS0000000002", me.ISIN)
	assert.NoError(t, res[3].Err)
	assert.Equal(t, "XS1234567899", res[3].Record.ISIN)
	assert.Equal(t, 4, res[3].Ordinal)
}

func TestRecords_MissingField(t *testing.T) {
	rec := record(ElemRefData, "XS1234567890", debtCFI, fixedDebt)
	noName := strings.Replace(rec, "<FullNm>Test instrument XS1234567890</FullNm>", "", 1)
	noIssuer := strings.Replace(rec, "<Issr>"+testLEI+"</Issr>", "", 1)

	res := mapAll(t, document(noName, noIssuer, rec))
	require.Len(t, res, 3)
	me := requireKind(t, res[0].Err, MissingField)
	assert.Equal(t, "FinInstrmGnlAttrbts/FullNm", me.Field)
	me = requireKind(t, res[1].Err, MissingField)
	assert.Equal(t, "Issr", me.Field)
	assert.NoError(t, res[2].Err)
}

func TestRecords_InvalidValues(t *testing.T) {
	tests := map[string]struct {
		from, to, field string
	}{
		"grouped amount": {from: ">1000000<", to: ">1,000,000<", field: "TtlIssdNmnlAmt"},
		"exponent rate":  {from: "<Fxd>0.05</Fxd>", to: "<Fxd>5e-2</Fxd>", field: "Fxd"},
		"bad maturity":   {from: "<MtrtyDt>2030-01-01</MtrtyDt>", to: "<MtrtyDt>01/01/2030</MtrtyDt>", field: "MtrtyDt"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			body := strings.Replace(fixedDebt, tt.from, tt.to, 1)
			res := mapAll(t, document(record(ElemRefData, "XS1234567890", debtCFI, body)))
			me := requireKind(t, res[0].Err, InvalidValue)
			assert.Equal(t, tt.field, me.Field)
		})
	}
}

func TestRecords_UnexpectedAttributes(t *testing.T) {
	t.Run("debt subtree on derivative", func(t *testing.T) {
		res := mapAll(t, document(record(ElemRefData, "XS1234567890", swapCFI, fixedDebt)))
		me := requireKind(t, res[0].Err, UnexpectedAttributes)
		assert.Equal(t, "DebtInstrmAttrbts", me.Field)
	})
	t.Run("derivative subtree on debt", func(t *testing.T) {
		res := mapAll(t, document(record(ElemRefData, "XS1234567890", debtCFI, nrgyElec)))
		requireKind(t, res[0].Err, UnexpectedAttributes)
	})
	t.Run("fx branch on commodity future", func(t *testing.T) {
		fx := `<DerivInstrmAttrbts><AsstClssSpcfcAttrbts><FX><FxTp>FXMJ</FxTp></FX></AsstClssSpcfcAttrbts></DerivInstrmAttrbts>`
		res := mapAll(t, document(record(ElemRefData, "XS1234567890", cmdtyCFI, fx)))
		requireKind(t, res[0].Err, UnexpectedAttributes)
	})
	t.Run("derivative subtree on equity is allowed", func(t *testing.T) {
		res := mapAll(t, document(record(ElemRefData, "XS1234567890", equityCFI, underlyingDeriv("<ISIN>US0378331005</ISIN>"))))
		assert.NoError(t, res[0].Err)
	})
	t.Run("both subtrees", func(t *testing.T) {
		res := mapAll(t, document(record(ElemRefData, "XS1234567890", debtCFI, fixedDebt+nrgyElec)))
		me := requireKind(t, res[0].Err, InvariantViolation)
		assert.Equal(t, "instrument_attributes", me.Field)
		assert.ErrorIs(t, res[0].Err, models.ErrInvariant)
	})
}

func TestRecords_AssetClassExclusivity(t *testing.T) {
	body := `<DerivInstrmAttrbts><AsstClssSpcfcAttrbts>
  <Cmmdty><Pdct><Metl><BasePdct>METL</BasePdct><SubPdct>PRME</SubPdct><AddtlSubPdct>GOLD</AddtlSubPdct></Metl></Pdct></Cmmdty>
  <FX><FxTp>FXMJ</FxTp></FX>
</AsstClssSpcfcAttrbts></DerivInstrmAttrbts>`
	res := mapAll(t, document(record(ElemRefData, "XS1234567890", "FFSCSX", body)))
	me := requireKind(t, res[0].Err, InvariantViolation)
	assert.Equal(t, "asset_class_specific_attributes", me.Field)
}

func TestRecords_TaxonomyMismatch(t *testing.T) {
	body := strings.Replace(nrgyElec, "<SubPdct>ELEC</SubPdct>", "<SubPdct>GROS</SubPdct>", 1)
	res := mapAll(t, document(record(ElemRefData, "XS1234567890", cmdtyCFI, body)))
	me := requireKind(t, res[0].Err, InvariantViolation)
	assert.Equal(t, "product_taxonomy", me.Field)
}

func TestRecords_StrikePrice(t *testing.T) {
	pending := `<DerivInstrmAttrbts><StrkPric><NoPric><Pdg>PNDG</Pdg><Ccy>EUR</Ccy></NoPric></StrkPric></DerivInstrmAttrbts>`
	res := mapAll(t, document(record(ElemRefData, "XS1234567890", "OCASPS", pending)))
	require.NoError(t, res[0].Err)
	deriv, _ := res[0].Record.Derivative()
	assert.Equal(t, models.NoPrice{Currency: "EUR"}, deriv.StrikePrice.Price)
	assert.True(t, deriv.StrikePrice.Pending)

	monetary := `<DerivInstrmAttrbts><StrkPric><Pric><MntryVal><Amt Ccy="USD">12.5</Amt></MntryVal></Pric></StrkPric></DerivInstrmAttrbts>`
	res = mapAll(t, document(record(ElemRefData, "XS1234567890", "OCASPS", monetary)))
	require.NoError(t, res[0].Err)
	deriv, _ = res[0].Record.Derivative()
	mv, ok := deriv.StrikePrice.Price.(models.MonetaryValue)
	require.True(t, ok)
	assert.Equal(t, "USD", mv.Currency)
	assert.True(t, mv.Amount.Equal(decimal.RequireFromString("12.5")))

	two := `<DerivInstrmAttrbts><StrkPric><Pric><Pctg>95</Pctg><Yld>2.1</Yld></Pric></StrkPric></DerivInstrmAttrbts>`
	res = mapAll(t, document(record(ElemRefData, "XS1234567890", "OCASPS", two)))
	requireKind(t, res[0].Err, InvariantViolation)
}

func TestRecords_VenueDateOrder(t *testing.T) {
	rec := strings.Replace(record(ElemRefData, "XS1234567890", debtCFI, fixedDebt),
		"2030-01-01T23:59:59Z", "2023-12-31T10:00:00Z", 1)
	res := mapAll(t, document(rec))
	me := requireKind(t, res[0].Err, InvariantViolation)
	assert.Equal(t, "trading_venue_dates", me.Field)
}

func TestRecords_MalformedDocumentEndsStream(t *testing.T) {
	good := record(ElemRefData, "XS1234567890", debtCFI, fixedDebt)
	doc := `<BizData><Pyld>` + good + `<RefData><FinInstrmGnlAttrbts><Id>XS`
	res := mapAll(t, doc)
	require.Len(t, res, 2)
	assert.NoError(t, res[0].Err)
	assert.ErrorIs(t, res[1].Err, ErrMalformedDocument)
}

func TestRecords_DocumentOrderAndEarlyStop(t *testing.T) {
	var recs []string
	for i := 0; i < 5; i++ {
		recs = append(recs, record(ElemModified, fmt.Sprintf("XS123456789%d", i), debtCFI, fixedDebt))
	}
	doc := document(recs...)

	var isins []string
	for r := range New(enums.Default()).Records(strings.NewReader(doc)) {
		require.NoError(t, r.Err)
		isins = append(isins, r.Record.ISIN)
		if len(isins) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"XS1234567890", "XS1234567891", "XS1234567892"}, isins)

	all := mapAll(t, doc)
	require.Len(t, all, 5)
	for i, r := range all {
		assert.Equal(t, i+1, r.Ordinal)
		assert.Equal(t, ElemModified, r.Element)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-03-01", "2024-03-01T23:30:00Z", "2024-03-01T23:30:00+05:00", "2024-03-01T08:00:00"} {
		got, err := parseDate("f", s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := parseDate("f", "20240301")
	assert.Error(t, err)
}

// Package mapper decodes FIRDS XML documents into validated domain records.
//
// Decoding is streaming: the document is tokenized with encoding/xml and only
// the subtree of the record currently being mapped is kept in memory.
package mapper

import (
	"encoding/xml"
	"errors"
	"io"
	"iter"

	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/enums"
)

// Record element names. RefData appears in full (FULINS) files, the others
// in delta (DLTINS) files.
const (
	ElemRefData    = "RefData"
	ElemNewRecord  = "NewRcrd"
	ElemModified   = "ModfdRcrd"
	ElemTerminated = "TermntdRcrd"
	ElemCancelled  = "CancRcrd"
)

var recordElements = map[string]bool{
	ElemRefData:    true,
	ElemNewRecord:  true,
	ElemModified:   true,
	ElemTerminated: true,
	ElemCancelled:  true,
}

// Result is one element of a mapped stream.
//
// Exactly one of Record and Err is meaningful. A *MappingError rejects the
// record only; a *DocumentError is always the last result of the stream.
type Result struct {
	Ordinal int    // 1-based position among record elements
	Element string // record element name
	Record  models.ReferenceData
	Err     error
}

// Mapper turns XML streams into ReferenceData. It holds no per-stream state
// and is safe for concurrent use.
type Mapper struct {
	reg *enums.Registry
}

// New returns a Mapper resolving codes through reg.
func New(reg *enums.Registry) *Mapper {
	return &Mapper{reg: reg}
}

// Records returns a lazy sequence over the records of r, in document order.
//
// Behavior:
//   - Each record element is read into memory, mapped and yielded before the
//     next one is tokenized.
//   - A record that fails validation yields a Result with a *MappingError and
//     the sequence continues.
//   - A tokenizer or reader failure yields a *DocumentError and ends the sequence.
//   - Stopping the range loop stops reading r.
func (m *Mapper) Records(r io.Reader) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		dec := xml.NewDecoder(r)
		ordinal := 0
		for {
			tok, err := dec.Token()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Result{Ordinal: ordinal, Err: &DocumentError{Offset: dec.InputOffset(), Err: err}})
				return
			}
			start, ok := tok.(xml.StartElement)
			if !ok || !recordElements[start.Name.Local] {
				continue
			}
			el, err := readElement(dec, start)
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				yield(Result{Ordinal: ordinal, Err: &DocumentError{Offset: dec.InputOffset(), Err: err}})
				return
			}
			ordinal++

			res := Result{Ordinal: ordinal, Element: start.Name.Local}
			rec, err := m.mapRecord(el)
			if err != nil {
				me := asMappingError(err)
				me.Ordinal = ordinal
				if me.ISIN == "" {
					me.ISIN = el.textAt("FinInstrmGnlAttrbts", "Id")
				}
				res.Err = me
			} else {
				res.Record = rec
			}
			if !yield(res) {
				return
			}
		}
	}
}

// code resolves value through table and returns it unchanged.
func (m *Mapper) code(table enums.Table, value string) (string, error) {
	if _, err := m.reg.Lookup(table, value); err != nil {
		return "", err
	}
	return value, nil
}

func (m *Mapper) optionalCode(table enums.Table, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	return m.code(table, value)
}

func (m *Mapper) mapRecord(el *element) (models.ReferenceData, error) {
	var rd models.ReferenceData

	gen := el.child("FinInstrmGnlAttrbts")
	if gen == nil {
		return rd, missing("FinInstrmGnlAttrbts")
	}
	for _, f := range []string{"Id", "FullNm", "ShrtNm", "ClssfctnTp", "CmmdtyDerivInd", "NtnlCcy"} {
		if gen.textAt(f) == "" {
			return rd, missing("FinInstrmGnlAttrbts", f)
		}
	}
	if el.textAt("Issr") == "" {
		return rd, missing("Issr")
	}

	rd.ISIN = gen.textAt("Id")
	rd.FullName = gen.textAt("FullNm")
	rd.ShortName = gen.textAt("ShrtNm")
	rd.CFI = gen.textAt("ClssfctnTp")
	rd.NotionalCurrency = gen.textAt("NtnlCcy")
	rd.IssuerLEI = el.textAt("Issr")

	if err := checkShape("Id", rd.ISIN, isinPattern); err != nil {
		return rd, err
	}
	if err := checkShape("ClssfctnTp", rd.CFI, cfiPattern); err != nil {
		return rd, err
	}
	if _, err := m.code(enums.TableCFICategory, rd.CFI[:1]); err != nil {
		return rd, err
	}
	if err := checkShape("NtnlCcy", rd.NotionalCurrency, currencyPattern); err != nil {
		return rd, err
	}
	if err := checkShape("Issr", rd.IssuerLEI, leiPattern); err != nil {
		return rd, err
	}
	var err error
	if rd.CommodityDerivative, err = parseBool("CmmdtyDerivInd", gen.textAt("CmmdtyDerivInd")); err != nil {
		return rd, err
	}

	venues := el.all("TradgVnRltdAttrbts")
	switch len(venues) {
	case 0:
		return rd, missing("TradgVnRltdAttrbts")
	case 1:
	default:
		return rd, &MappingError{Kind: InvariantViolation, Field: "trading_venue", Err: errors.New("more than one TradgVnRltdAttrbts")}
	}
	if rd.TradingVenue, err = m.tradingVenue(venues[0]); err != nil {
		return rd, err
	}

	if tech := el.child("TechAttrbts"); tech != nil {
		if rd.Technical, err = m.technical(tech); err != nil {
			return rd, err
		}
	}

	if rd.Attributes, err = m.instrumentAttributes(el, rd.CFI); err != nil {
		return rd, err
	}

	return models.NewReferenceData(rd)
}

func (m *Mapper) tradingVenue(el *element) (models.TradingVenueAttributes, error) {
	var tv models.TradingVenueAttributes
	tv.VenueID = el.textAt("Id")
	if tv.VenueID == "" {
		return tv, missing("TradgVnRltdAttrbts", "Id")
	}
	if err := checkShape("TradgVnRltdAttrbts/Id", tv.VenueID, micPattern); err != nil {
		return tv, err
	}
	req := el.textAt("IssrReq")
	if req == "" {
		return tv, missing("TradgVnRltdAttrbts", "IssrReq")
	}
	var err error
	if tv.IssuerRequested, err = parseBool("IssrReq", req); err != nil {
		return tv, err
	}
	if tv.ApprovalDate, err = parseOptionalDate("AdmssnApprvlDtByIssr", el.textAt("AdmssnApprvlDtByIssr")); err != nil {
		return tv, err
	}
	if tv.RequestDate, err = parseOptionalDate("ReqForAdmssnDt", el.textAt("ReqForAdmssnDt")); err != nil {
		return tv, err
	}
	if tv.AdmissionDate, err = parseOptionalDate("FrstTradDt", el.textAt("FrstTradDt")); err != nil {
		return tv, err
	}
	if tv.TerminationDate, err = parseOptionalDate("TermntnDt", el.textAt("TermntnDt")); err != nil {
		return tv, err
	}
	return tv, nil
}

func (m *Mapper) technical(el *element) (*models.TechnicalAttributes, error) {
	t := &models.TechnicalAttributes{
		CompetentAuthority:   el.textAt("RlvntCmptntAuthrty"),
		RelevantTradingVenue: el.textAt("RlvntTradgVn"),
	}
	prd := el.child("PblctnPrd")
	if prd == nil {
		return t, nil
	}
	var from, to string
	if rng := prd.child("FrDtToDt"); rng != nil {
		from, to = rng.textAt("FrDt"), rng.textAt("ToDt")
	} else {
		from = prd.textAt("FrDt")
	}
	if from == "" {
		return nil, missing("PblctnPrd", "FrDt")
	}
	f, err := parseDate("FrDt", from)
	if err != nil {
		return nil, err
	}
	p := &models.PublicationPeriod{From: f}
	if p.To, err = parseOptionalDate("ToDt", to); err != nil {
		return nil, err
	}
	t.PublicationPeriod = p
	return t, nil
}

// instrumentAttributes dispatches on the CFI-derived instrument class.
func (m *Mapper) instrumentAttributes(el *element, cfi string) (models.InstrumentAttributes, error) {
	debtEl := el.child("DebtInstrmAttrbts")
	derivEl := el.child("DerivInstrmAttrbts")
	if debtEl != nil && derivEl != nil {
		return nil, &MappingError{Kind: InvariantViolation, Field: "instrument_attributes", Err: models.ErrInvariant}
	}

	class := enums.InstrumentClassOf(cfi)
	switch class {
	case enums.ClassDebt:
		if derivEl != nil {
			return nil, unexpected("DerivInstrmAttrbts", "derivative attributes on a "+class.String()+" instrument")
		}
	case enums.ClassDerivative, enums.ClassOther:
		if debtEl != nil {
			return nil, unexpected("DebtInstrmAttrbts", "debt attributes on a "+class.String()+" instrument")
		}
	default:
		panic("mapper: unhandled instrument class " + class.String())
	}

	var debt *models.DebtAttributes
	var deriv *models.DerivativeAttributes
	if debtEl != nil {
		d, err := m.debt(debtEl)
		if err != nil {
			return nil, err
		}
		debt = &d
	}
	if derivEl != nil {
		d, err := m.derivative(derivEl, cfi)
		if err != nil {
			return nil, err
		}
		deriv = &d
	}
	return models.NewInstrumentAttributes(debt, deriv)
}

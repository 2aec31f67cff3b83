package enums

import (
	"errors"
	"fmt"
)

type code struct {
	code  string
	label string
}

type subProduct struct {
	code    string
	label   string
	further []code
}

type baseProduct struct {
	code  string
	label string
	subs  []subProduct
}

// ErrTaxonomy is matched by every *TaxonomyError.
var ErrTaxonomy = errors.New("product taxonomy violation")

// TaxonomyError reports a product combination that is individually valid
// but does not nest (e.g. a sub-product under the wrong base product).
type TaxonomyError struct {
	Base, Sub, Further string
	Reason             string
}

func (e *TaxonomyError) Error() string {
	return fmt.Sprintf("product %s/%s/%s: %s", e.Base, e.Sub, e.Further, e.Reason)
}

func (e *TaxonomyError) Is(target error) bool { return target == ErrTaxonomy }

// ValidateProduct checks a commodity product triple against the taxonomy.
//
// Rules:
//   - base must be a known base product;
//   - sub is required unless the base product has no sub-products (MCEX, INFL, OEST, OTHR);
//   - sub must belong to base;
//   - further is optional; when given it must belong to sub.
//
// Unknown codes yield *UnknownCodeError, mis-nesting yields *TaxonomyError.
func (r *Registry) ValidateProduct(base, sub, further string) error {
	bp, ok := r.products[base]
	if !ok {
		return &UnknownCodeError{Table: TableBaseProduct, Code: base}
	}
	if sub == "" {
		if further != "" {
			return &TaxonomyError{Base: base, Sub: sub, Further: further, Reason: "further sub-product without sub-product"}
		}
		if len(bp.subs) > 0 {
			return &TaxonomyError{Base: base, Reason: "sub-product required"}
		}
		return nil
	}
	if !r.Has(TableSubProduct, sub) {
		return &UnknownCodeError{Table: TableSubProduct, Code: sub}
	}
	var sp *subProduct
	for i := range bp.subs {
		if bp.subs[i].code == sub {
			sp = &bp.subs[i]
			break
		}
	}
	if sp == nil {
		return &TaxonomyError{Base: base, Sub: sub, Reason: "sub-product does not belong to base product"}
	}
	if further == "" {
		return nil
	}
	if !r.Has(TableFurtherSubProduct, further) {
		return &UnknownCodeError{Table: TableFurtherSubProduct, Code: further}
	}
	for _, f := range sp.further {
		if f.code == further {
			return nil
		}
	}
	return &TaxonomyError{Base: base, Sub: sub, Further: further, Reason: "further sub-product does not belong to sub-product"}
}

func codes(pairs ...string) []code {
	out := make([]code, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, code{code: pairs[i], label: pairs[i+1]})
	}
	return out
}

var productTaxonomy = []baseProduct{
	{code: "AGRI", label: "Agricultural", subs: []subProduct{
		{code: "GROS", label: "Grains and oil seeds", further: codes(
			"FWHT", "Feed wheat", "SOYB", "Soybeans", "CORN", "Maize", "RPSD", "Rapeseed", "RICE", "Rice", "OTHR", "Other")},
		{code: "SOFT", label: "Softs", further: codes(
			"CCOA", "Cocoa", "ROBU", "Robusta coffee", "WHSG", "White sugar", "BRWN", "Raw sugar", "OTHR", "Other")},
		{code: "POTA", label: "Potato"},
		{code: "OOLI", label: "Olive oil", further: codes("LAMP", "Lampante")},
		{code: "DIRY", label: "Dairy"},
		{code: "FRST", label: "Forestry"},
		{code: "SEAF", label: "Seafood"},
		{code: "LSTK", label: "Livestock"},
		{code: "GRIN", label: "Grain", further: codes("MWHT", "Milling wheat")},
	}},
	{code: "NRGY", label: "Energy", subs: []subProduct{
		{code: "ELEC", label: "Electricity", further: codes(
			"BSLD", "Base load", "FITR", "Financial transmission rights", "PKLD", "Peak load", "OFFP", "Off-peak", "OTHR", "Other")},
		{code: "NGAS", label: "Natural gas", further: codes(
			"GASP", "GASPOOL", "LNGG", "LNG", "NBPG", "NBP", "NCGG", "NCG", "TTFG", "TTF")},
		{code: "OILP", label: "Oil", further: codes(
			"BAKK", "Bakken", "BDSL", "Biodiesel", "BRNT", "Brent", "BRNX", "Brent NX", "CNDA", "Canadian",
			"COND", "Condensate", "DSEL", "Diesel", "DUBA", "Dubai", "ESPO", "ESPO", "ETHA", "Ethanol",
			"FUEL", "Fuel", "FOIL", "Fuel oil", "GOIL", "Gasoil", "GSLN", "Gasoline", "HEAT", "Heating oil",
			"JTFL", "Jet fuel", "KERO", "Kerosene", "LLSO", "Light Louisiana Sweet", "MARS", "Mars",
			"NAPH", "Naphtha", "NGLO", "NGL", "TAPI", "Tapis", "URAL", "Urals", "WTIO", "WTI")},
		{code: "COAL", label: "Coal"},
		{code: "INRG", label: "Inter-energy"},
		{code: "RNNG", label: "Renewable energy"},
		{code: "LGHT", label: "Light ends"},
		{code: "DIST", label: "Distillates"},
	}},
	{code: "ENVR", label: "Environmental", subs: []subProduct{
		{code: "EMIS", label: "Emissions", further: codes(
			"CERE", "CER", "ERUE", "ERU", "EUAE", "EUA", "EUAA", "EUAA", "OTHR", "Other")},
		{code: "WTHR", label: "Weather"},
		{code: "CRBR", label: "Carbon related"},
	}},
	{code: "FRGT", label: "Freight", subs: []subProduct{
		{code: "WETF", label: "Wet", further: codes("TNKR", "Tankers")},
		{code: "DRYF", label: "Dry", further: codes("DBCR", "Dry bulk carriers")},
		{code: "CSHP", label: "Container ships"},
	}},
	{code: "FRTL", label: "Fertilizer", subs: []subProduct{
		{code: "AMMO", label: "Ammonia"},
		{code: "DAPH", label: "Diammonium phosphate"},
		{code: "PTSH", label: "Potash"},
		{code: "SLPH", label: "Sulphur"},
		{code: "UREA", label: "Urea"},
		{code: "UAAN", label: "Urea and ammonium nitrate"},
	}},
	{code: "INDP", label: "Industrial products", subs: []subProduct{
		{code: "CSTR", label: "Construction"},
		{code: "MFTG", label: "Manufacturing"},
	}},
	{code: "METL", label: "Metals", subs: []subProduct{
		{code: "NPRM", label: "Non-precious", further: codes(
			"ALUM", "Aluminium", "ALUA", "Aluminium alloy", "CBLT", "Cobalt", "COPR", "Copper", "IRON", "Iron ore",
			"LEAD", "Lead", "MOLY", "Molybdenum", "NASC", "NASAAC", "NICK", "Nickel", "STEL", "Steel",
			"TINN", "Tin", "ZINC", "Zinc", "OTHR", "Other")},
		{code: "PRME", label: "Precious", further: codes(
			"GOLD", "Gold", "SLVR", "Silver", "PTNM", "Platinum", "PLDM", "Palladium", "OTHR", "Other")},
	}},
	{code: "MCEX", label: "Multi commodity exotic"},
	{code: "PAPR", label: "Paper", subs: []subProduct{
		{code: "CBRD", label: "Containerboard"},
		{code: "NSPT", label: "Newsprint"},
		{code: "PULP", label: "Pulp"},
		{code: "RCVP", label: "Recovered paper"},
	}},
	{code: "POLY", label: "Polypropylene", subs: []subProduct{
		{code: "PLST", label: "Plastic"},
	}},
	{code: "INFL", label: "Inflation"},
	{code: "OEST", label: "Official economic statistics"},
	{code: "OTHC", label: "Other C10", subs: []subProduct{
		{code: "DLVR", label: "Deliverable"},
		{code: "NDLV", label: "Non-deliverable"},
	}},
	{code: "OTHR", label: "Other"},
}

// Package enums holds the closed FIRDS vocabularies (code → label tables) and the
// commodity product taxonomy. The registry is built once and shared read-only.
package enums

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Table names a closed code vocabulary.
type Table string

const (
	TableCFICategory         Table = "cfi_category"
	TableBaseProduct         Table = "base_product"
	TableSubProduct          Table = "sub_product"
	TableFurtherSubProduct   Table = "further_sub_product"
	TableTermUnit            Table = "term_unit"
	TableIndexCode           Table = "index_code"
	TableDebtSeniority       Table = "debt_seniority"
	TableOptionType          Table = "option_type"
	TableOptionExerciseStyle Table = "option_exercise_style"
	TableDeliveryType        Table = "delivery_type"
	TableTransactionType     Table = "transaction_type"
	TableFinalPriceType      Table = "final_price_type"
	TableFxType              Table = "fx_type"
	TableStrikePriceType     Table = "strike_price_type"
)

// ErrUnknownCode is matched by every *UnknownCodeError.
var ErrUnknownCode = errors.New("unknown code")

// UnknownCodeError reports a code absent from its table.
type UnknownCodeError struct {
	Table Table
	Code  string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown code %q in table %s", e.Code, e.Table)
}

func (e *UnknownCodeError) Is(target error) bool { return target == ErrUnknownCode }

// Registry is an immutable set of code tables plus the product taxonomy.
//
// A Registry never changes after construction, so it can be shared between
// goroutines without locking.
type Registry struct {
	tables   map[Table]map[string]string
	products map[string]baseProduct
}

// Default returns the process-wide registry, built on first use.
var Default = sync.OnceValue(func() *Registry {
	return newRegistry(codeTables, productTaxonomy)
})

func newRegistry(tables map[Table]map[string]string, taxonomy []baseProduct) *Registry {
	r := &Registry{
		tables:   make(map[Table]map[string]string, len(tables)+3),
		products: make(map[string]baseProduct, len(taxonomy)),
	}
	for t, entries := range tables {
		cp := make(map[string]string, len(entries))
		for k, v := range entries {
			cp[k] = v
		}
		r.tables[t] = cp
	}

	base := map[string]string{}
	sub := map[string]string{}
	further := map[string]string{}
	for _, bp := range taxonomy {
		r.products[bp.code] = bp
		base[bp.code] = bp.label
		for _, sp := range bp.subs {
			sub[sp.code] = sp.label
			for _, f := range sp.further {
				further[f.code] = f.label
			}
		}
	}
	r.tables[TableBaseProduct] = base
	r.tables[TableSubProduct] = sub
	r.tables[TableFurtherSubProduct] = further
	return r
}

// Lookup returns the label registered for code in table t.
// It fails closed with *UnknownCodeError for anything not in the table.
func (r *Registry) Lookup(t Table, code string) (string, error) {
	if label, ok := r.tables[t][code]; ok {
		return label, nil
	}
	return "", &UnknownCodeError{Table: t, Code: code}
}

// Has reports whether code is registered in table t.
func (r *Registry) Has(t Table, code string) bool {
	_, ok := r.tables[t][code]
	return ok
}

// Codes returns the sorted codes of table t.
func (r *Registry) Codes(t Table) []string {
	out := make([]string, 0, len(r.tables[t]))
	for c := range r.tables[t] {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Tables lists every registered table.
func (r *Registry) Tables() []Table {
	out := make([]Table, 0, len(r.tables))
	for t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package enums

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_KnownAndUnknown(t *testing.T) {
	r := Default()

	label, err := r.Lookup(TableTermUnit, "MNTH")
	require.NoError(t, err)
	assert.Equal(t, "Months", label)

	_, err = r.Lookup(TableTermUnit, "FORTNIGHT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCode))

	var uc *UnknownCodeError
	require.True(t, errors.As(err, &uc))
	assert.Equal(t, TableTermUnit, uc.Table)
	assert.Equal(t, "FORTNIGHT", uc.Code)
}

func TestLookup_EveryMapperTablePresent(t *testing.T) {
	r := Default()
	want := []Table{
		TableCFICategory, TableBaseProduct, TableSubProduct, TableFurtherSubProduct,
		TableTermUnit, TableIndexCode, TableDebtSeniority, TableOptionType,
		TableOptionExerciseStyle, TableDeliveryType, TableTransactionType,
		TableFinalPriceType, TableFxType, TableStrikePriceType,
	}
	for _, tbl := range want {
		assert.NotEmpty(t, r.Codes(tbl), "table %s is empty", tbl)
	}
	assert.Len(t, r.Tables(), len(want))
}

func TestLookup_TablesAreIsolated(t *testing.T) {
	r := Default()
	// EURO is an exercise style and an index code, but not an option type.
	assert.True(t, r.Has(TableOptionExerciseStyle, "EURO"))
	assert.True(t, r.Has(TableIndexCode, "EURO"))
	assert.False(t, r.Has(TableOptionType, "EURO"))
}

func TestDefault_SharedAcrossGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	got := make([]*Registry, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = Default()
			_, _ = got[i].Lookup(TableFxType, "FXMJ")
		}(i)
	}
	wg.Wait()
	for _, r := range got {
		assert.Same(t, got[0], r)
	}
}

func TestNewRegistry_CopiesInput(t *testing.T) {
	src := map[Table]map[string]string{TableFxType: {"FXMJ": "Majors"}}
	r := newRegistry(src, nil)
	src[TableFxType]["FXXX"] = "late"
	assert.False(t, r.Has(TableFxType, "FXXX"))
}

func TestValidateProduct(t *testing.T) {
	r := Default()
	tests := []struct {
		name             string
		base, sub, furth string
		wantUnknown      bool
		wantTaxonomy     bool
	}{
		{name: "energy electricity no further", base: "NRGY", sub: "ELEC"},
		{name: "energy electricity base load", base: "NRGY", sub: "ELEC", furth: "BSLD"},
		{name: "metals precious gold", base: "METL", sub: "PRME", furth: "GOLD"},
		{name: "base without subs", base: "INFL"},
		{name: "coal has no further", base: "NRGY", sub: "COAL", furth: "BSLD", wantTaxonomy: true},
		{name: "sub under wrong base", base: "AGRI", sub: "ELEC", wantTaxonomy: true},
		{name: "further under wrong sub", base: "METL", sub: "NPRM", furth: "GOLD", wantTaxonomy: true},
		{name: "sub required", base: "METL", wantTaxonomy: true},
		{name: "further without sub", base: "MCEX", furth: "GOLD", wantTaxonomy: true},
		{name: "unknown base", base: "XXXX", wantUnknown: true},
		{name: "unknown sub", base: "NRGY", sub: "XXXX", wantUnknown: true},
		{name: "unknown further", base: "NRGY", sub: "ELEC", furth: "XXXX", wantUnknown: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateProduct(tt.base, tt.sub, tt.furth)
			switch {
			case tt.wantUnknown:
				assert.ErrorIs(t, err, ErrUnknownCode)
			case tt.wantTaxonomy:
				assert.ErrorIs(t, err, ErrTaxonomy)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestInstrumentClassOf(t *testing.T) {
	assert.Equal(t, ClassDebt, InstrumentClassOf("DBFTFB"))
	assert.Equal(t, ClassDerivative, InstrumentClassOf("FCEPSX"))
	assert.Equal(t, ClassDerivative, InstrumentClassOf("SRCCSP"))
	assert.Equal(t, ClassOther, InstrumentClassOf("ESVUFR"))
	assert.Equal(t, ClassOther, InstrumentClassOf(""))
}

func TestAssetClassOf(t *testing.T) {
	tests := map[string]AssetClass{
		"FCEPSX": AssetCommodity,
		"FFCPSX": AssetFX,
		"FFNCSX": AssetInterestRate,
		"OCETCS": AssetCommodity,
		"OPANCS": AssetInterestRate,
		"SRCCSP": AssetInterestRate,
		"HTFAVC": AssetCommodity,
		"JFTXFP": AssetFX,
		"IFXXXP": AssetFX,
		"FFSCSX": AssetUndetermined,
		"ESVUFR": AssetUndetermined,
		"SEB":    AssetUndetermined,
	}
	for cfi, want := range tests {
		assert.Equal(t, want, AssetClassOf(cfi), cfi)
	}
}

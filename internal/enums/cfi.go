package enums

// InstrumentClass selects which instrument attribute subtree a record may carry.
type InstrumentClass int

const (
	ClassOther InstrumentClass = iota
	ClassDebt
	ClassDerivative
)

func (c InstrumentClass) String() string {
	switch c {
	case ClassDebt:
		return "debt"
	case ClassDerivative:
		return "derivative"
	default:
		return "other"
	}
}

// AssetClass selects which asset-class-specific branch a derivative may carry.
type AssetClass int

const (
	AssetUndetermined AssetClass = iota
	AssetCommodity
	AssetInterestRate
	AssetFX
)

func (a AssetClass) String() string {
	switch a {
	case AssetCommodity:
		return "commodity"
	case AssetInterestRate:
		return "interest_rate"
	case AssetFX:
		return "fx"
	default:
		return "undetermined"
	}
}

// InstrumentClassOf derives the instrument class from the CFI category letter.
// The code is assumed to have been shape-checked by the caller.
func InstrumentClassOf(cfi string) InstrumentClass {
	if cfi == "" {
		return ClassOther
	}
	switch cfi[0] {
	case 'D':
		return ClassDebt
	case 'F', 'O', 'S', 'H', 'I', 'J', 'K', 'L', 'T':
		return ClassDerivative
	default:
		return ClassOther
	}
}

// AssetClassOf derives the asset class from a CFI code (ISO 10962).
// It returns AssetUndetermined when the code does not pin one down
// (equity, credit and "other" underlyings, options on futures, ...).
func AssetClassOf(cfi string) AssetClass {
	if len(cfi) < 4 {
		return AssetUndetermined
	}
	switch cfi[0] {
	case 'F':
		if cfi[1] == 'C' {
			return AssetCommodity
		}
		if cfi[1] == 'F' {
			switch cfi[2] {
			case 'C':
				return AssetFX
			case 'N':
				return AssetInterestRate
			}
		}
	case 'O':
		switch cfi[3] {
		case 'T':
			return AssetCommodity
		case 'C':
			return AssetFX
		case 'N':
			return AssetInterestRate
		}
	case 'S', 'H', 'J':
		switch cfi[1] {
		case 'R':
			return AssetInterestRate
		case 'T':
			return AssetCommodity
		case 'F':
			return AssetFX
		}
	case 'I':
		switch cfi[1] {
		case 'F':
			return AssetFX
		case 'T':
			return AssetCommodity
		}
	}
	return AssetUndetermined
}

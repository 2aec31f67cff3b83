package enums

// codeTables holds every flat vocabulary. Product codes live in taxonomy.go.
var codeTables = map[Table]map[string]string{
	TableCFICategory: {
		"E": "Equities",
		"C": "Collective investment vehicles",
		"D": "Debt instruments",
		"R": "Entitlements (rights)",
		"O": "Listed options",
		"F": "Futures",
		"S": "Swaps",
		"H": "Non-listed and complex listed options",
		"I": "Spot",
		"J": "Forwards",
		"K": "Strategies",
		"L": "Financing",
		"T": "Referential instruments",
		"M": "Others (miscellaneous)",
	},
	TableTermUnit: {
		"DAYS": "Days",
		"WEEK": "Weeks",
		"MNTH": "Months",
		"YEAR": "Years",
	},
	TableIndexCode: {
		"EONA": "EONIA",
		"EONS": "EONIA Swap",
		"EURI": "EURIBOR",
		"EURO": "EURIBOR",
		"EUUS": "EURODOLLAR",
		"EUCH": "EuroSwiss",
		"GCFR": "GCF Repo",
		"ISDA": "ISDAFIX",
		"LIBI": "LIBID",
		"LIBO": "LIBOR",
		"MAAA": "Muni AAA",
		"PFAN": "Pfandbriefe",
		"TIBO": "TIBOR",
		"STBO": "STIBOR",
		"BBSW": "BBSW",
		"JIBA": "JIBAR",
		"BUBO": "BUBOR",
		"CDOR": "CDOR",
		"CIBO": "CIBOR",
		"MOSP": "MOSPRIM",
		"NIBO": "NIBOR",
		"PRBO": "PRIBOR",
		"TLBO": "TELBOR",
		"WIBO": "WIBOR",
		"TREA": "Treasury",
		"SWAP": "SWAP",
		"FUSW": "Future SWAP",
	},
	TableDebtSeniority: {
		"SNDB": "Senior debt",
		"MZZD": "Mezzanine",
		"SBOD": "Subordinated debt",
		"JUND": "Junior debt",
	},
	TableOptionType: {
		"PUTO": "Put",
		"CALL": "Call",
		"OTHR": "Other",
	},
	TableOptionExerciseStyle: {
		"EURO": "European",
		"AMER": "American",
		"ASIA": "Asian",
		"BERM": "Bermudan",
		"OTHR": "Other",
	},
	TableDeliveryType: {
		"PHYS": "Physical",
		"CASH": "Cash",
		"OPTL": "Optional",
	},
	TableTransactionType: {
		"FUTR": "Futures",
		"OPTN": "Options",
		"TAPO": "TAPOS",
		"SWAP": "Swaps",
		"MINI": "Minis",
		"OTCT": "OTC",
		"ORIT": "Outright",
		"CRCK": "Crack",
		"DIFF": "Differential",
		"OTHR": "Other",
	},
	TableFinalPriceType: {
		"ARGM": "Argus/McCloskey",
		"BLTC": "Baltic",
		"EXOF": "Exchange",
		"GBCL": "GlobalCOAL",
		"IHSM": "IHS McCloskey",
		"PLAT": "Platts",
		"OTHR": "Other",
	},
	TableFxType: {
		"FXCR": "FX Cross Rates",
		"FXEM": "FX Emerging Markets",
		"FXMJ": "FX Majors",
	},
	TableStrikePriceType: {
		"MONETARY_VALUE": "Monetary value",
		"PERCENTAGE":     "Percentage",
		"YIELD":          "Yield",
		"BASIS_POINTS":   "Basis points",
		"NO_PRICE":       "No price",
	},
}

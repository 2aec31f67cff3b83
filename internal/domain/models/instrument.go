package models

import "time"

// InstrumentVersion is one stored version of an instrument on a trading venue,
// as returned by the read API.
//
// Fields:
//   - ID: database id of the reference_data row.
//   - ISIN, FullName, ShortName, CFI, IssuerLEI, NotionalCurrency: general attributes.
//   - InstrumentClass: debt, derivative or other.
//   - VenueID: MIC of the trading venue.
//   - ChangeType: NEW, MODIFIED or TERMINATED.
//   - FileName, PublishedAt: the FIRDS file the version came from.
//   - ValidFrom / ValidTo: validity window; ValidTo is nil for the latest version.
//   - Latest: whether this is the current version for ISIN and venue.
//
// swagger:model InstrumentVersion
type InstrumentVersion struct {
	ID               int64      `json:"id" example:"42"`
	ISIN             string     `json:"isin" example:"DE000A0TGJ55"`
	FullName         string     `json:"full_name" example:"VOLKSWAGEN AG 2.5% 2031"`
	ShortName        string     `json:"short_name"`
	CFI              string     `json:"cfi" example:"DBFTFB"`
	InstrumentClass  string     `json:"instrument_class" example:"debt"`
	IssuerLEI        string     `json:"issuer_lei"`
	NotionalCurrency string     `json:"notional_currency" example:"EUR"`
	VenueID          string     `json:"venue_id" example:"XFRA"`
	ChangeType       ChangeTag  `json:"change_type" example:"NEW"`
	FileName         string     `json:"file_name"`
	PublishedAt      time.Time  `json:"published_at"`
	ValidFrom        time.Time  `json:"valid_from"`
	ValidTo          *time.Time `json:"valid_to,omitempty"`
	Latest           bool       `json:"latest"`
}

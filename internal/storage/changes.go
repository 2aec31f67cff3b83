package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pq "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/enums"
)

const (
	supersedeSQL = `
		UPDATE reference_data
		SET latest_record = FALSE, valid_to = GREATEST($3::date - 1, valid_from - 1)
		WHERE isin = $1 AND venue_id = $2 AND latest_record`

	insertRecordSQL = `
		INSERT INTO reference_data (isin, full_name, short_name, cfi, commodity_derivative, issuer_lei,
			notional_currency, instrument_class, venue_id, issuer_requested, approval_date, request_date,
			admission_date, termination_date, competent_authority, publication_from, publication_to,
			relevant_trading_venue, change_type, source, file_name, file_type, member, published_at,
			archive_hash, valid_from)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26)
		RETURNING id`

	insertDebtSQL = `
		INSERT INTO debt_attributes (reference_data_id, total_issued_amount, maturity_date, nominal_currency,
			nominal_value_per_unit, seniority)
		VALUES ($1, $2, $3, $4, $5, $6)`

	insertRateSQL = `
		INSERT INTO interest_rates (reference_data_id, role, kind, fixed_rate, ref_isin, ref_index, ref_name,
			term_number, term_unit, spread_bps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	insertDerivativeSQL = `
		INSERT INTO derivative_attributes (reference_data_id, expiry_date, price_multiplier, option_type,
			option_exercise_style, delivery_type, underlying_kind, underlying_isin, underlying_lei,
			underlying_index_isin, underlying_index_ref_isin, underlying_index_ref_index, underlying_index_ref_name,
			underlying_index_term_number, underlying_index_term_unit, strike_price_type, strike_price_value,
			strike_price_currency, strike_price_pending, asset_class)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	insertCommoditySQL = `
		INSERT INTO commodity_attributes (reference_data_id, base_product, sub_product, further_sub_product,
			transaction_type, final_price_type)
		VALUES ($1, $2, $3, $4, $5, $6)`

	insertInterestRateSQL = `
		INSERT INTO interest_rate_attributes (reference_data_id, ref_isin, ref_index, ref_name, term_number,
			term_unit, other_notional_currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertFxSQL = `
		INSERT INTO fx_attributes (reference_data_id, other_notional_currency, fx_type)
		VALUES ($1, $2, $3)`
)

type basketRow struct {
	recordID   int64
	memberType string
	identifier string
	position   int
}

// InsertChangeBatch stores a batch of classified records in one transaction,
// in batch order.
//
// Behavior:
//   - The current version of the same ISIN and venue is closed
//     (latest_record = false, valid_to = day before the new version).
//   - Attributes are written to their own tables keyed by the new row id.
//   - Basket members of the whole batch are bulk loaded with COPY at the end.
func (r *referenceDataRepository) InsertChangeBatch(ctx context.Context, batch []models.ChangeRecord) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	var baskets []basketRow
	for _, cr := range batch {
		rows, err := insertChange(ctx, tx, cr)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", cr.Data.ISIN, err)
		}
		baskets = append(baskets, rows...)
	}

	if len(baskets) > 0 {
		if err := copyBaskets(ctx, tx, baskets); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("copy basket members: %w", err)
		}
	}
	return tx.Commit()
}

func insertChange(ctx context.Context, tx *sql.Tx, cr models.ChangeRecord) ([]basketRow, error) {
	rd, src := cr.Data, cr.Source
	validFrom := src.PublishedAt.UTC().Truncate(24 * time.Hour)

	if _, err := tx.ExecContext(ctx, supersedeSQL, rd.ISIN, rd.TradingVenue.VenueID, validFrom); err != nil {
		return nil, err
	}

	var compAuth, relVenue any
	var pubFrom, pubTo any
	if t := rd.Technical; t != nil {
		compAuth, relVenue = nullString(t.CompetentAuthority), nullString(t.RelevantTradingVenue)
		if p := t.PublicationPeriod; p != nil {
			pubFrom, pubTo = p.From, nullDate(p.To)
		}
	}

	class := enums.ClassOther
	if rd.Attributes != nil {
		class = rd.Attributes.InstrumentClass()
	}

	var id int64
	tv := rd.TradingVenue
	err := tx.QueryRowContext(ctx, insertRecordSQL,
		rd.ISIN, rd.FullName, rd.ShortName, rd.CFI, rd.CommodityDerivative, rd.IssuerLEI,
		rd.NotionalCurrency, class.String(), tv.VenueID, tv.IssuerRequested, nullDate(tv.ApprovalDate),
		nullDate(tv.RequestDate), nullDate(tv.AdmissionDate), nullDate(tv.TerminationDate), compAuth,
		pubFrom, pubTo, relVenue, string(cr.Tag), string(src.Source), src.FileName, string(src.FileType),
		src.Member, src.PublishedAt, src.ArchiveHash, validFrom,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	switch a := rd.Attributes.(type) {
	case nil:
		return nil, nil
	case models.DebtAttributes:
		return nil, insertDebt(ctx, tx, id, a)
	case models.DerivativeAttributes:
		return insertDerivative(ctx, tx, id, a)
	default:
		panic(fmt.Sprintf("storage: unhandled instrument attributes %T", a))
	}
}

func insertDebt(ctx context.Context, tx *sql.Tx, id int64, d models.DebtAttributes) error {
	if _, err := tx.ExecContext(ctx, insertDebtSQL, id, d.TotalIssuedAmount, nullDate(d.MaturityDate),
		d.NominalCurrency, d.NominalValuePerUnit, nullString(d.Seniority)); err != nil {
		return err
	}
	return insertRate(ctx, tx, id, "debt", d.InterestRate)
}

func insertRate(ctx context.Context, tx *sql.Tx, id int64, role string, rate models.InterestRate) error {
	switch v := rate.(type) {
	case nil:
		return nil
	case models.FixedRate:
		_, err := tx.ExecContext(ctx, insertRateSQL, id, role, "fixed", v.Rate, nil, nil, nil, nil, nil, nil)
		return err
	case models.FloatingInterestRate:
		isin, index, name := rateReference(v.Reference.Reference)
		number, unit := term(v.Reference.Term)
		var spread any
		if v.SpreadBps != nil {
			spread = *v.SpreadBps
		}
		_, err := tx.ExecContext(ctx, insertRateSQL, id, role, "floating", nil, isin, index, name, number, unit, spread)
		return err
	default:
		panic(fmt.Sprintf("storage: unhandled interest rate %T", v))
	}
}

func insertDerivative(ctx context.Context, tx *sql.Tx, id int64, d models.DerivativeAttributes) ([]basketRow, error) {
	var (
		kind, uISIN, uLEI, ixISIN        any
		ixRefISIN, ixRefIndex, ixRefName any
		ixTermNumber, ixTermUnit         any
		baskets                          []basketRow
	)
	switch u := d.Underlying.(type) {
	case nil:
	case models.SingleISIN:
		kind, uISIN = "isin", u.ISIN
	case models.SingleIssuer:
		kind, uLEI = "issuer", u.LEI
	case models.SingleIndex:
		kind, ixISIN = "index", nullString(u.Index.ISIN)
		if u.Index.Rate != nil {
			ixRefISIN, ixRefIndex, ixRefName = rateReference(u.Index.Rate.Reference)
			ixTermNumber, ixTermUnit = term(u.Index.Rate.Term)
		}
	case models.Basket:
		kind = "basket"
		for i, isin := range u.ISINs {
			baskets = append(baskets, basketRow{recordID: id, memberType: "isin", identifier: isin, position: i})
		}
		for i, lei := range u.IssuerLEIs {
			baskets = append(baskets, basketRow{recordID: id, memberType: "lei", identifier: lei, position: i})
		}
	default:
		panic(fmt.Sprintf("storage: unhandled underlying %T", u))
	}

	var priceType, priceValue, priceCcy, pending any
	if sp := d.StrikePrice; sp != nil {
		priceType, pending = sp.Price.PriceType(), sp.Pending
		switch p := sp.Price.(type) {
		case models.MonetaryValue:
			priceValue, priceCcy = p.Amount, nullString(p.Currency)
		case models.Percentage:
			priceValue = p.Value
		case models.Yield:
			priceValue = p.Value
		case models.BasisPoints:
			priceValue = p.Value
		case models.NoPrice:
			priceCcy = nullString(p.Currency)
		default:
			panic(fmt.Sprintf("storage: unhandled price %T", p))
		}
	}

	var assetClass any
	if d.AssetClass != nil {
		assetClass = d.AssetClass.AssetClass().String()
	}

	if _, err := tx.ExecContext(ctx, insertDerivativeSQL, id, nullDate(d.ExpiryDate), nullDecimal(d.PriceMultiplier),
		nullString(d.OptionType), nullString(d.OptionExerciseStyle), nullString(d.DeliveryType),
		kind, uISIN, uLEI, ixISIN, ixRefISIN, ixRefIndex, ixRefName, ixTermNumber, ixTermUnit,
		priceType, priceValue, priceCcy, pending, assetClass); err != nil {
		return nil, err
	}

	var err error
	switch a := d.AssetClass.(type) {
	case nil:
	case models.CommodityAttributes:
		_, err = tx.ExecContext(ctx, insertCommoditySQL, id, nullString(a.BaseProduct), nullString(a.SubProduct),
			nullString(a.FurtherSubProduct), nullString(a.TransactionType), nullString(a.FinalPriceType))
	case models.InterestRateAttributes:
		isin, index, name := rateReference(a.ReferenceRate.Reference)
		number, unit := term(a.ReferenceRate.Term)
		if _, err = tx.ExecContext(ctx, insertInterestRateSQL, id, isin, index, name, number, unit,
			nullString(a.OtherNotionalCurrency)); err != nil {
			break
		}
		if err = insertRate(ctx, tx, id, "first_leg", a.FirstLegRate); err != nil {
			break
		}
		err = insertRate(ctx, tx, id, "other_leg", a.OtherLegRate)
	case models.FxAttributes:
		_, err = tx.ExecContext(ctx, insertFxSQL, id, nullString(a.OtherNotionalCurrency), nullString(a.FxType))
	default:
		panic(fmt.Sprintf("storage: unhandled asset class %T", a))
	}
	if err != nil {
		return nil, err
	}
	return baskets, nil
}

func copyBaskets(ctx context.Context, tx *sql.Tx, rows []basketRow) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("underlying_basket_members",
		"reference_data_id", "member_type", "identifier", "position"))
	if err != nil {
		return err
	}
	for _, b := range rows {
		if _, err := stmt.ExecContext(ctx, b.recordID, b.memberType, b.identifier, b.position); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

func rateReference(ref models.RateReference) (isin, index, name any) {
	switch v := ref.(type) {
	case nil:
	case models.RateISIN:
		isin = v.ISIN
	case models.RateIndex:
		index = v.Code
	case models.RateName:
		name = v.Name
	default:
		panic(fmt.Sprintf("storage: unhandled rate reference %T", v))
	}
	return isin, index, name
}

func term(t *models.Term) (number, unit any) {
	if t == nil {
		return nil, nil
	}
	return t.Number, t.Unit
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

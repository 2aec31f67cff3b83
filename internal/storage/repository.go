// Package storage persists classified FIRDS records and the per-file
// ingestion ledger in PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/guttosm/firdspulse/internal/domain/models"
)

// ReferenceDataRepository defines contract for DB operations.
type ReferenceDataRepository interface {
	InsertChangeBatch(ctx context.Context, batch []models.ChangeRecord) error
	HasIngestion(ctx context.Context, archiveHash string) (bool, error)
	UpsertIngestionLog(ctx context.Context, l models.FileLedger) error
	DeleteByArchive(ctx context.Context, archiveHash string) error
	ListIngestions(ctx context.Context, limit int) ([]models.FileLedger, error)
	GetInstrument(ctx context.Context, isin string) ([]models.InstrumentVersion, error)
}

type referenceDataRepository struct {
	db *sql.DB
}

func NewReferenceDataRepository(db *sql.DB) ReferenceDataRepository {
	return &referenceDataRepository{db: db}
}

// HasIngestion checks whether an archive with this hash was already recorded.
func (r *referenceDataRepository) HasIngestion(ctx context.Context, archiveHash string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ingestion_log WHERE archive_hash = $1 AND status <> 'failed')`,
		archiveHash).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertIngestionLog records (or replaces) the ledger of one archive.
// Files that failed before their content was hashed are not recorded.
func (r *referenceDataRepository) UpsertIngestionLog(ctx context.Context, l models.FileLedger) error {
	if l.ArchiveHash == "" {
		return nil
	}
	byKind, err := json.Marshal(l.ByKind)
	if err != nil {
		return fmt.Errorf("encode by_kind: %w", err)
	}
	if l.ByKind == nil {
		byKind = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ingestion_log (archive_hash, run_id, file_name, url, source, file_type, published_at,
			members, ingested, rejected, by_kind, status, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (archive_hash)
		DO UPDATE SET run_id = EXCLUDED.run_id,
			file_name = EXCLUDED.file_name,
			url = EXCLUDED.url,
			members = EXCLUDED.members,
			ingested = EXCLUDED.ingested,
			rejected = EXCLUDED.rejected,
			by_kind = EXCLUDED.by_kind,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			ingested_at = NOW()
	`, l.ArchiveHash, l.RunID, l.FileName, l.URL, string(l.Source), string(l.FileType), l.PublishedAt,
		l.Members, l.Ingested, l.Rejected, byKind, string(l.Status), nullString(l.Error), l.StartedAt, l.FinishedAt)
	return err
}

// DeleteByArchive removes every record loaded from the archive and makes the
// newest remaining version of each affected instrument current again.
func (r *referenceDataRepository) DeleteByArchive(ctx context.Context, archiveHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx,
		`DELETE FROM reference_data WHERE archive_hash = $1 RETURNING isin, venue_id`, archiveHash)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	var isins, venues []string
	for rows.Next() {
		var isin, venue string
		if err := rows.Scan(&isin, &venue); err != nil {
			_ = rows.Close()
			_ = tx.Rollback()
			return err
		}
		isins, venues = append(isins, isin), append(venues, venue)
	}
	if err := rows.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := rows.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}

	if len(isins) > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE reference_data SET latest_record = TRUE, valid_to = NULL
			WHERE id IN (
				SELECT DISTINCT ON (rd.isin, rd.venue_id) rd.id
				FROM reference_data rd
				JOIN unnest($1::text[], $2::text[]) AS g(isin, venue_id)
					ON g.isin = rd.isin AND g.venue_id = rd.venue_id
				ORDER BY rd.isin, rd.venue_id, rd.valid_from DESC, rd.id DESC
			) AND NOT latest_record
		`, pq.Array(isins), pq.Array(venues)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListIngestions returns the most recent ledgers, newest first.
func (r *referenceDataRepository) ListIngestions(ctx context.Context, limit int) ([]models.FileLedger, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT archive_hash, run_id, file_name, url, source, file_type, published_at,
			members, ingested, rejected, by_kind, status, COALESCE(error, ''), started_at, finished_at
		FROM ingestion_log
		ORDER BY published_at DESC, file_name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.FileLedger
	for rows.Next() {
		var (
			l        models.FileLedger
			source   string
			fileType string
			status   string
			byKind   []byte
		)
		if err := rows.Scan(&l.ArchiveHash, &l.RunID, &l.FileName, &l.URL, &source, &fileType, &l.PublishedAt,
			&l.Members, &l.Ingested, &l.Rejected, &byKind, &status, &l.Error, &l.StartedAt, &l.FinishedAt); err != nil {
			return nil, err
		}
		l.Source, l.FileType, l.Status = models.Source(source), models.FileType(fileType), models.FileStatus(status)
		if len(byKind) > 0 {
			if err := json.Unmarshal(byKind, &l.ByKind); err != nil {
				return nil, fmt.Errorf("decode by_kind of %s: %w", l.ArchiveHash, err)
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetInstrument returns every stored version of an ISIN, latest first.
// An unknown ISIN yields an empty slice.
func (r *referenceDataRepository) GetInstrument(ctx context.Context, isin string) ([]models.InstrumentVersion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, isin, full_name, short_name, cfi, instrument_class, issuer_lei, notional_currency,
			venue_id, change_type, file_name, published_at, valid_from, valid_to, latest_record
		FROM reference_data
		WHERE isin = $1
		ORDER BY latest_record DESC, valid_from DESC, id DESC
	`, isin)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.InstrumentVersion
	for rows.Next() {
		var (
			v          models.InstrumentVersion
			changeType string
			validTo    sql.NullTime
		)
		if err := rows.Scan(&v.ID, &v.ISIN, &v.FullName, &v.ShortName, &v.CFI, &v.InstrumentClass, &v.IssuerLEI,
			&v.NotionalCurrency, &v.VenueID, &changeType, &v.FileName, &v.PublishedAt, &v.ValidFrom, &validTo, &v.Latest); err != nil {
			return nil, err
		}
		v.ChangeType = models.ChangeTag(changeType)
		if validTo.Valid {
			t := validTo.Time
			v.ValidTo = &t
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ─── NULL helpers ───────────────────────────────────────

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

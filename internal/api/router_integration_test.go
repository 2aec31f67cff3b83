//go:build integration
// +build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	goose "github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/firdspulse/config"
	"github.com/guttosm/firdspulse/internal/app"
	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/storage"
)

func startPG(t *testing.T) (dsn string, host string, port nat.Port, terminate func()) {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "firdspulse",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=firdspulse sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", h, mp.Port(), "firdspulse")
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, h, mp, terminate
}

func openAndMigrate(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("dialect: %v", err)
	}
	path := filepath.Join("..", "..", "db", "migrations")
	if err := goose.Up(db, path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedForE2E stores two consecutive versions of one bond through the repository
// and records the ledgers of both files.
func seedForE2E(t *testing.T, db *sql.DB) {
	t.Helper()
	repo := storage.NewReferenceDataRepository(db)
	ctx := context.Background()

	day := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	rec := models.ChangeRecord{
		Tag: models.ChangeNew,
		Data: models.ReferenceData{
			ISIN:             "DE000A0TGJ55",
			FullName:         "Bund 2.5% 2031",
			ShortName:        "BUND/2.5 20310215",
			CFI:              "DBFTFB",
			IssuerLEI:        "529900HNOAA1KXQJUQ27",
			NotionalCurrency: "EUR",
			TradingVenue:     models.TradingVenueAttributes{VenueID: "XFRA"},
			Attributes: models.DebtAttributes{
				TotalIssuedAmount:   decimal.RequireFromString("1000000000"),
				NominalCurrency:     "EUR",
				NominalValuePerUnit: decimal.RequireFromString("1000"),
				InterestRate:        models.FixedRate{Rate: decimal.RequireFromString("0.025")},
			},
		},
		Source: models.SourceMetadata{
			Source:        models.SourceESMA,
			FileName:      "DLTINS_20250203_01of01.zip",
			FileType:      models.FileTypeDLTINS,
			PublishedAt:   day,
			ArchiveHash:   "0123456789abcdef0123456789abcdef",
			Member:        "DLTINS_20250203_01of01.xml",
			RecordElement: "NewRcrd",
		},
	}
	next := rec
	next.Tag = models.ChangeModified
	next.Source.FileName = "DLTINS_20250204_01of01.zip"
	next.Source.PublishedAt = day.AddDate(0, 0, 1)
	next.Source.ArchiveHash = "fedcba9876543210fedcba9876543210"
	next.Source.RecordElement = "ModfdRcrd"

	for _, cr := range []models.ChangeRecord{rec, next} {
		if err := repo.InsertChangeBatch(ctx, []models.ChangeRecord{cr}); err != nil {
			t.Fatalf("seed %s: %v", cr.Source.FileName, err)
		}
		now := time.Now().UTC()
		if err := repo.UpsertIngestionLog(ctx, models.FileLedger{
			ArchiveHash: cr.Source.ArchiveHash,
			RunID:       "e2e",
			FileName:    cr.Source.FileName,
			URL:         "http://example.invalid/" + cr.Source.FileName,
			Source:      models.SourceESMA,
			FileType:    models.FileTypeDLTINS,
			PublishedAt: cr.Source.PublishedAt,
			Members:     1,
			Ingested:    1,
			Status:      models.FileDone,
			StartedAt:   now,
			FinishedAt:  now,
		}); err != nil {
			t.Fatalf("seed ledger: %v", err)
		}
	}
}

func TestAPI_E2E_InstrumentAndIngestions(t *testing.T) {
	dsn, host, port, term := startPG(t)
	defer term()
	db := openAndMigrate(t, dsn)
	defer db.Close()
	seedForE2E(t, db)

	// Point application config to containerized DB
	config.AppConfig.Postgres.Host = host
	p, _ := nat.ParsePort(port.Port())
	config.AppConfig.Postgres.Port = int(p)
	config.AppConfig.Postgres.User = "postgres"
	config.AppConfig.Postgres.Password = "postgres"
	config.AppConfig.Postgres.DBName = "firdspulse"
	config.AppConfig.Postgres.SSLMode = "disable"

	router, cleanup, err := app.InitializeApp()
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	t.Run("instrument history", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/instruments/de000a0tgj55", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
		}
		var body struct {
			ISIN    string `json:"isin"`
			Current []struct {
				ChangeType string `json:"change_type"`
				ValidFrom  string `json:"valid_from"`
			} `json:"current"`
			History []struct {
				ValidTo *string `json:"valid_to"`
			} `json:"history"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		if body.ISIN != "DE000A0TGJ55" || len(body.Current) != 1 || len(body.History) != 2 {
			t.Fatalf("unexpected body: %+v", body)
		}
		if body.Current[0].ChangeType != "MODIFIED" || body.Current[0].ValidFrom != "2025-02-04" {
			t.Fatalf("unexpected current: %+v", body.Current[0])
		}
		if body.History[1].ValidTo == nil || *body.History[1].ValidTo != "2025-02-03" {
			t.Fatalf("previous version not closed: %+v", body.History[1])
		}
	})

	t.Run("unknown instrument", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/instruments/US0378331005", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("want 404 got %d", w.Code)
		}
	})

	t.Run("ingestion ledgers", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ingestions?limit=1", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
		}
		var body struct {
			Count int `json:"count"`
			Items []struct {
				FileName string `json:"file_name"`
				Status   string `json:"status"`
			} `json:"items"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		if body.Count != 1 || body.Items[0].FileName != "DLTINS_20250204_01of01.zip" || body.Items[0].Status != "done" {
			t.Fatalf("unexpected body: %+v", body)
		}
	})

	t.Run("readiness", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("want 200 got %d body=%s", w.Code, w.Body.String())
		}
	})
}

package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// the HTTP server, the Postgres connection, the regulator index, downloads,
// the archive caches and the ingestion pipeline.
//
// Example YAML/ENV equivalent:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=firdspulse
//	POSTGRES_SSLMODE=disable
//	FIRDS_SOURCE=ESMA
//	FIRDS_FILE_TYPES=FULINS,DLTINS
//	CACHE_DIR=./data/cache
//	CACHE_S3_BUCKET=firds-archives
//	INGEST_PARALLEL=4
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Postgres PostgresConfig // PostgreSQL connection settings
	Firds    FirdsConfig    // which regulator and file types to ingest
	Fetch    FetchConfig    // download behaviour
	Cache    CacheConfig    // local and shared archive caches
	Ingest   IngestConfig   // pipeline tuning
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port           string        // The TCP port the HTTP server will listen on (e.g., "8080")
	RequestTimeout time.Duration // per request deadline
	RateLimit      int           // requests per RateWindow and client IP, 0 disables
	RateWindow     time.Duration
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// FirdsConfig selects the publisher and the file types.
// An empty FileTypes list means every type.
type FirdsConfig struct {
	Source       string   // ESMA or FCA
	FileTypes    []string // FULINS, DLTINS, FULCAN
	ESMAIndexURL string   // empty uses the public register
	FCAIndexURL  string
	WindowDays   int // publication days ingested when no --from/--to is given
}

// FetchConfig tunes archive and index downloads.
type FetchConfig struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
}

// CacheConfig points at the local content-addressed cache and the optional bucket.
type CacheConfig struct {
	Dir string
	S3  S3Config
}

// S3Config configures the shared archive bucket. Bucket empty disables it.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
	PathStyle bool
	UseSSL    bool
}

// Enabled reports whether a bucket was configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// IngestConfig tunes the pipeline.
type IngestConfig struct {
	Parallel            int // 0 picks min(NumCPU, 8)
	BatchSize           int
	QuarantineThreshold float64
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// All services should import this package and read from AppConfig instead of
// reloading environment variables directly.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Behavior:
//   - Sets defaults for all required fields.
//   - Reads environment variables automatically with viper.AutomaticEnv().
//   - Constructs the PostgreSQL connection string (DSN).
//   - Calls validateConfig() to ensure required fields are present.
//
// Fatal exit:
//   - If required variables are missing or invalid, validateConfig() will
//     terminate the app with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("SERVER_RATE_LIMIT", 0)
	viper.SetDefault("SERVER_RATE_WINDOW", "1m")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "firdspulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("FIRDS_SOURCE", "ESMA")
	viper.SetDefault("FIRDS_FILE_TYPES", "FULINS,DLTINS")
	viper.SetDefault("FIRDS_ESMA_INDEX_URL", "")
	viper.SetDefault("FIRDS_FCA_INDEX_URL", "")
	viper.SetDefault("FIRDS_WINDOW_DAYS", 1)

	viper.SetDefault("FETCH_TIMEOUT", "10m")
	viper.SetDefault("FETCH_MAX_RETRIES", 4)
	viper.SetDefault("FETCH_USER_AGENT", "firdspulse/1.0")

	viper.SetDefault("CACHE_DIR", "./data/cache")
	viper.SetDefault("CACHE_S3_BUCKET", "")
	viper.SetDefault("CACHE_S3_REGION", "eu-west-1")
	viper.SetDefault("CACHE_S3_ENDPOINT", "")
	viper.SetDefault("CACHE_S3_ACCESS_KEY", "")
	viper.SetDefault("CACHE_S3_SECRET_KEY", "")
	viper.SetDefault("CACHE_S3_PREFIX", "firds/")
	viper.SetDefault("CACHE_S3_PATH_STYLE", false)
	viper.SetDefault("CACHE_S3_USE_SSL", true)

	viper.SetDefault("INGEST_PARALLEL", 0)
	viper.SetDefault("INGEST_BATCH_SIZE", 5000)
	viper.SetDefault("QUARANTINE_THRESHOLD", 0.05)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	// Populate global config instance
	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("SERVER_REQUEST_TIMEOUT"),
			RateLimit:      viper.GetInt("SERVER_RATE_LIMIT"),
			RateWindow:     viper.GetDuration("SERVER_RATE_WINDOW"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Firds: FirdsConfig{
			Source:       strings.ToUpper(strings.TrimSpace(viper.GetString("FIRDS_SOURCE"))),
			FileTypes:    SplitList(viper.GetString("FIRDS_FILE_TYPES")),
			ESMAIndexURL: viper.GetString("FIRDS_ESMA_INDEX_URL"),
			FCAIndexURL:  viper.GetString("FIRDS_FCA_INDEX_URL"),
			WindowDays:   viper.GetInt("FIRDS_WINDOW_DAYS"),
		},
		Fetch: FetchConfig{
			Timeout:    viper.GetDuration("FETCH_TIMEOUT"),
			MaxRetries: viper.GetInt("FETCH_MAX_RETRIES"),
			UserAgent:  viper.GetString("FETCH_USER_AGENT"),
		},
		Cache: CacheConfig{
			Dir: viper.GetString("CACHE_DIR"),
			S3: S3Config{
				Bucket:    viper.GetString("CACHE_S3_BUCKET"),
				Region:    viper.GetString("CACHE_S3_REGION"),
				Endpoint:  viper.GetString("CACHE_S3_ENDPOINT"),
				AccessKey: viper.GetString("CACHE_S3_ACCESS_KEY"),
				SecretKey: viper.GetString("CACHE_S3_SECRET_KEY"),
				Prefix:    viper.GetString("CACHE_S3_PREFIX"),
				PathStyle: viper.GetBool("CACHE_S3_PATH_STYLE"),
				UseSSL:    viper.GetBool("CACHE_S3_USE_SSL"),
			},
		},
		Ingest: IngestConfig{
			Parallel:            viper.GetInt("INGEST_PARALLEL"),
			BatchSize:           viper.GetInt("INGEST_BATCH_SIZE"),
			QuarantineThreshold: viper.GetFloat64("QUARANTINE_THRESHOLD"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	// Validate critical fields
	validateConfig()
}

// SplitList splits a comma separated value, trimming and upper-casing
// each item and dropping empty ones.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// This avoids unexpected runtime failures due to incomplete configuration.
//
// Behavior:
//   - Checks each critical field of AppConfig.
//   - Collects missing ones in a slice.
//   - Collects out-of-range ones in a second slice.
//   - If any are found, logs them and terminates the app with log.Fatalf().
func validateConfig() {
	var missing, invalid []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if AppConfig.Cache.Dir == "" {
		missing = append(missing, "CACHE_DIR")
	}

	if s := AppConfig.Firds.Source; s != "ESMA" && s != "FCA" {
		invalid = append(invalid, "FIRDS_SOURCE")
	}
	for _, ft := range AppConfig.Firds.FileTypes {
		if ft != "FULINS" && ft != "DLTINS" && ft != "FULCAN" {
			invalid = append(invalid, "FIRDS_FILE_TYPES")
			break
		}
	}
	if AppConfig.Ingest.Parallel < 0 {
		invalid = append(invalid, "INGEST_PARALLEL")
	}
	if AppConfig.Ingest.BatchSize < 0 {
		invalid = append(invalid, "INGEST_BATCH_SIZE")
	}
	if q := AppConfig.Ingest.QuarantineThreshold; q < 0 || q > 1 {
		invalid = append(invalid, "QUARANTINE_THRESHOLD")
	}
	if AppConfig.Fetch.MaxRetries < 0 {
		invalid = append(invalid, "FETCH_MAX_RETRIES")
	}

	if len(missing) > 0 {
		log.Fatalf("❌ Missing required environment variables: %v\n", missing)
	}
	if len(invalid) > 0 {
		log.Fatalf("❌ Invalid environment variables: %v\n", invalid)
	}
}

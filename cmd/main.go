package main

//
//  @title           firdspulse API
//  @version         1.0
//  @description     FIRDS reference-data ingestion and query service.
//  @termsOfService  https://github.com/guttosm/firdspulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/firdspulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        instruments
//  @tag.description Instrument reference data and version history
//
//  @tag.name        ingestions
//  @tag.description Per-file ingestion ledgers
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guttosm/firdspulse/config"
	_ "github.com/guttosm/firdspulse/docs" // swagger docs
	"github.com/guttosm/firdspulse/internal/app"
	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/ingestion"
	"github.com/guttosm/firdspulse/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// ingestFlags are the raw --from/--to/--source/--types values.
type ingestFlags struct {
	from     string
	to       string
	source   string
	types    string
	parallel int
	force    bool
}

// request validates the flags and turns them into an app.IngestRequest.
// Empty values are left zero so config.AppConfig applies.
func (f ingestFlags) request() (app.IngestRequest, error) {
	req := app.IngestRequest{Parallel: f.parallel, Force: f.force}

	var err error
	if req.From, err = parseDay("from", f.from); err != nil {
		return req, err
	}
	if req.To, err = parseDay("to", f.to); err != nil {
		return req, err
	}

	switch s := strings.ToUpper(strings.TrimSpace(f.source)); s {
	case "":
	case string(models.SourceESMA), string(models.SourceFCA):
		req.Source = models.Source(s)
	default:
		return req, fmt.Errorf("--source: unknown publisher %q (want ESMA or FCA)", f.source)
	}

	for _, t := range config.SplitList(f.types) {
		switch ft := models.FileType(t); ft {
		case models.FileTypeFULINS, models.FileTypeDLTINS, models.FileTypeFULCAN:
			req.FileTypes = append(req.FileTypes, ft)
		default:
			return req, fmt.Errorf("--types: unknown file type %q", t)
		}
	}
	if f.parallel < 0 {
		return req, fmt.Errorf("--parallel must be >= 0")
	}
	return req, nil
}

func parseDay(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD: %w", name, err)
	}
	return d, nil
}

// logReport writes one summary line per run.
func logReport(r ingestion.RunReport) {
	ingested, rejected := r.Totals()
	logger.L().Info().
		Str("run_id", r.RunID).
		Int("files", len(r.Files)).
		Int("done", r.Count(models.FileDone)).
		Int("skipped", r.Count(models.FileSkipped)).
		Int("quarantined", r.Count(models.FileQuarantined)).
		Int("failed", r.Count(models.FileFailed)).
		Int("ingested", ingested).
		Int("rejected", rejected).
		Dur("elapsed", r.FinishedAt.Sub(r.StartedAt)).
		Msg("ingestion summary")
}

// main is the entry point of the firdspulse application.
//
// Modes (selected via --mode flag):
//   - ingest: Lists, downloads and loads the FIRDS files published in the date range.
//   - api:    Starts the REST API over the stored reference data.
//
// Flags:
//   - --mode:     Execution mode ("ingest" or "api"). Default: "ingest".
//   - --from/--to: Publication dates (YYYY-MM-DD). Default: the last FIRDS_WINDOW_DAYS publication days.
//   - --source:   ESMA or FCA. Defaults to FIRDS_SOURCE.
//   - --types:    Comma separated file types (FULINS,DLTINS,FULCAN). Defaults to FIRDS_FILE_TYPES.
//   - --parallel: Files processed concurrently (0 = INGEST_PARALLEL, then min(CPU, 8)).
//   - --force:    Reprocess archives already in the ingestion log.
//   - --port:     Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "ingest", "Mode: ingest or api")
	var f ingestFlags
	flag.StringVar(&f.from, "from", "", "First publication date to ingest (YYYY-MM-DD)")
	flag.StringVar(&f.to, "to", "", "Last publication date to ingest (YYYY-MM-DD)")
	flag.StringVar(&f.source, "source", "", "Publisher: ESMA or FCA (default from FIRDS_SOURCE)")
	flag.StringVar(&f.types, "types", "", "Comma separated file types: FULINS,DLTINS,FULCAN (default all)")
	flag.IntVar(&f.parallel, "parallel", 0, "How many files to process concurrently (0=auto up to CPU, max 8)")
	flag.BoolVar(&f.force, "force", false, "Reprocess archives even if already ingested (deletes their records first)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "ingest":
		// Ingestion mode: fetch FIRDS archives and persist reference data
		req, err := f.request()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("invalid flags")
		}
		logger.L().Info().Msg("running ingestion")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := app.RunIngestion(ctx, req)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("ingestion failed")
		}
		logReport(report)
		logger.L().Info().Msg("ingestion completed")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(context.Background(), server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

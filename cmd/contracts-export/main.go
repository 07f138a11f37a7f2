package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/goszakup-contracts/internal/auth"
	"github.com/nurpe/goszakup-contracts/internal/config"
	"github.com/nurpe/goszakup-contracts/internal/db"
	"github.com/nurpe/goszakup-contracts/internal/excel"
	"github.com/nurpe/goszakup-contracts/internal/fetch"
	"github.com/nurpe/goszakup-contracts/internal/goszakup"
	httphandler "github.com/nurpe/goszakup-contracts/internal/http"
	"github.com/nurpe/goszakup-contracts/internal/http/middleware"
	"github.com/nurpe/goszakup-contracts/internal/logger"
	"github.com/nurpe/goszakup-contracts/internal/model"
	"github.com/nurpe/goszakup-contracts/internal/pdf"
	"github.com/nurpe/goszakup-contracts/internal/prompt"
	"github.com/nurpe/goszakup-contracts/internal/repository"
	"github.com/nurpe/goszakup-contracts/internal/service"
)

const exitInterrupted = 130

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := newReportService(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init export pipeline")
	}

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		err = serve(ctx, cfg, reports, log)
	} else {
		err = exportOnce(ctx, cfg, reports, log)
	}

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, prompt.ErrCancelled):
		log.Warn().Msg("interrupted by user")
		stop()
		os.Exit(exitInterrupted)
	default:
		log.Error().Err(err).Msg("export failed")
		stop()
		os.Exit(1)
	}
}

func newReportService(cfg *config.Config, log zerolog.Logger) (*service.ReportService, error) {
	database, err := db.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	var archive service.Archive
	if database != nil {
		archive = repository.NewArchiveRepository(database)
	}

	pdfGenerator, err := pdf.NewGenerator(cfg.Export.FontPath)
	if err != nil {
		return nil, fmt.Errorf("init pdf generator: %w", err)
	}

	pager := fetch.NewPager(goszakup.NewClient(cfg.Source), fetch.RetryPolicy{
		MaxRetries:      cfg.Fetch.MaxRetries,
		TimeoutDelay:    cfg.Fetch.TimeoutDelay,
		ConnectionDelay: cfg.Fetch.ConnectionDelay,
		RateLimitDelay:  cfg.Fetch.RateLimitDelay,
	}, log)

	generators := map[string]service.Generator{
		service.FormatXLSX: excel.NewGenerator(),
		service.FormatPDF:  pdfGenerator,
	}
	return service.NewReportService(pager, generators, archive, cfg, log), nil
}

func exportOnce(ctx context.Context, cfg *config.Config, reports *service.ReportService, log zerolog.Logger) error {
	mode := model.ReportMode(cfg.Export.Mode)
	if mode == "" {
		selected, err := prompt.SelectMode(ctx, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		mode = selected
	}
	log.Info().Str("mode", string(mode)).Msg("export mode selected")

	result, err := reports.WithSnapshotDir(cfg.Export.OutputDir).Export(ctx, service.ExportInput{
		CustomerBIN: cfg.Export.CustomerBIN,
		FinYear:     cfg.Export.FinYear,
		Mode:        mode,
		MaxPages:    cfg.Fetch.MaxPages,
		Format:      cfg.Export.Format,
	})
	if err != nil {
		return err
	}
	if result.Empty {
		return nil
	}

	_, err = reports.WriteFile(cfg.Export.OutputDir, result)
	return err
}

func serve(ctx context.Context, cfg *config.Config, reports *service.ReportService, log zerolog.Logger) error {
	if cfg.Auth.AccessSecret == "" {
		return errors.New("JWT_ACCESS_SECRET is required to serve")
	}

	handler := httphandler.NewHandler(reports, log)
	authMiddleware := middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret))
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("starting contracts export service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"staffquote/internal/adapters/impexp"
	"staffquote/internal/adapters/persistence"
	"staffquote/internal/adapters/telemetry"
	"staffquote/internal/config"
	"staffquote/internal/domain"
	"staffquote/internal/holidays"
	"staffquote/internal/httpapi"
	"staffquote/internal/logger"
	"staffquote/internal/ports"
	"staffquote/internal/scheduler"
	"staffquote/internal/service"
)

var (
	runServer          = run
	loadConfig         = config.Load
	buildApp           = newApp
	exitProcess        = os.Exit
	signalNotify       = signal.Notify
	signalStop         = signal.Stop
	newShutdownContext = context.WithTimeout
)

var logOutput io.Writer = os.Stdout

const (
	shutdownTimeout = 30 * time.Second
	resyncTimeout   = 5 * time.Minute
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(logOutput, "failed to load config: %v\n", err)
		exitProcess(1)
		return
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: logOutput})
	logStartupWarnings(cfg, log)

	application, err := buildApp(context.Background(), cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize application")
		exitProcess(1)
		return
	}

	err = runServer(cfg.Addr, application, func(server *http.Server, listener net.Listener) error {
		return server.Serve(listener)
	}, log)
	if err != nil {
		log.Error().Err(err).Msg("server failed")
		exitProcess(1)
		return
	}
}

func logStartupWarnings(cfg config.Config, log zerolog.Logger) {
	if !cfg.Mode.IsDevelopment() {
		return
	}

	log.Warn().Msg("backend is running in development mode")
	log.Warn().Msg("development mode enables permissive CORS defaults")
	log.Warn().Msg("do not expose development mode to untrusted networks")
}

type repository interface {
	ports.Repository
	io.Closer
}

// app is the HTTP handler plus everything that must be released with it.
type app struct {
	http.Handler
	api       *httpapi.API
	scheduler *scheduler.Scheduler
}

func (a *app) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	return a.api.Close()
}

func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	set, err := loadHolidays(cfg.Holidays)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	svc, err := service.New(
		repo,
		telemetry.NewLogTelemetry(log),
		impexp.New(),
		set,
		service.WithHoursPerDay(cfg.HoursPerDay),
	)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	api := httpapi.NewRouter(svc, httpapi.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AllowAnyCORSOrigin: cfg.AllowAnyCORSOrigin,
		Closer:             repo,
	}, log)
	result := &app{Handler: api, api: api}

	if cfg.ResyncSchedule != "" {
		jobs := scheduler.New(log, resyncTimeout)
		job := scheduler.NewResyncJob(svc, logger.Component(log, "calendar_resync"))
		if err := jobs.AddJob(cfg.ResyncSchedule, job); err != nil {
			_ = api.Close()
			return nil, err
		}
		jobs.Start()
		result.scheduler = jobs
	}

	log.Info().
		Str("storage", string(cfg.Storage)).
		Str("holidays", cfg.Holidays).
		Float64("hours_per_day", cfg.HoursPerDay).
		Msg("application initialized")
	return result, nil
}

func openRepository(ctx context.Context, cfg config.Config) (repository, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		repo, err := persistence.OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite repository (%q): %w", cfg.DBPath, err)
		}
		return repo, nil
	case config.StorageFile:
		repo, err := persistence.NewFileRepository(cfg.DataFile)
		if err != nil {
			return nil, fmt.Errorf("open file repository (%q): %w", cfg.DataFile, err)
		}
		return repo, nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

func loadHolidays(code string) (domain.HolidaySet, error) {
	if code == "" {
		return nil, nil
	}
	calendar, err := holidays.For(code)
	if err != nil {
		return nil, err
	}
	return calendar, nil
}

func run(addr string, handler http.Handler, start func(*http.Server, net.Listener) error, log zerolog.Logger) error {
	if start == nil {
		return fmt.Errorf("start function is required")
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer func() {
		_ = listener.Close()
	}()

	log.Info().Str("addr", listener.Addr().String()).Msg("staffquote listening")

	serveErr := make(chan error, 1)
	go func() {
		if startErr := start(server, listener); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			serveErr <- startErr
			return
		}
		serveErr <- nil
	}()

	quit := make(chan os.Signal, 1)
	signalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signalStop(quit)

	select {
	case err = <-serveErr:
		return err
	case shutdownSignal := <-quit:
		log.Info().Str("signal", shutdownSignal.String()).Msg("shutdown signal received, draining in-flight requests")
	}

	ctx, cancel := newShutdownContext(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server forced to shutdown")
	} else {
		log.Info().Msg("server exited gracefully")
	}

	if err := closeResources(handler); err != nil {
		log.Error().Err(err).Msg("resource cleanup failed")
	} else {
		log.Info().Msg("resource cleanup completed")
	}

	select {
	case err = <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Msg("timed out waiting for server goroutine to exit")
	}

	return nil
}

func closeResources(handler http.Handler) error {
	if handler == nil {
		return nil
	}

	resourceCloser, ok := handler.(io.Closer)
	if !ok {
		return nil
	}

	return resourceCloser.Close()
}

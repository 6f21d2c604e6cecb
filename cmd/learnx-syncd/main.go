package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/learnx/calendar-sync/internal/config"
	"github.com/learnx/calendar-sync/internal/database"
	"github.com/learnx/calendar-sync/internal/handlers"
	"github.com/learnx/calendar-sync/internal/logging"
	"github.com/learnx/calendar-sync/internal/provider"
	"github.com/learnx/calendar-sync/internal/provider/googlecal"
	"github.com/learnx/calendar-sync/internal/provider/memory"
	appSignals "github.com/learnx/calendar-sync/internal/signals"
	"github.com/learnx/calendar-sync/internal/syncer"
	"github.com/learnx/calendar-sync/internal/timetable"
	"github.com/learnx/calendar-sync/internal/token"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultScheduleCron re-syncs the course calendar every morning
const defaultScheduleCron = "0 4 * * *"

func main() {
	isDev := os.Getenv("ENV") != "production"
	logging.Initialize(isDev)
	logger := logging.GetLogger("main")

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", date).
		Msg("Starting learnX calendar sync daemon")

	// Create context that's canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received signal, initiating shutdown")
		cancel()
	}()

	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Application run failed")
	}
}

func run(ctx context.Context) error {
	logger := logging.GetLogger("main")

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "configs/sync.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Str("config_path", configPath).Msg("Failed to load configuration")
		return err
	}

	logging.SetLogLevel(cfg.Service.LogLevel)
	logger.Info().Str("log_level", cfg.Service.LogLevel).Msg("Log level set")

	if err := os.MkdirAll(filepath.Dir(cfg.Service.StateFile), 0755); err != nil {
		logger.Error().Err(err).Str("path", filepath.Dir(cfg.Service.StateFile)).Msg("Failed to create data directory")
		return err
	}

	dbOpts := database.SQLiteOptions{
		Path:        cfg.Service.StateFile,
		Mode:        "rwc",
		Cache:       database.CacheShared,
		Journal:     database.JournalWAL,
		ForeignKeys: true,
		BusyTimeout: 5000,
		Synchronous: database.SynchronousNormal,
	}
	db, err := database.New(dbOpts)
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database: %w", err)
		logger.Error().Err(wrappedErr).Str("db_path", cfg.Service.StateFile).Msg("Database initialization failed")
		return wrappedErr
	}
	defer db.Close()

	if err := db.MigrateDatabase(); err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database schema: %w", err)
		logger.Error().Err(wrappedErr).Msg("Database schema initialization failed")
		return wrappedErr
	}

	settings := database.NewSettingsStore(db)
	mappings := database.NewMappingStore(db)
	tokenStore := database.NewTokenStore(db)

	// Seed alarm defaults from the config file on first start
	seeder := database.NewPreferencesSeeder(settings)
	if err := seeder.SeedFromConfig(cfg); err != nil {
		wrappedErr := fmt.Errorf("failed to seed preferences: %w", err)
		logger.Error().Err(wrappedErr).Msg("Preference seeding failed")
		return wrappedErr
	}

	oauthConf := &oauth2.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Scopes:       []string{gcal.CalendarScope},
		Endpoint:     google.Endpoint,
	}
	tokenManager := token.NewTokenManager(tokenStore, oauthConf)

	var calendarProvider provider.Provider
	switch cfg.Sync.Provider {
	case "google":
		calendarProvider = googlecal.New(tokenManager)
	case "memory":
		calendarProvider = memory.New()
	default:
		return fmt.Errorf("unknown sync provider: %s", cfg.Sync.Provider)
	}
	logger.Info().Str("provider", cfg.Sync.Provider).Msg("Calendar provider selected")

	engine := syncer.NewEngine(calendarProvider, settings, mappings)

	baseHandler := handlers.NewBaseHandler(cfg, tokenManager, settings)
	syncHandler := handlers.NewSyncHandler(baseHandler, engine)
	preferencesHandler := handlers.NewPreferencesHandler(baseHandler)
	calendarHandler := handlers.NewCalendarHandler(baseHandler)
	oauthHandler := handlers.NewOAuthHandler(baseHandler)

	syncHandler.RegisterRoutes()
	preferencesHandler.RegisterRoutes()
	calendarHandler.RegisterRoutes()
	oauthHandler.RegisterRoutes()

	// Re-sync the course calendar once authentication completes
	appSignals.OnTokenSetup(func(ctx context.Context, data appSignals.TokenSetupData) {
		signalLogger := logging.GetLogger("signal-token-setup")
		if !data.Success {
			signalLogger.Warn().Msg("Token setup signal received, but setup was not successful")
			return
		}
		signalLogger.Info().Msg("Token setup detected, syncing course schedule")
		if err := syncSchedule(ctx, cfg, engine); err != nil {
			signalLogger.Error().Err(err).Msg("Course schedule sync after token setup failed")
		}
	}, "main-token-setup-handler")

	// Changed alarm preferences only take effect on the next write, so push
	// them out to the course calendar right away
	appSignals.OnPreferencesChanged(func(ctx context.Context, _ appSignals.PreferencesChangedData) {
		signalLogger := logging.GetLogger("signal-preferences-changed")
		signalLogger.Info().Msg("Preferences changed, re-syncing course schedule")
		if err := syncSchedule(ctx, cfg, engine); err != nil {
			signalLogger.Error().Err(err).Msg("Course schedule sync after preference change failed")
		}
	}, "main-preferences-changed-handler")

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Service.Port),
	}
	go func() {
		logger.Info().Int("port", cfg.Service.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Periodic course schedule re-sync keeps the rolling window moving
	cronSpec := cfg.Sync.ScheduleCron
	if cronSpec == "" {
		cronSpec = defaultScheduleCron
	}
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cronSpec, func() {
		cronLogger := logging.GetLogger("schedule-cron")
		cronLogger.Info().Msg("Periodic course schedule sync")
		if err := syncSchedule(ctx, cfg, engine); err != nil {
			cronLogger.Error().Err(err).Msg("Periodic course schedule sync failed")
		}
	})
	if err != nil {
		wrappedErr := fmt.Errorf("invalid schedule cron expression %q: %w", cronSpec, err)
		logger.Error().Err(wrappedErr).Msg("Cron setup failed")
		return wrappedErr
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info().Str("cron", cronSpec).Msg("Periodic schedule sync registered")

	<-ctx.Done()
	logger.Info().Msg("Context cancelled, initiating shutdown sequence")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shut down gracefully")
	}
	logger.Info().Msg("Shutdown complete")
	return nil
}

// syncSchedule expands the configured timetable over the sync window and
// rewrites the course calendar
func syncSchedule(ctx context.Context, cfg *config.Config, engine *syncer.Engine) error {
	scheduleLogger := logging.GetLogger("schedule-sync")

	semester, ok, err := timetable.SemesterFromConfig(cfg.Semester)
	if err != nil {
		return err
	}
	if !ok {
		scheduleLogger.Debug().Msg("No semester configured, skipping course schedule sync")
		return nil
	}

	windowStart := time.Now()
	windowEnd := windowStart.AddDate(0, 0, 7*cfg.Sync.WindowWeeks)
	events, err := timetable.Expand(semester, cfg.Semester.Slots, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("failed to expand timetable: %w", err)
	}

	scheduleLogger.Info().
		Int("events", len(events)).
		Time("window_start", windowStart).
		Time("window_end", windowEnd).
		Msg("Syncing course schedule")
	if err := engine.SyncCourseSchedule(ctx, events, windowStart, windowEnd); err != nil {
		return fmt.Errorf("failed to sync course schedule: %w", err)
	}
	return nil
}

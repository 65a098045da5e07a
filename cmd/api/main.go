package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tably/internal/api"
	"tably/internal/config"
	"tably/internal/database"
	"tably/internal/domain"
	"tably/internal/events"
	"tably/internal/history"
	"tably/internal/logging"
	"tably/internal/metrics"
	"tably/internal/models"
	"tably/internal/notify"
	"tably/internal/repository"
	"tably/internal/service"
	"tably/internal/store"
	"tably/internal/timeslot"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, hist, err := initStore(ctx, cfg, db, &logger)
	if err != nil {
		return err
	}

	sessions := initSessionRepository(ctx, cfg, &logger)

	eventBus := events.NewEventBus()
	if err := initNotifier(cfg, eventBus, &logger); err != nil {
		logger.Warn().Err(err).Msg("Telegram notifier disabled")
	}

	svc := service.NewReservationService(st, hist, eventBus, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(cfg, &logger)
	}

	return startAPI(ctx, cfg, st, svc, hist, db, sessions, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := logging.ForComponent(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("creating database directory failed")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("creating exports directory failed")
		return err
	}
	return nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return nil, err
	}

	// Reference data is configuration-owned; the archive copy only serves
	// reporting over past day sheets.
	if err := db.SaveSectors(context.Background(), cfg.Sectors); err != nil {
		logger.Warn().Err(err).Msg("sector archive sync failed")
	}
	if err := db.SaveTables(context.Background(), cfg.Tables); err != nil {
		logger.Warn().Err(err).Msg("table archive sync failed")
	}
	return db, nil
}

func initStore(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) (*store.Store, *history.History, error) {
	timelineCfg := models.TimelineConfig{
		Date:        cfg.Timeline.Date,
		StartHour:   cfg.Timeline.StartHour,
		EndHour:     cfg.Timeline.EndHour,
		SlotMinutes: cfg.Timeline.SlotMinutes,
		ViewMode:    cfg.Timeline.ViewMode,
	}
	if timelineCfg.Date == "" {
		timelineCfg.Date = time.Now().Format("2006-01-02")
	}

	window := timeslot.Window{
		StartHour:   timelineCfg.StartHour,
		EndHour:     timelineCfg.EndHour,
		SlotMinutes: timelineCfg.SlotMinutes,
	}
	if len(window.SlotsForDate(timelineCfg.Date)) == 0 {
		return nil, nil, fmt.Errorf("timeline window yields no slots for date %q", timelineCfg.Date)
	}

	st := store.New(timelineCfg)
	st.SetSectors(cfg.Sectors)
	st.SetTables(cfg.Tables)

	// Resume the active date's sheet if one was archived earlier.
	reservations, err := db.LoadDaySheet(ctx, timelineCfg.Date)
	if err != nil {
		logger.Warn().Err(err).Str("date", timelineCfg.Date).Msg("day sheet load failed, starting empty")
	} else if len(reservations) > 0 {
		st.SetReservations(reservations)
		logger.Info().Int("count", len(reservations)).Str("date", timelineCfg.Date).Msg("day sheet restored")
	}

	return st, history.New(cfg.Timeline.HistoryLimit), nil
}

func initSessionRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.SessionRepository {
	ttl := time.Duration(cfg.Redis.SessionTTL) * time.Second
	fallback := repository.NewMemorySessionRepository(ttl)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("Redis not configured, sessions kept in memory")
		return fallback
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}

	primary := repository.NewRedisSessionRepository(client, ttl)
	return repository.NewFailoverSessionRepository(primary, fallback, logger)
}

func initNotifier(cfg *config.Config, eventBus *events.EventBus, logger *zerolog.Logger) error {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.ManagerChats) == 0 {
		return nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return err
	}

	notifier := notify.NewTelegramNotifier(botAPI, cfg.Telegram.ManagerChats, logger)
	notifier.SubscribeTo(eventBus)
	logger.Info().Int("chats", len(cfg.Telegram.ManagerChats)).Msg("Telegram notifier enabled")
	return nil
}

func startMetricsServer(cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func startAPI(
	ctx context.Context,
	cfg *config.Config,
	st *store.Store,
	svc *service.ReservationService,
	hist *history.History,
	db *database.DB,
	sessions domain.SessionRepository,
	logger *zerolog.Logger,
) error {
	server := api.NewHTTPServer(cfg.API, cfg.Timeline, st, svc, hist, db, sessions, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	// Archive the working sheet before exit so the next start can resume it.
	state := st.Snapshot()
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.SaveDaySheet(saveCtx, state.Config.Date, state.Reservations); err != nil {
		logger.Error().Err(err).Msg("final day sheet save failed")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

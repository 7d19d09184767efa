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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"goal-tracker/internal/api"
	"goal-tracker/internal/bot"
	"goal-tracker/internal/clock"
	"goal-tracker/internal/config"
	"goal-tracker/internal/logger"
	"goal-tracker/internal/repository"
	"goal-tracker/internal/service"
	staticfiles "goal-tracker/static"
)

const shutdownTimeout = 5 * time.Second

type app struct {
	cfg       config.Config
	log       *logger.Logger
	calendar  *clock.Calendar
	store     *repository.Store
	catalog   *service.CatalogService
	tasks     *service.TaskService
	reminders *service.ReminderService
	closeDB   func() error
}

// bootstrap loads configuration, opens the database and applies migrations.
func bootstrap(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	calendar, err := clock.LoadCalendar(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if err := repository.Migrate(db, log); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store := repository.NewStore(db)
	tasks := service.NewTaskService(store, calendar, log)
	return &app{
		cfg:       cfg,
		log:       log,
		calendar:  calendar,
		store:     store,
		catalog:   service.NewCatalogService(store, log),
		tasks:     tasks,
		reminders: service.NewReminderService(tasks),
		closeDB:   sqlDB.Close,
	}, nil
}

func (a *app) close() {
	if err := a.closeDB(); err != nil {
		a.log.Warn("close database", zap.Error(err))
	}
	_ = a.log.Sync()
}

func (a *app) migrationHistory() ([]repository.SchemaMigration, error) {
	return repository.MigrationHistory(a.store.DB())
}

func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.catalog.SyncFile(ctx, a.cfg.TasksFile); err != nil {
		return fmt.Errorf("load task catalog: %w", err)
	}

	var telegramBot *bot.Bot
	if a.cfg.Telegram.Token != "" {
		telegramBot, err = bot.New(a.cfg.Telegram.Token, a.cfg.Telegram.AllowedUserID, a.store.Subscribers, a.tasks, a.reminders, a.log)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("bot stopped with error", zap.Error(err))
			}
		}()
	}

	if a.cfg.ReportTime != "" {
		scheduler := service.NewSchedulerService(a.calendar.Location(), a.log)
		if _, err := scheduler.ScheduleDaily("daily_report", a.cfg.ReportTime, a.dailyReportJob(telegramBot)); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	gin.SetMode(a.cfg.Server.Mode)
	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           api.NewRouter(a.tasks, staticfiles.EmbeddedFS(), a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("addr", a.cfg.Server.Addr), zap.String("timezone", a.cfg.Timezone))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.log.Info("server exited properly")
	return nil
}

// dailyReportJob sends the summary to Telegram subscribers, or logs it when no
// bot is configured.
func (a *app) dailyReportJob(telegramBot *bot.Bot) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if telegramBot != nil {
			return telegramBot.SendDailyReports(ctx)
		}
		text, err := a.reminders.DailySummary(ctx)
		if err != nil {
			return err
		}
		a.log.Info("daily report", zap.String("summary", text))
		return nil
	}
}

// Package main is the entry point of the EduAlert worker.
//
// The worker owns the periodic passes of the platform:
//   - nightly placement runs per class and per school
//   - nightly dropout-risk evaluation
//   - the monthly absence and low-average alert pass
//   - academic calendar maintenance (next year generation, working weeks)
//   - notification retry delivery
//
// It also serves the ops HTTP API: health checks, read-side queries and
// manual job triggering.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/edualert/edualert/config"
	"github.com/edualert/edualert/internal/application/command"
	"github.com/edualert/edualert/internal/application/eventhandler"
	"github.com/edualert/edualert/internal/application/query"
	"github.com/edualert/edualert/internal/domain/notification"
	"github.com/edualert/edualert/internal/domain/ranking"
	"github.com/edualert/edualert/internal/domain/shared"
	"github.com/edualert/edualert/internal/infrastructure/external/cloudwatch"
	"github.com/edualert/edualert/internal/infrastructure/external/email"
	"github.com/edualert/edualert/internal/infrastructure/external/sms"
	"github.com/edualert/edualert/internal/infrastructure/messaging"
	"github.com/edualert/edualert/internal/infrastructure/persistence/postgres"
	"github.com/edualert/edualert/internal/infrastructure/persistence/redis"
	"github.com/edualert/edualert/internal/infrastructure/scheduler"
	"github.com/edualert/edualert/internal/infrastructure/scheduler/jobs"
	"github.com/edualert/edualert/internal/infrastructure/service"
	httpapi "github.com/edualert/edualert/internal/interface/http"
	"github.com/edualert/edualert/internal/interface/http/handlers"
	"github.com/edualert/edualert/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting EduAlert worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolSettings{
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		log.Info("checking database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional, placement boards survive without it)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var placementCache ranking.PlacementCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, placement caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			placementCache = redis.NewPlacementCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories")
	profileRepo := postgres.NewUserProfileRepository(dbConn)
	schoolUnitRepo := postgres.NewSchoolUnitRepository(dbConn)
	studyClassRepo := postgres.NewStudyClassRepository(dbConn)
	subjectCatalogRepo := postgres.NewSubjectCatalogRepository(dbConn)
	yearlyCatalogRepo := postgres.NewYearlyCatalogRepository(dbConn)
	calendarRepo := postgres.NewCalendarRepository(dbConn)
	riskCountsRepo := postgres.NewRiskCountsRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBusConfig.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. NOTIFICATION DELIVERY
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing notification channels")

	var emailSender notification.Sender
	if cfg.Email.ConsoleOnly || cfg.Email.APIKey == "" {
		log.Info("email delivery uses the console sender")
		emailSender = service.NewConsoleSender(log)
	} else {
		sgConfig := email.DefaultSendGridConfig(cfg.Email.APIKey, cfg.Email.FromEmail)
		sgConfig.FromName = cfg.Email.FromName
		sgConfig.SubjectPrefix = cfg.Email.SubjectPrefix
		sgConfig.Logger = log
		emailSender = email.NewSendGridSender(sgConfig)
	}

	var smsSender notification.Sender
	if !cfg.SMS.Disabled && cfg.SMS.BaseURL != "" {
		gwConfig := sms.DefaultGatewayConfig(cfg.SMS.BaseURL, cfg.SMS.APIKey)
		gwConfig.SenderID = cfg.SMS.SenderID
		gwConfig.Timeout = cfg.SMS.Timeout
		gwConfig.Logger = log
		smsSender = sms.NewGatewaySender(gwConfig)
	} else {
		log.Info("SMS delivery is disabled")
	}

	router := service.NewChannelRouter(emailSender, smsSender, log)
	retryService := service.NewNotificationRetryService(notificationRepo, router, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("wiring event handlers")

	catalogHandler := eventhandler.NewOnCatalogRecomputedHandler(subjectCatalogRepo, placementCache, log)
	riskHandler := eventhandler.NewOnRiskChangedHandler(profileRepo, studyClassRepo, router, notificationRepo, log)
	alertHandler := eventhandler.NewOnAlertRaisedHandler(profileRepo, router, notificationRepo, log)

	dispatcherConfig := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherConfig.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherConfig)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	registrations := []struct {
		eventType shared.EventType
		name      string
		handler   shared.EventHandler
	}{
		{shared.EventCatalogRecomputed, "catalog-recomputed", catalogHandler.Handle},
		{shared.EventRiskChanged, "risk-changed", riskHandler.Handle},
		{shared.EventRiskCleared, "risk-cleared", riskHandler.Handle},
		{shared.EventAlertRaised, "alert-raised", alertHandler.Handle},
	}
	for _, reg := range registrations {
		if err := dispatcher.Register(reg.eventType, reg.name, reg.handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", reg.eventType, err)
		}
	}
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer func() { _ = dispatcher.Stop() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. COMMAND HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	placementsHandler := command.NewPlacementsHandler(
		schoolUnitRepo, studyClassRepo, yearlyCatalogRepo, calendarRepo,
		placementCache, eventBus, log,
	)
	riskCommandHandler := command.NewRiskHandler(
		profileRepo, studyClassRepo, schoolUnitRepo,
		subjectCatalogRepo, yearlyCatalogRepo, calendarRepo,
		riskCountsRepo, eventBus, log,
	)
	alertsHandler := command.NewMonthlyAlertsHandler(
		profileRepo, schoolUnitRepo, subjectCatalogRepo, calendarRepo,
		eventBus, log,
	)
	calendarAdminHandler := command.NewCalendarAdminHandler(calendarRepo, log)
	situationHandler := command.NewSchoolSituationHandler(
		profileRepo, schoolUnitRepo, subjectCatalogRepo, calendarRepo,
		eventBus, log,
	)
	absenceReportHandler := command.NewAbsenceReportHandler(
		profileRepo, schoolUnitRepo, subjectCatalogRepo, calendarRepo,
		router, notificationRepo, log,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. CLOUDWATCH REQUEST LOG SHIPPING (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var shipper *cloudwatch.Shipper
	if cfg.CloudWatch.Enabled {
		log.Info("initializing CloudWatch log shipping",
			"region", cfg.CloudWatch.Region,
			"log_group", cfg.CloudWatch.LogGroup,
		)
		shipperConfig := cloudwatch.DefaultShipperConfig(cfg.CloudWatch.Region, cfg.CloudWatch.LogGroup)
		shipperConfig.StreamPrefix = cfg.CloudWatch.StreamPrefix
		shipperConfig.FlushInterval = cfg.CloudWatch.FlushInterval
		shipperConfig.Logger = log

		shipper, err = cloudwatch.NewShipper(ctx, shipperConfig)
		if err != nil {
			log.Warn("failed to initialize CloudWatch shipper, request logging disabled", "error", err)
			shipper = nil
		} else {
			go shipper.Run(ctx)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	schedConfig.Timezone = cfg.App.Location
	sched := scheduler.NewScheduler(schedConfig)

	if err := registerJobs(sched, cfg, log, jobDependencies{
		placements:    placementsHandler,
		risk:          riskCommandHandler,
		alerts:        alertsHandler,
		situation:     situationHandler,
		absenceReport: absenceReportHandler,
		calendarAdmin: calendarAdminHandler,
		retryService:  retryService,
		shipper:       shipper,
	}); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("scheduler started", "jobs", len(sched.ListJobs()))
	} else {
		log.Info("scheduler is disabled, jobs can still be triggered via the ops API")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. OPS HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewPingCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("redis", handlers.NewPingCheck(redisCache))
	}
	if cfg.Scheduler.Enabled {
		healthChecker.AddCheck("scheduler", handlers.NewSchedulerCheck(sched.IsRunning))
	}

	httpLogger := setupHTTPLogger(cfg)
	serverConfig := httpapi.DefaultConfig()
	serverConfig.Host, serverConfig.Port = splitAddr(cfg.HTTP.Addr)
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.APIKeys = cfg.HTTP.APIKeys

	server := httpapi.NewServer(serverConfig, httpapi.Dependencies{
		SituationHandler:  query.NewGetStudentSituationHandler(profileRepo, subjectCatalogRepo, yearlyCatalogRepo),
		PlacementsHandler: query.NewGetPlacementsHandler(yearlyCatalogRepo, profileRepo, placementCache),
		RiskReportHandler: query.NewGetRiskReportHandler(profileRepo, riskCountsRepo),
		Scheduler:         sched,
		RequestLogs:       shipper,
		Logger:            httpLogger,
		HealthChecker:     healthChecker,
	})

	serverErr := server.StartAsync()
	log.Info("ops HTTP server listening", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("EduAlert worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
		}
	}

	log.Info("starting graceful shutdown", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", "error", err)
	}

	if sched.IsRunning() {
		if err := sched.Stop(); err != nil {
			log.Warn("scheduler stop error", "error", err)
		}
	}

	// Cancelling the root context stops the CloudWatch shipper, which
	// flushes its remaining buffer on the way out.
	cancel()
	time.Sleep(100 * time.Millisecond)

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

type jobDependencies struct {
	placements    *command.PlacementsHandler
	risk          *command.RiskHandler
	alerts        *command.MonthlyAlertsHandler
	situation     *command.SchoolSituationHandler
	absenceReport *command.AbsenceReportHandler
	calendarAdmin *command.CalendarAdminHandler
	retryService  *service.NotificationRetryService
	shipper       *cloudwatch.Shipper
}

// registerJobs wires all periodic passes into the scheduler.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, log *slog.Logger, deps jobDependencies) error {
	placementsConfig := jobs.DefaultRunPlacementsConfig()
	placementsConfig.Timeout = cfg.Scheduler.JobTimeout
	riskConfig := jobs.DefaultEvaluateRiskConfig()
	riskConfig.Timeout = cfg.Scheduler.JobTimeout
	alertsConfig := jobs.DefaultSendAlertsConfig()
	alertsConfig.Timeout = cfg.Scheduler.JobTimeout
	reportsConfig := jobs.DefaultSendReportsConfig()
	reportsConfig.Timeout = cfg.Scheduler.JobTimeout

	cronJobs := []struct {
		job  scheduler.Job
		expr string
	}{
		{jobs.NewRunPlacementsJob(deps.placements, log, placementsConfig), cfg.Scheduler.PlacementsCron},
		{jobs.NewEvaluateRiskJob(deps.risk, log, riskConfig), cfg.Scheduler.RiskCron},
		{jobs.NewSendAlertsJob(deps.alerts, log, alertsConfig), cfg.Scheduler.AlertsCron},
		{jobs.NewSendSchoolSituationJob(deps.situation, log, reportsConfig), cfg.Scheduler.SituationCron},
		{jobs.NewSendAbsenceReportJob(deps.absenceReport, log, reportsConfig), cfg.Scheduler.AbsenceReportCron},
		{jobs.NewGenerateNextYearJob(deps.calendarAdmin, log), cfg.Scheduler.CalendarCron},
	}
	for _, cj := range cronJobs {
		schedule, err := scheduler.ParseCronExpression(cj.expr)
		if err != nil {
			return fmt.Errorf("invalid cron expression %q for job %s: %w", cj.expr, cj.job.Name(), err)
		}
		if err := sched.Register(cj.job, schedule); err != nil {
			return err
		}
	}

	intervalJobs := []struct {
		job      scheduler.Job
		interval time.Duration
	}{
		{jobs.NewRecomputeWorkingWeeksJob(deps.calendarAdmin, log), cfg.Scheduler.WorkingWeeksInterval},
		{jobs.NewRetryNotificationsJob(deps.retryService, log, jobs.DefaultRetryNotificationsConfig()), cfg.Scheduler.RetryNotificationsInterval},
	}
	for _, ij := range intervalJobs {
		if err := sched.Register(ij.job, scheduler.NewIntervalSchedule(ij.interval)); err != nil {
			return err
		}
	}

	// The shipper flushes on its own interval; the job exists for forced
	// flushes from the ops API and keeps a run history.
	if deps.shipper != nil {
		job := jobs.NewShipRequestLogsJob(deps.shipper, log)
		if err := sched.Register(job, scheduler.NewIntervalSchedule(time.Hour)); err != nil {
			return err
		}
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging for the worker.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	switch cfg.Observability.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// setupHTTPLogger configures the request logger of the ops server.
func setupHTTPLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts).With(logger.Component("http"))
}

// splitAddr parses a listen address like ":8080" or "0.0.0.0:8080".
func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "0.0.0.0", 8080
	}
	if host == "" {
		host = "0.0.0.0"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 8080
	}
	return host, port
}

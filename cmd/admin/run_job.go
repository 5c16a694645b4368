package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/edualert/edualert/internal/application/command"
	"github.com/edualert/edualert/internal/application/eventhandler"
	"github.com/edualert/edualert/internal/domain/notification"
	"github.com/edualert/edualert/internal/domain/ranking"
	"github.com/edualert/edualert/internal/domain/shared"
	"github.com/edualert/edualert/internal/infrastructure/external/email"
	"github.com/edualert/edualert/internal/infrastructure/messaging"
	"github.com/edualert/edualert/internal/infrastructure/persistence/postgres"
	"github.com/edualert/edualert/internal/infrastructure/persistence/redis"
	"github.com/edualert/edualert/internal/infrastructure/scheduler"
	"github.com/edualert/edualert/internal/infrastructure/scheduler/jobs"
	"github.com/edualert/edualert/internal/infrastructure/service"
)

// runnableJobs lists the passes the admin tool can force. The request log
// shipper is absent: it only makes sense inside the worker that produces
// the access log entries.
var runnableJobs = []string{
	"generate_next_study_year",
	"calculate_semesters_working_weeks",
	"calculate_student_placements",
	"calculate_students_risk_level",
	"send_alerts",
	"send_alerts_for_school_situation",
	"send_monthly_absence_report",
	"retry_notifications",
}

func (cli *commandLine) listJobs() {
	for _, name := range runnableJobs {
		fmt.Println(name)
	}
}

// runJob wires the full command stack against the live database and runs
// one named pass to completion. Events dispatch synchronously so every
// follow-up (stats propagation, notifications) finishes before exit.
func (cli *commandLine) runJob(ctx context.Context, args []string) error {
	if len(args) < 1 {
		cli.printUsage()
		return errUsage
	}
	name := args[0]

	fs := flag.NewFlagSet("run-job", flag.ExitOnError)
	schoolUnitID := fs.String("school-unit", "", "limit the run to one school unit")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	job, err := cli.buildJob(name, *schoolUnitID)
	if err != nil {
		return err
	}

	cli.log.Info("running job", "job", name)
	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	cli.log.Info("job finished", "job", name)
	return nil
}

func (cli *commandLine) buildJob(name, schoolUnitID string) (scheduler.Job, error) {
	log := cli.log
	cfg := cli.cfg

	profileRepo := postgres.NewUserProfileRepository(cli.conn)
	schoolUnitRepo := postgres.NewSchoolUnitRepository(cli.conn)
	studyClassRepo := postgres.NewStudyClassRepository(cli.conn)
	subjectCatalogRepo := postgres.NewSubjectCatalogRepository(cli.conn)
	yearlyCatalogRepo := postgres.NewYearlyCatalogRepository(cli.conn)
	calendarRepo := postgres.NewCalendarRepository(cli.conn)
	riskCountsRepo := postgres.NewRiskCountsRepository(cli.conn)
	notificationRepo := postgres.NewNotificationRepository(cli.conn)

	var placementCache ranking.PlacementCache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cache, err := redis.NewCache(redisCfg); err != nil {
			log.Warn("Redis unavailable, placement cache skipped", "error", err)
		} else {
			placementCache = redis.NewPlacementCache(cache)
		}
	}

	var emailSender notification.Sender
	if cfg.Email.ConsoleOnly || cfg.Email.APIKey == "" {
		emailSender = service.NewConsoleSender(log)
	} else {
		sgConfig := email.DefaultSendGridConfig(cfg.Email.APIKey, cfg.Email.FromEmail)
		sgConfig.FromName = cfg.Email.FromName
		sgConfig.SubjectPrefix = cfg.Email.SubjectPrefix
		sgConfig.Logger = log
		emailSender = email.NewSendGridSender(sgConfig)
	}
	router := service.NewChannelRouter(emailSender, nil, log)

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	busConfig.AsyncMode = false
	eventBus := messaging.NewInMemoryEventBus(busConfig)

	catalogHandler := eventhandler.NewOnCatalogRecomputedHandler(subjectCatalogRepo, placementCache, log)
	riskHandler := eventhandler.NewOnRiskChangedHandler(profileRepo, studyClassRepo, router, notificationRepo, log)
	alertHandler := eventhandler.NewOnAlertRaisedHandler(profileRepo, router, notificationRepo, log)

	dispatcherConfig := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherConfig.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherConfig)
	dispatcher.Use(messaging.RecoveryMiddleware(log))

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
		if err := dispatcher.RegisterSync(reg.eventType, reg.name, reg.handler); err != nil {
			return nil, fmt.Errorf("register %s handler: %w", reg.eventType, err)
		}
	}
	if err := dispatcher.Start(); err != nil {
		return nil, fmt.Errorf("start dispatcher: %w", err)
	}

	switch name {
	case "generate_next_study_year":
		handler := command.NewCalendarAdminHandler(calendarRepo, log)
		return jobs.NewGenerateNextYearJob(handler, log), nil

	case "calculate_semesters_working_weeks":
		handler := command.NewCalendarAdminHandler(calendarRepo, log)
		return jobs.NewRecomputeWorkingWeeksJob(handler, log), nil

	case "calculate_student_placements":
		handler := command.NewPlacementsHandler(
			schoolUnitRepo, studyClassRepo, yearlyCatalogRepo, calendarRepo,
			placementCache, eventBus, log,
		)
		jobConfig := jobs.DefaultRunPlacementsConfig()
		jobConfig.SchoolUnitID = schoolUnitID
		return jobs.NewRunPlacementsJob(handler, log, jobConfig), nil

	case "calculate_students_risk_level":
		handler := command.NewRiskHandler(
			profileRepo, studyClassRepo, schoolUnitRepo,
			subjectCatalogRepo, yearlyCatalogRepo, calendarRepo,
			riskCountsRepo, eventBus, log,
		)
		jobConfig := jobs.DefaultEvaluateRiskConfig()
		jobConfig.SchoolUnitID = schoolUnitID
		return jobs.NewEvaluateRiskJob(handler, log, jobConfig), nil

	case "send_alerts":
		handler := command.NewMonthlyAlertsHandler(
			profileRepo, schoolUnitRepo, subjectCatalogRepo, calendarRepo,
			eventBus, log,
		)
		jobConfig := jobs.DefaultSendAlertsConfig()
		jobConfig.SchoolUnitID = schoolUnitID
		return jobs.NewSendAlertsJob(handler, log, jobConfig), nil

	case "send_alerts_for_school_situation":
		handler := command.NewSchoolSituationHandler(
			profileRepo, schoolUnitRepo, subjectCatalogRepo, calendarRepo,
			eventBus, log,
		)
		jobConfig := jobs.DefaultSendReportsConfig()
		jobConfig.SchoolUnitID = schoolUnitID
		return jobs.NewSendSchoolSituationJob(handler, log, jobConfig), nil

	case "send_monthly_absence_report":
		handler := command.NewAbsenceReportHandler(
			profileRepo, schoolUnitRepo, subjectCatalogRepo, calendarRepo,
			router, notificationRepo, log,
		)
		jobConfig := jobs.DefaultSendReportsConfig()
		jobConfig.SchoolUnitID = schoolUnitID
		return jobs.NewSendAbsenceReportJob(handler, log, jobConfig), nil

	case "retry_notifications":
		retryService := service.NewNotificationRetryService(notificationRepo, router, log)
		return jobs.NewRetryNotificationsJob(retryService, log, jobs.DefaultRetryNotificationsConfig()), nil

	default:
		return nil, fmt.Errorf("unknown job %q, see list-jobs", name)
	}
}

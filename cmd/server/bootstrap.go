package main

import (
	"github.com/huangang/coachflow/backend/internal/config"
	"github.com/huangang/coachflow/backend/internal/handlers"
	"github.com/huangang/coachflow/backend/internal/models"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/internal/utils"
	"github.com/huangang/coachflow/backend/pkg/logger"
	"gorm.io/gorm"
)

// appHandlers holds the HTTP handlers and the services the middleware needs.
type appHandlers struct {
	auth         *handlers.AuthHandler
	organization *handlers.OrganizationHandler
	session      *handlers.SessionHandler
	goal         *handlers.GoalHandler
	billing      *handlers.BillingHandler
	dashboard    *handlers.DashboardHandler
	systemLog    *handlers.SystemLogHandler
	health       *handlers.HealthHandler
	memberships  *services.MembershipService
}

func newAppHandlers(db *gorm.DB, cfg *config.Config, queue services.TaskQueue, notifier services.Notifier) *appHandlers {
	return &appHandlers{
		auth:         handlers.NewAuthHandler(db, &cfg.JWT),
		organization: handlers.NewOrganizationHandler(db),
		session:      handlers.NewSessionHandler(db, notifier, cfg.Server.PublicURL),
		goal:         handlers.NewGoalHandler(db),
		billing:      handlers.NewBillingHandler(db),
		dashboard:    handlers.NewDashboardHandler(db),
		systemLog:    handlers.NewSystemLogHandler(db),
		health:       handlers.NewHealthHandler(db, queue),
		memberships:  services.NewMembershipService(db),
	}
}

// appServices holds everything started at boot that needs a clean shutdown.
type appServices struct {
	handlers   *appHandlers
	taskQueue  services.TaskQueue
	worker     *services.Worker
	reconciler *services.SelectionReconciler
}

// bootstrap initializes all application dependencies: database, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database, cfg.Server.Mode == "debug"); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitSystemLogger(db)

	// queued notifications are delivered by email (or only logged without SMTP)
	notifications := services.NewNotificationService(services.NewMailer(&cfg.SMTP))
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notifications.ProcessSessionRequested)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notifications.ProcessSessionRequested)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start worker")
			}
		}
	}

	var reconciler *services.SelectionReconciler
	if cfg.Reconciler.Enabled {
		reconciler = services.NewSelectionReconciler(db, cfg.Log.RetentionDays)
		if err := reconciler.StartScheduler(cfg.Reconciler.Schedule); err != nil {
			logger.Warn().Err(err).Msg("Failed to start selection reconciler")
			reconciler = nil
		}
	}

	return &appServices{
		handlers:   newAppHandlers(db, cfg, taskQueue, services.NewQueueNotifier(taskQueue)),
		taskQueue:  taskQueue,
		worker:     worker,
		reconciler: reconciler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.reconciler != nil {
		s.reconciler.StopScheduler()
		logger.Info().Msg("Reconciler stopped")
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"taskpulse/app/handler"
	"taskpulse/app/router"
	"taskpulse/internal/scheduler"
	"taskpulse/internal/service"
	"taskpulse/pkg/config"
	"taskpulse/pkg/logger"
	"taskpulse/pkg/mailer"
	filestore "taskpulse/pkg/store/file"

	"github.com/gin-gonic/gin"
)

// Application manages the lifecycle of the entire application
type Application struct {
	// Infrastructure components
	config *config.Config

	// Stores
	recordStore    *filestore.RecordStore
	recipientStore *filestore.RecipientStore
	scheduleStore  *filestore.ScheduleStore

	// Service layer
	fetchService     *service.FetchService
	recordService    *service.RecordService
	reportService    *service.ReportService
	recipientService *service.RecipientService
	mailDispatcher   *mailer.Mailer

	// Scheduler
	registry *scheduler.Registry

	// Handler layer
	recordHandler    *handler.RecordHandler
	reportHandler    *handler.ReportHandler
	recipientHandler *handler.RecipientHandler
	scheduleHandler  *handler.ScheduleHandler

	// HTTP server
	httpServer *http.Server
	ginEngine  *gin.Engine

	// Context management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplication creates a new Application instance
func NewApplication() *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize initializes all application components
func (app *Application) Initialize() error {
	var err error

	// Initialize components in order
	steps := []struct {
		name string
		fn   func() error
	}{
		{"Configuration", app.initConfig},
		{"Logging", app.initLogger},
		{"Stores", app.initStores},
		{"Service Layer", app.initServices},
		{"Scheduler", app.initScheduler},
		{"Handler Layer", app.initHandlers},
		{"HTTP Server", app.initHTTPServer},
	}

	for _, step := range steps {
		logger.InfoCtx(app.ctx, "Initializing %s...", step.name)
		if err = step.fn(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		logger.InfoCtx(app.ctx, "%s initialized successfully", step.name)
	}

	logger.InfoCtx(app.ctx, "Application initialization completed")
	return nil
}

func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

func (app *Application) initLogger() error {
	return logger.Init()
}

func (app *Application) initStores() error {
	app.recordStore = filestore.NewRecordStore(app.config.Report.DataFile)
	app.recipientStore = filestore.NewRecipientStore(app.config.Report.RecipientsFile)
	app.scheduleStore = filestore.NewScheduleStore(app.config.Report.ScheduleFile)
	return nil
}

func (app *Application) initServices() error {
	app.fetchService = service.NewFetchService(app.config.Source, app.recordStore)
	app.recordService = service.NewRecordService(app.recordStore)
	app.reportService = service.NewReportService(app.config.Report)
	app.recipientService = service.NewRecipientService(app.recipientStore)
	app.mailDispatcher = mailer.NewMailer(app.config.Mail)
	return nil
}

func (app *Application) initScheduler() error {
	app.registry = scheduler.NewRegistry(app.fetchService, app.reportService, app.recipientService, app.mailDispatcher)

	sched, err := app.scheduleStore.Load()
	if err != nil {
		return err
	}
	return app.registry.Schedule(sched)
}

func (app *Application) initHandlers() error {
	app.recordHandler = handler.NewRecordHandler(app.recordService)
	app.reportHandler = handler.NewReportHandler(app.fetchService, app.reportService, app.recipientService, app.mailDispatcher)
	app.recipientHandler = handler.NewRecipientHandler(app.recipientService)
	app.scheduleHandler = handler.NewScheduleHandler(app.scheduleStore, app.registry)
	return nil
}

func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()
	r := router.NewRouter(app.recordHandler, app.reportHandler, app.recipientHandler, app.scheduleHandler)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}
	return nil
}

// Start starts all application components
func (app *Application) Start() error {
	logger.InfoCtx(app.ctx, "Starting application components...")

	// 1. Start the daily report scheduler
	app.registry.Start()
	if sched, ok := app.registry.Current(); ok {
		logger.InfoCtx(app.ctx, "Daily report scheduled at %02d:%02d", sched.Hour, sched.Minute)
	}

	// 2. Start HTTP server
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		addr := app.httpServer.Addr
		logger.InfoCtx(app.ctx, "HTTP server listening on: %s", addr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalCtx(app.ctx, "HTTP server error: %v", err)
		}
	}()

	logger.InfoCtx(app.ctx, "All components started successfully")
	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown(timeout time.Duration) error {
	logger.InfoCtx(app.ctx, "Starting graceful shutdown (timeout: %v)...", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// 1. Cancel background work
	app.cancel()

	// 2. Stop the scheduler, waiting for an in-flight run
	if err := app.registry.Stop(shutdownCtx); err != nil {
		logger.WarnCtx(app.ctx, "Scheduler did not stop cleanly: %v", err)
	}

	// 3. Stop HTTP server (stop accepting new requests)
	logger.InfoCtx(app.ctx, "Shutting down HTTP server...")
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(app.ctx, "HTTP server shutdown error: %v", err)
	}

	// 4. Wait for background goroutines to finish
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoCtx(app.ctx, "All background tasks completed")
	case <-shutdownCtx.Done():
		logger.WarnCtx(app.ctx, "Shutdown timeout, some tasks may not have completed")
	}

	// 5. Sync logs
	logger.Sync()

	logger.InfoCtx(app.ctx, "Graceful shutdown completed")
	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-jobs/internal/database"
	"photo-jobs/internal/filesystem"
	"photo-jobs/internal/handlers"
	"photo-jobs/internal/jobs"
	"photo-jobs/internal/logging"
	"photo-jobs/internal/memory"
	"photo-jobs/internal/metrics"
	"photo-jobs/internal/middleware"
	"photo-jobs/internal/photojobs"
	"photo-jobs/internal/scheduler"
	"photo-jobs/internal/startup"

	"github.com/gorilla/mux"
)

const statsInterval = 30 * time.Second

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	ctx := context.Background()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		config.PhotoDir: "photos",
		config.CacheDir: "cache",
	}))
	if config.MetricsEnabled {
		filesystem.SetObserver(metrics.NewFilesystemObserver())
	}

	// Job types
	registry := jobs.NewRegistry()
	photojobs.Register(registry, photojobs.Deps{
		Photos:        db,
		ThumbnailDir:  config.ThumbnailDir,
		ThumbnailSize: config.ThumbnailSize,
		WriteSidecars: config.SidecarMetadata,
		Retry:         filesystem.DefaultRetryConfig(),
	})
	if !config.ThumbnailsEnabled {
		logging.Warn("Thumbnail directory is not writable, thumbnail jobs will fail")
	}
	startup.LogSchedulerInit(registry.Types())

	opts := []scheduler.Option{
		scheduler.WithStore(db.Jobs()),
		scheduler.WithRegistry(registry),
	}
	if !config.RecoverPendingJobs {
		opts = append(opts, scheduler.WithoutRecovery())
	}
	if config.MetricsEnabled {
		metrics.InitializeMetrics(registry.Types())
		metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
		opts = append(opts, scheduler.WithListener(metrics.NewSchedulerObserver()))
	}
	sched := scheduler.New(opts...)

	lastRecovery, err := db.GetLastRecovery(ctx)
	if err != nil {
		logging.Debug("No previous job recovery recorded: %v", err)
	}
	if err := sched.Start(ctx); err != nil {
		startup.LogFatal("Failed to start scheduler: %v", err)
	}
	recovered := sched.Recovered()
	if config.MetricsEnabled {
		metrics.JobsRecoveredTotal.Add(float64(recovered))
	}
	if config.RecoverPendingJobs {
		if err := db.SetLastRecovery(ctx, time.Now()); err != nil {
			logging.Warn("Failed to record job recovery time: %v", err)
		}
	}
	startup.LogSchedulerStarted(recovered, lastRecovery)

	guard := memory.NewGuard(memory.DefaultConfig(), sched)
	guard.Start()

	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(db, sched, statsInterval)
		collector.Start()
	}

	h := handlers.New(db, sched, registry)
	router := mux.NewRouter()
	if config.MetricsEnabled {
		router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}
	h.RegisterRoutes(router, config.MetricsEnabled)

	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go handleShutdown(srv, sched, guard, collector, config.ShutdownTimeout, done)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func handleShutdown(srv *http.Server, sched *scheduler.Scheduler, guard *memory.Guard, collector *metrics.Collector, timeout time.Duration, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	guard.Stop()
	if collector != nil {
		collector.Stop()
	}

	startup.LogShutdownStep("Waiting for the running job")
	if err := sched.Shutdown(ctx); err != nil {
		logging.Warn("Scheduler shutdown: %v", err)
	} else {
		startup.LogShutdownStepComplete("Scheduler stopped")
	}

	startup.LogShutdownComplete()
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corvus-faas/control-plane/auth"
	"github.com/corvus-faas/control-plane/cache"
	"github.com/corvus-faas/control-plane/catalog"
	"github.com/corvus-faas/control-plane/config"
	"github.com/corvus-faas/control-plane/db"
	"github.com/corvus-faas/control-plane/deploy"
	"github.com/corvus-faas/control-plane/docker"
	"github.com/corvus-faas/control-plane/handlers"
	"github.com/corvus-faas/control-plane/invoke"
	"github.com/corvus-faas/control-plane/proxy"
)

func main() {
	appConfig := config.LoadAppConfig() // loads the config and stores pointer
	logger := appConfig.NewLogger()     // return a logger (slog) based on `LogFormat` (text or json)

	/*
		logger.Info() aka `slog.Logger.Info()` is just a glorified print
		The first argument is always the message (the human-readable part).
		Every argument after that must come in pairs: a Key (string) followed by a Value (any type).
	*/
	logger.Info("control plane starting",
		"host", appConfig.ServerHost,
		"port", appConfig.ServerPort,
		"log_format", appConfig.LogFormat,
	)

	// opening the database and running schema migration (init tables).
	// if this fails, the application cannot serve requests, so exit immediately.
	database, err := db.OpenDatabase(appConfig.DatabaseURL, logger)
	if err != nil {
		// log.Fatalf is used here (rather than logger.Error + os.Exit) because
		// it synchronously writes to stderr before forcing an exit, guaranteeing
		// the crash reason is printed even if the structured logger buffers output.
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.CloseDatabase()

	instanceCache, err := cache.NewRedisStore(appConfig.RedisURL, logger)
	if err != nil {
		log.Fatalf("failed to connect to instance cache: %v", err)
	}
	defer instanceCache.Close()

	dockerClient, err := docker.NewClient(appConfig.DockerHost, logger)
	if err != nil {
		log.Fatalf("failed to connect to docker daemon: %v", err)
	}
	defer dockerClient.Close()

	// --- domain services ---

	catalogStore := catalog.NewPostgresStore(database)
	authService := auth.NewService(database, appConfig.JWTSecret)

	deployPipeline := deploy.NewPipeline(catalogStore, dockerClient, logger, deploy.Config{
		LogRoot:        "/var/log/corvus/deploys",
		DefaultRuntime: appConfig.DefaultRuntime,
	})

	scheduler := invoke.NewScheduler(catalogStore, instanceCache, dockerClient, logger, appConfig.ComposeNetwork)
	requestProxy := proxy.New()

	// --- router setup ---

	router := handlers.CreateAndSetupRouter(handlers.RouterDependencies{
		Logger:          logger,
		AuthService:     authService,
		CatalogStore:    catalogStore,
		DeployPipeline:  deployPipeline,
		Scheduler:       scheduler,
		Proxy:           requestProxy,
		MaxFunctionSize: appConfig.MaxFunctionSize,
	})

	// --- HTTP server construction ---

	// Explicit HTTP Server Instantiation:
	// The standard library's http.ListenAndServe is a convenience function that
	// inits an http.Server struct with infinite timeouts by default, and calls
	// ListenAndServe() under the hood. To ensure production stability, the
	// http.Server struct is instantiated manually, with strict, finite
	// deadlines for network operations instead.
	server := &http.Server{
		Addr:         appConfig.ServerHost + ":" + appConfig.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- graceful shutdown ---
	// the server runs in a goroutine so the main goroutine can block on the
	// signal channel. when an OS signal (SIGINT from Ctrl+C or SIGTERM from
	// Docker/Kubernetes) is received, the server is given a 10-second window
	// to finish in-flight requests before it exits.
	shutdownChannel := make(chan error, 1)

	go func() {
		logger.Info("http server listening", "addr", server.Addr)

		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			// ListenAndServe always returns a non-nil error when it stops.
			// http.ErrServerClosed is the expected error on graceful shutdown,
			// so it is filtered out here.
			shutdownChannel <- err
		}
		close(shutdownChannel)
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("startup complete, server ready to serve", "addr", server.Addr)

	select {
	case sig := <-signalChannel:
		logger.Info("shutdown signal received", "signal", sig)
	case err := <-shutdownChannel:
		if err != nil {
			log.Fatalf("http server failed: %v", err)
		}
	}

	// Context-Driven Graceful Shutdown:
	// a context with a strict 10-second timeout instructs the server to stop
	// accepting new connections while allowing active connections a finite
	// grace period to complete their responses before the process exits.
	shutdownContext, cancelShutdownContext := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdownContext()

	if err := server.Shutdown(shutdownContext); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("server shut down cleanly")
	}
}

package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers the /debug/pprof handlers
	"os"

	"github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/apps/shared"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/core/user"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// set up loggers
	logger := shared.NewLogger(conf, "API")
	defer logger.Close()
	dbLogger := shared.NewLogger(conf, "DB")

	// set up DB & storage
	ctx := context.Background()
	repos, err := shared.OpenRepositories(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	objects, closeObjects, err := shared.NewObjectStore(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up object storage: %v", err), err)
	}
	defer func() { _ = closeObjects() }()

	verifier, err := shared.NewVerifier(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up auth: %v", err), err)
	}

	// set up services
	usrSvc := user.NewService(repos.Profiles)
	classSvc := classroom.NewService(repos.Classes)
	missionSvc := mission.NewService(repos.Missions, objects, shared.MissionOptions(conf, logger))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage.Backend)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Verifier:   verifier,
			UserSvc:    usrSvc,
			ClassSvc:   classSvc,
			MissionSvc: missionSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lab1702/starfarer/auth"
	"github.com/lab1702/starfarer/game"
	"github.com/lab1702/starfarer/server"
)

func main() {
	port := flag.String("port", "8080", "server port")
	scenarioFile := flag.String("scenario_file", "", "optional scenario file to pre-load on startup")
	designFile := flag.String("design_file", "./scenarios/default_ship_templates.json", "ship design template file")
	testMode := flag.Bool("test", false, "enable deterministic test mode (fixed RNG seed, Quit request allowed)")
	webServer := flag.String("web_server", "http://localhost:50001", "this node's own callback URL, for Google OAuth2")
	secret := flag.String("secret", "./secrets/google_credentials.json", "path to the Google OAuth2 credentials file")
	gcsBucket := flag.String("gcs_bucket", "", "optional gs:// bucket prefix for scenario file loading")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	templates, err := game.LoadShipTemplates(*designFile)
	if err != nil {
		log.Fatalw("loading ship templates", "error", err)
	}

	var authenticator auth.Authenticator
	if *testMode {
		authenticator = auth.NewMock()
	} else {
		g, err := auth.NewGoogle(*webServer, *secret)
		if err != nil {
			log.Fatalw("configuring Google authenticator", "error", err)
		}
		authenticator = g
	}

	var loader server.ScenarioLoader = server.LocalLoader{Dir: "./scenarios"}
	if *gcsBucket != "" {
		log.Infow("gcs_bucket set but object-store loading is not implemented; scenario loads under gs:// will fail as Transient", "bucket", *gcsBucket)
	}
	processor := server.NewProcessor(authenticator, templates, loader, log, *testMode)

	if *scenarioFile != "" {
		if _, err := processor.Registry.Create("default", *scenarioFile, loader, templates); err != nil {
			log.Fatalw("loading initial scenario", "error", err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", processor.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Infow("starting server", "port", *port, "test_mode", *testMode)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infow("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	processor.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server shutdown error", "error", err)
	}

	log.Info("server stopped")
	os.Exit(0)
}

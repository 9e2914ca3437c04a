package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"webdriver-bridge/internal/config"
	"webdriver-bridge/internal/levellog"
	"webdriver-bridge/internal/translator"
)

func main() {
	configPath := flag.String("config", "", "Path to the translator config file")
	host := flag.String("host", "", "Host to bind the public WebDriver endpoint to (overrides config)")
	port := flag.Int("port", 0, "Port to bind the public WebDriver endpoint to (overrides config)")
	maxSessions := flag.Int("max-sessions", -1, "Maximum concurrent sessions, 0 for unlimited (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config, default info)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *maxSessions >= 0 {
		cfg.Session.MaxSessions = *maxSessions
	}
	if *logLevel != "" {
		cfg.Server.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := levellog.New(log.New(os.Stderr, "[translator] ", log.LstdFlags), levellog.ParseLevel(cfg.Server.LogLevel))

	registry := translator.NewRegistry(cfg.Session.MaxSessions)
	srv := translator.NewServer(registry, cfg.Session.SpawnTimeoutDuration(), logger).
		WithDefaultScriptTimeout(cfg.Session.DefaultScriptTimeoutMs())

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Routes()}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
		srv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("error during shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exited with error: %v", err)
		}
	}
}

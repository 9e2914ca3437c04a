// Command demoapp is a minimal stand-in for a real embedded-webview
// application: it embeds the Automation Agent over a single fake window,
// used to exercise the Translator end to end without a real desktop host.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"webdriver-bridge/internal/agent"
	"webdriver-bridge/internal/fakehost"
	"webdriver-bridge/internal/levellog"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if os.Getenv("WEBDRIVER_AUTOMATION") != "true" {
		log.Fatal("demoapp is only meant to be launched by the translator; set WEBDRIVER_AUTOMATION=true to run it standalone")
	}

	logger := levellog.New(log.New(os.Stderr, "[demoapp] ", log.LstdFlags), levellog.ParseLevel(*logLevel))

	host := fakehost.NewHost(nil)
	host.AddWindow(fakehost.NewWindow("main", nil))

	srv := agent.NewServer(host, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Listen(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("agent server exited with error: %v", err)
	}
}

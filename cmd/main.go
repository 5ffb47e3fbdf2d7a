package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskpulse/internal/service"
	"taskpulse/pkg/config"
	"taskpulse/pkg/logger"
	filestore "taskpulse/pkg/store/file"
)

func main() {
	// Recipient subcommands mutate the list and exit; anything else
	// falls through to serve mode.
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "add", "remove":
			os.Exit(runRecipientCommand(os.Args[1], os.Args[2:]))
		}
	}

	// Create application instance
	app := NewApplication()

	// Initialize all components
	if err := app.Initialize(); err != nil {
		logger.FatalCtx(nil, "Application initialization failed: %v", err)
	}

	// Start all components
	if err := app.Start(); err != nil {
		logger.FatalCtx(app.ctx, "Application startup failed: %v", err)
	}

	// Wait for exit signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.InfoCtx(app.ctx, "Received exit signal: %v", sig)

	// Graceful shutdown (30 seconds timeout)
	if err := app.Shutdown(30 * time.Second); err != nil {
		logger.ErrorCtx(app.ctx, "Application shutdown failed: %v", err)
		os.Exit(1)
	}

	logger.InfoCtx(app.ctx, "Application safely exited")
}

func runRecipientCommand(verb string, args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: taskpulse %s <email>\n", verb)
		return 2
	}
	email := args[0]

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	store := filestore.NewRecipientStore(config.GlobalConfig.Report.RecipientsFile)
	recipients := service.NewRecipientService(store)

	var err error
	switch verb {
	case "add":
		err = recipients.Add(email)
	case "remove":
		err = recipients.Remove(email)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", verb, err)
		return 1
	}

	fmt.Printf("%s: %s\n", verb, email)
	return 0
}

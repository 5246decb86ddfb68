package main

import (
	"fmt"
	"os"

	"github.com/turtacn/eventflow/internal/app"
	"github.com/turtacn/eventflow/pkg/common/constants"
	"github.com/turtacn/eventflow/pkg/config"
	"github.com/turtacn/eventflow/pkg/logger"
)

func main() {
	fmt.Printf("%s version %s\n", constants.ServiceName, constants.ServiceVersion)

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	l := logger.L()
	l.Info("configuration loaded successfully")

	application, err := app.NewApplication(cfg)
	if err != nil {
		l.Fatalf("failed to bootstrap application: %v", err)
	}

	if err := application.Start(); err != nil {
		l.Fatalf("application exited with error: %v", err)
	}

	l.Info("application has shut down gracefully")
}

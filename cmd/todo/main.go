package main

import (
	"fmt"
	"os"

	"github.com/dmehra2102/TodoList/internal/infrastructure/config"
	"github.com/dmehra2102/TodoList/internal/tui"
	"github.com/dmehra2102/TodoList/pkg/client"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	api := client.New(cfg.APIBaseURL, cfg.Timeout)
	if err := tui.Run(api, cfg.Timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tracker/cmd/api/commands"
)

// @title Task Tracker API
// @version 1.0
// @description In-memory task tracking API
// @BasePath /api

func main() {
	serveCmd := commands.NewServeCommand()

	rootCmd := &cobra.Command{
		Use:   "tracker",
		Short: "Task Tracker API server",
		Long:  `Task Tracker serves a small REST API for creating, listing, updating and deleting tasks held in process memory.`,
		RunE:  serveCmd.RunE,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(commands.NewVersionCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}

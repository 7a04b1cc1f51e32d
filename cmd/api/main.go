package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/familyhub/core/cmd/api/commands"
)

// @title FamilyHub API
// @version 1.0
// @description Family calendar, tasks, reminders and voice commands

// @host localhost:8080
// @BasePath /api

func main() {
	rootCmd := &cobra.Command{
		Use:           "familyhub",
		Short:         "FamilyHub API Server",
		Long:          `FamilyHub keeps a household's calendar, chores and reminders in one place and turns spoken requests into tasks and events.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewMemberCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}

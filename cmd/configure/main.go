package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskdeck-configure",
		Short: "Data file tool for the TaskDeck API",
		Long:  "CLI tool for initializing, inspecting and verifying the TaskDeck data file",
	}

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewStatsCmd())
	rootCmd.AddCommand(commands.NewVerifyCmd())
	rootCmd.AddCommand(commands.NewSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

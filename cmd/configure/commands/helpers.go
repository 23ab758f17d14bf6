package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/store"
)

// addDataFileFlag wires the shared --data-file flag, defaulting to the
// DATA_FILE environment variable.
func addDataFileFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "data-file", os.Getenv("DATA_FILE"), "Path to the TaskDeck data file")
}

// openStore builds a store for the given path, erroring when no path was
// supplied by flag or environment.
func openStore(path string) (*store.FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("data file path is required (--data-file or DATA_FILE)")
	}
	return store.New(path, zap.NewNop()), nil
}

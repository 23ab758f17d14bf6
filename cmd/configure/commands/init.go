package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var dataFile string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fresh data file",
		Long:  "Create a data file seeded with one root group per forest (tasks, projects, labels)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(dataFile)
			if err != nil {
				return err
			}

			if _, statErr := os.Stat(st.Path()); statErr == nil && !force {
				return fmt.Errorf("data file %s already exists (use --force to overwrite)", st.Path())
			}

			err = st.Update(func(f *models.DataFile) error {
				seeded := models.DefaultDataFile()
				*f = *seeded
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to initialize data file: %w", err)
			}

			fmt.Printf("Initialized data file %s\n", st.Path())
			return nil
		},
	}

	addDataFileFlag(cmd, &dataFile)
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing data file")
	return cmd
}

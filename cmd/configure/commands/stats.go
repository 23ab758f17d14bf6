package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	var dataFile string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show data file statistics",
		Long:  "Show entity and group counts for the data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(dataFile)
			if err != nil {
				return err
			}

			return st.View(func(f *models.DataFile) error {
				completed := 0
				recurring := 0
				for _, t := range f.Tasks {
					if t.Completed {
						completed++
					}
					if t.Recurring != nil {
						recurring++
					}
				}

				fmt.Printf("Data file: %s\n", st.Path())
				fmt.Printf("  Tasks:    %d (%d completed, %d recurring)\n", len(f.Tasks), completed, recurring)
				fmt.Printf("  Projects: %d\n", len(f.Projects))
				fmt.Printf("  Labels:   %d\n", len(f.Labels))
				fmt.Printf("  Groups:   %d task / %d project / %d label\n",
					countGroups(f.TaskGroups), countGroups(f.ProjectGroups), countGroups(f.LabelGroups))
				return nil
			})
		},
	}

	addDataFileFlag(cmd, &dataFile)
	return cmd
}

func countGroups(roots []*models.Group) int {
	n := 0
	for _, g := range roots {
		n += 1 + countGroups(g.ChildGroups())
	}
	return n
}

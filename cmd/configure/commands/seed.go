package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck-api/internal/grouptree"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	var dataFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the data file with sample data",
		Long:  "Add a sample project, label, tasks and nested groups to the data file for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(dataFile)
			if err != nil {
				return err
			}

			err = st.Update(func(f *models.DataFile) error {
				if len(f.TaskGroups) == 0 || len(f.ProjectGroups) == 0 || len(f.LabelGroups) == 0 {
					seeded := models.DefaultDataFile()
					f.TaskGroups = append(f.TaskGroups, seeded.TaskGroups...)
					f.ProjectGroups = append(f.ProjectGroups, seeded.ProjectGroups...)
					f.LabelGroups = append(f.LabelGroups, seeded.LabelGroups...)
				}
				return seedSampleData(f)
			})
			if err != nil {
				return fmt.Errorf("failed to seed data file: %w", err)
			}

			fmt.Printf("Seeded sample data into %s\n", st.Path())
			return nil
		},
	}

	addDataFileFlag(cmd, &dataFile)
	return cmd
}

func seedSampleData(f *models.DataFile) error {
	now := time.Now().UTC()

	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        "Website Relaunch",
		Description: "Sample project created by the seed command",
		Color:       models.DefaultPalette[1],
		CreatedAt:   now,
	}
	f.Projects = append(f.Projects, project)

	label := &models.Label{
		ID:        uuid.NewString(),
		Name:      "urgent",
		Color:     models.DefaultPalette[6],
		CreatedAt: now,
	}
	f.Labels = append(f.Labels, label)

	dueDate := now.AddDate(0, 0, 7).Format(models.DueDateLayout)
	weekly := models.RecurringWeekly
	tasks := []*models.Task{
		{
			ID:          uuid.NewString(),
			Name:        "Draft landing page copy",
			Description: "First pass at the hero and pricing sections",
			Priority:    models.PriorityHigh,
			ProjectID:   project.ID,
			Labels:      []string{label.ID},
			DueDate:     &dueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:            uuid.NewString(),
			Name:          "Weekly status update",
			Priority:      models.PriorityMedium,
			ProjectID:     project.ID,
			Recurring:     &weekly,
			RecurringMode: models.RecurringModeDueDate,
			DueDate:       &dueDate,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	f.Tasks = append(f.Tasks, tasks...)

	taskGroup, err := grouptree.Insert(f, f.TaskGroups[0].ID, grouptree.NewGroup{
		Type:  models.GroupTypeTask,
		Name:  "Sample Tasks",
		Color: models.DefaultPalette[4],
	})
	if err != nil {
		return err
	}
	for _, t := range tasks {
		taskGroup.Items = append(taskGroup.Items, models.NewLeafRef(t.ID))
	}

	f.ProjectGroups[0].Items = append(f.ProjectGroups[0].Items, models.NewLeafRef(project.ID))
	f.LabelGroups[0].Items = append(f.LabelGroups[0].Items, models.NewLeafRef(label.ID))
	return nil
}

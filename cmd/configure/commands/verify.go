package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck-api/internal/grouptree"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var dataFile string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check data file integrity",
		Long: "Check the data file for duplicate group ids across forests, " +
			"child groups whose type differs from their parent, and leaf " +
			"references pointing at entities that no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(dataFile)
			if err != nil {
				return err
			}

			var problems []string
			err = st.View(func(f *models.DataFile) error {
				problems = verifyDataFile(f)
				return nil
			})
			if err != nil {
				return err
			}

			if len(problems) == 0 {
				fmt.Printf("Data file %s is consistent\n", st.Path())
				return nil
			}
			for _, p := range problems {
				fmt.Printf("  - %s\n", p)
			}
			return fmt.Errorf("found %d integrity problem(s)", len(problems))
		},
	}

	addDataFileFlag(cmd, &dataFile)
	return cmd
}

// verifyDataFile walks every forest and returns one message per problem
// found. Group ids are engine-generated, so any duplicate across forests
// means the file was edited by hand or merged badly; at runtime the first
// match in task, project, label order wins, which makes the duplicate
// silently unreachable.
func verifyDataFile(f *models.DataFile) []string {
	var problems []string

	seen := map[string]grouptree.Kind{}
	forests := []struct {
		kind  grouptree.Kind
		typ   models.GroupType
		roots []*models.Group
	}{
		{grouptree.KindTask, models.GroupTypeTask, f.TaskGroups},
		{grouptree.KindProject, models.GroupTypeProject, f.ProjectGroups},
		{grouptree.KindLabel, models.GroupTypeLabel, f.LabelGroups},
	}

	exists := func(kind grouptree.Kind, id string) bool {
		switch kind {
		case grouptree.KindTask:
			return f.FindTask(id) != nil
		case grouptree.KindProject:
			return f.FindProject(id) != nil
		default:
			return f.FindLabel(id) != nil
		}
	}

	for _, fo := range forests {
		for _, root := range fo.roots {
			if root.Type != fo.typ {
				problems = append(problems, fmt.Sprintf(
					"root group %s in %s forest has type %q", root.ID, fo.kind, root.Type))
			}
			walkGroup(root, func(g *models.Group) {
				if prev, dup := seen[g.ID]; dup {
					problems = append(problems, fmt.Sprintf(
						"group id %s appears in both %s and %s forests", g.ID, prev, fo.kind))
				} else {
					seen[g.ID] = fo.kind
				}
				for _, it := range g.Items {
					if it.IsGroup() {
						if it.Group.Type != g.Type {
							problems = append(problems, fmt.Sprintf(
								"group %s has type %q but its parent %s has type %q",
								it.Group.ID, it.Group.Type, g.ID, g.Type))
						}
						continue
					}
					if !exists(fo.kind, it.Ref) {
						problems = append(problems, fmt.Sprintf(
							"group %s references missing %s %s", g.ID, fo.kind, it.Ref))
					}
				}
			})
		}
	}

	return problems
}

// walkGroup visits g and every nested group below it, depth-first.
func walkGroup(g *models.Group, visit func(*models.Group)) {
	visit(g)
	for _, child := range g.ChildGroups() {
		walkGroup(child, visit)
	}
}

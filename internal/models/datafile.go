package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a flat project entity, referenced by id from project groups and
// from tasks.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Label is a flat label entity, referenced by id from label groups and from
// tasks.
type Label struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// DataFile is the whole persisted structure. One request owns it exclusively
// for the duration of a read-modify-write cycle; the store enforces that.
type DataFile struct {
	TaskGroups    []*Group   `json:"taskGroups"`
	ProjectGroups []*Group   `json:"projectGroups"`
	LabelGroups   []*Group   `json:"labelGroups"`
	Tasks         []*Task    `json:"tasks"`
	Projects      []*Project `json:"projects"`
	Labels        []*Label   `json:"labels"`
}

// NewDataFile returns an empty data file with non-nil collections so the
// persisted JSON always carries arrays.
func NewDataFile() *DataFile {
	return &DataFile{
		TaskGroups:    []*Group{},
		ProjectGroups: []*Group{},
		LabelGroups:   []*Group{},
		Tasks:         []*Task{},
		Projects:      []*Project{},
		Labels:        []*Label{},
	}
}

// DefaultDataFile returns a data file seeded with one root group per forest.
// Groups are only ever inserted under an existing parent, so a fresh
// deployment needs these roots before the API can create anything.
func DefaultDataFile() *DataFile {
	d := NewDataFile()
	roots := []struct {
		name string
		typ  GroupType
	}{
		{"Tasks", GroupTypeTask},
		{"Projects", GroupTypeProject},
		{"Labels", GroupTypeLabel},
	}
	for i, r := range roots {
		g := &Group{
			ID:    uuid.NewString(),
			Type:  r.typ,
			Name:  r.name,
			Color: DefaultPalette[i%len(DefaultPalette)],
			Items: []GroupItem{},
		}
		switch r.typ {
		case GroupTypeTask:
			d.TaskGroups = append(d.TaskGroups, g)
		case GroupTypeProject:
			d.ProjectGroups = append(d.ProjectGroups, g)
		case GroupTypeLabel:
			d.LabelGroups = append(d.LabelGroups, g)
		}
	}
	return d
}

// FindTask returns the task with the given id, or nil.
func (d *DataFile) FindTask(id string) *Task {
	for _, t := range d.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindProject returns the project with the given id, or nil.
func (d *DataFile) FindProject(id string) *Project {
	for _, p := range d.Projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindLabel returns the label with the given id, or nil.
func (d *DataFile) FindLabel(id string) *Label {
	for _, l := range d.Labels {
		if l.ID == id {
			return l
		}
	}
	return nil
}

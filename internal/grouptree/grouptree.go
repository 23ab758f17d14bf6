// Package grouptree implements find, insert, update and cascade-delete over
// the three group forests (task, project, label) of a data file.
//
// Operations are synchronous in-memory mutations; callers are expected to
// hold the store's exclusive read-modify-write cycle while invoking them.
package grouptree

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

var (
	// ErrParentNotFound is returned by Insert when the parent id does not
	// exist in any forest.
	ErrParentNotFound = errors.New("parent group not found")
	// ErrTypeMismatch is returned by Insert when the new group's type differs
	// from its parent's type. No mutation happens in that case.
	ErrTypeMismatch = errors.New("group type does not match parent type")
)

// Kind identifies which forest a group lives in.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
	KindLabel   Kind = "label"
)

// KindForType maps a group type onto its forest kind.
func KindForType(t models.GroupType) Kind {
	switch t {
	case models.GroupTypeProject:
		return KindProject
	case models.GroupTypeLabel:
		return KindLabel
	default:
		return KindTask
	}
}

type forest struct {
	kind  Kind
	roots []*models.Group
}

// forestsOf returns the forests in the fixed cross-forest search order.
// Every id is engine-generated UUID, so duplicates across forests should not
// exist; if one ever does, the first match in this order wins and the
// configure tool's verify command reports the duplicate.
func forestsOf(f *models.DataFile) [3]forest {
	return [3]forest{
		{KindTask, f.TaskGroups},
		{KindProject, f.ProjectGroups},
		{KindLabel, f.LabelGroups},
	}
}

// FindResult is a located group together with its provenance.
type FindResult struct {
	Group *models.Group
	Kind  Kind
	// Parent is the immediate parent group, nil when the group is a forest
	// root.
	Parent *models.Group
}

// Find searches the forests depth-first in fixed order (task, project,
// label) for the group with the given id. Leaf references are skipped. The
// second return value is false when no forest contains the id; callers treat
// that as a not-found condition, not a fault.
func Find(f *models.DataFile, id string) (FindResult, bool) {
	for _, fo := range forestsOf(f) {
		if g, parent, ok := findIn(fo.roots, nil, id); ok {
			return FindResult{Group: g, Kind: fo.kind, Parent: parent}, true
		}
	}
	return FindResult{}, false
}

func findIn(groups []*models.Group, parent *models.Group, id string) (*models.Group, *models.Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, parent, true
		}
		if found, p, ok := findIn(g.ChildGroups(), g, id); ok {
			return found, p, ok
		}
	}
	return nil, nil, false
}

// NewGroup describes a group to insert under an existing parent.
type NewGroup struct {
	Type        models.GroupType
	Name        string
	Description string
	// Color defaults to the first palette entry when empty.
	Color string
}

// Insert creates a group under the parent with the given id and appends it
// to the end of the parent's items. The parent must exist and its type must
// equal the new group's type; the type check runs before any mutation.
func Insert(f *models.DataFile, parentID string, ng NewGroup) (*models.Group, error) {
	res, ok := Find(f, parentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParentNotFound, parentID)
	}
	if ng.Type != res.Group.Type {
		return nil, fmt.Errorf("%w: parent is %q, new group is %q", ErrTypeMismatch, res.Group.Type, ng.Type)
	}

	color := ng.Color
	if color == "" {
		color = models.DefaultPalette[0]
	}
	g := &models.Group{
		ID:          uuid.NewString(),
		Type:        ng.Type,
		Name:        ng.Name,
		Description: ng.Description,
		Color:       color,
		Items:       []models.GroupItem{},
	}
	res.Group.Items = append(res.Group.Items, models.NewGroupItem(g))
	return g, nil
}

// Patch is a sparse field update for one group. Nil fields are left
// untouched; this is a partial patch, not a replace.
type Patch struct {
	ID          string  `json:"id" validate:"required"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// Update applies each patch to the group it names. Patches referencing
// unknown ids are silently skipped. Returns the groups actually touched, in
// patch order.
func Update(f *models.DataFile, patches []Patch) []*models.Group {
	updated := make([]*models.Group, 0, len(patches))
	for _, p := range patches {
		res, ok := Find(f, p.ID)
		if !ok {
			continue
		}
		g := res.Group
		if p.Name != nil {
			g.Name = *p.Name
		}
		if p.Description != nil {
			g.Description = *p.Description
		}
		if p.Color != nil {
			g.Color = *p.Color
		}
		updated = append(updated, g)
	}
	return updated
}

// Delete removes the group with the given id, cascading over its whole
// subtree: splicing the node out of the sequence it lives in discards every
// descendant with it. Returns false when no forest contains the id, which
// callers report as zero deletions rather than an error.
func Delete(f *models.DataFile, id string) bool {
	if removeFromRoots(&f.TaskGroups, id) {
		return true
	}
	if removeFromRoots(&f.ProjectGroups, id) {
		return true
	}
	return removeFromRoots(&f.LabelGroups, id)
}

// removeFromRoots splices the group out of the root list, or recurses into
// each root's subtree. Removal always operates by index on the original
// sequence a group lives in. The nested-group view is a derived filtered
// slice, so splicing a filtered copy would never reach the real tree.
func removeFromRoots(roots *[]*models.Group, id string) bool {
	for i, g := range *roots {
		if g.ID == id {
			*roots = append((*roots)[:i], (*roots)[i+1:]...)
			return true
		}
	}
	for _, g := range *roots {
		if removeFromItems(g, id) {
			return true
		}
	}
	return false
}

func removeFromItems(g *models.Group, id string) bool {
	for i, it := range g.Items {
		if it.Group != nil && it.Group.ID == id {
			g.Items = append(g.Items[:i], g.Items[i+1:]...)
			return true
		}
	}
	for _, it := range g.Items {
		if it.Group != nil && removeFromItems(it.Group, id) {
			return true
		}
	}
	return false
}

// RemoveLeafRef strips every leaf reference to the given entity id from the
// named forest. Used when the referenced task, project or label is deleted.
// Returns the number of references removed.
func RemoveLeafRef(f *models.DataFile, kind Kind, id string) int {
	var roots []*models.Group
	switch kind {
	case KindTask:
		roots = f.TaskGroups
	case KindProject:
		roots = f.ProjectGroups
	case KindLabel:
		roots = f.LabelGroups
	}
	removed := 0
	for _, g := range roots {
		removed += removeLeafRef(g, id)
	}
	return removed
}

func removeLeafRef(g *models.Group, id string) int {
	removed := 0
	kept := g.Items[:0]
	for _, it := range g.Items {
		if it.Group == nil && it.Ref == id {
			removed++
			continue
		}
		if it.Group != nil {
			removed += removeLeafRef(it.Group, id)
		}
		kept = append(kept, it)
	}
	g.Items = kept
	return removed
}

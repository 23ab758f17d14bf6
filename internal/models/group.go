package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GroupType identifies which of the three forests a group belongs to.
// A group's type is fixed at creation and must match its parent's type.
type GroupType string

const (
	GroupTypeTask    GroupType = "task"
	GroupTypeProject GroupType = "project"
	GroupTypeLabel   GroupType = "label"
)

// DefaultPalette is the color palette for groups. New groups created without
// an explicit color get the first entry.
var DefaultPalette = []string{
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#f59e0b", // amber
	"#10b981", // emerald
	"#06b6d4", // cyan
	"#ef4444", // red
	"#64748b", // slate
}

// Group is a node in one of the three forests. Items is an ordered mix of
// nested groups (same type) and leaf references to external entities; order
// is display order.
type Group struct {
	ID          string      `json:"id"`
	Type        GroupType   `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Color       string      `json:"color"`
	Items       []GroupItem `json:"items"`
}

// ChildGroups returns the nested-group view of Items. The returned slice is
// derived; removals must operate on the original Items sequence.
func (g *Group) ChildGroups() []*Group {
	children := make([]*Group, 0, len(g.Items))
	for _, it := range g.Items {
		if it.Group != nil {
			children = append(children, it.Group)
		}
	}
	return children
}

// GroupItem is a tagged union: exactly one of Group or Ref is set. On the
// wire a nested group is a JSON object and a leaf reference is a plain id
// string, matching the stored data file format.
type GroupItem struct {
	Group *Group
	Ref   string
}

// NewGroupItem wraps a nested group as an items entry.
func NewGroupItem(g *Group) GroupItem { return GroupItem{Group: g} }

// NewLeafRef wraps an external entity id as an items entry.
func NewLeafRef(id string) GroupItem { return GroupItem{Ref: id} }

// IsGroup reports whether the entry is a nested group rather than a leaf
// reference.
func (it GroupItem) IsGroup() bool { return it.Group != nil }

func (it GroupItem) MarshalJSON() ([]byte, error) {
	if it.Group != nil {
		return json.Marshal(it.Group)
	}
	return json.Marshal(it.Ref)
}

func (it *GroupItem) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		it.Group = nil
		return json.Unmarshal(trimmed, &it.Ref)
	}
	g := &Group{}
	if err := json.Unmarshal(data, g); err != nil {
		return fmt.Errorf("group item must be a nested group object or an id string: %w", err)
	}
	it.Group = g
	it.Ref = ""
	return nil
}

// ValidGroupType reports whether t is one of the three known forest types.
func ValidGroupType(t GroupType) bool {
	switch t {
	case GroupTypeTask, GroupTypeProject, GroupTypeLabel:
		return true
	default:
		return false
	}
}

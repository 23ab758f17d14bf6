package models

import (
	"encoding/json"
	"testing"
)

func TestGroupItemUnmarshalMixedItems(t *testing.T) {
	t.Parallel()

	body := `{
		"id": "g1",
		"type": "task",
		"name": "Inbox",
		"color": "#3b82f6",
		"items": [
			"task-1",
			{"id": "g2", "type": "task", "name": "Nested", "color": "#8b5cf6", "items": ["task-2"]},
			"task-3"
		]
	}`

	var g Group
	if err := json.Unmarshal([]byte(body), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(g.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(g.Items))
	}
	if g.Items[0].IsGroup() || g.Items[0].Ref != "task-1" {
		t.Errorf("items[0] = %+v, want leaf ref task-1", g.Items[0])
	}
	if !g.Items[1].IsGroup() || g.Items[1].Group.ID != "g2" {
		t.Fatalf("items[1] = %+v, want nested group g2", g.Items[1])
	}
	if g.Items[2].IsGroup() || g.Items[2].Ref != "task-3" {
		t.Errorf("items[2] = %+v, want leaf ref task-3", g.Items[2])
	}

	nested := g.Items[1].Group
	if len(nested.Items) != 1 || nested.Items[0].Ref != "task-2" {
		t.Errorf("nested items = %+v", nested.Items)
	}
}

func TestGroupItemMarshalPreservesOrderAndShape(t *testing.T) {
	t.Parallel()

	g := Group{
		ID:    "g1",
		Type:  GroupTypeTask,
		Name:  "Inbox",
		Color: "#3b82f6",
		Items: []GroupItem{
			NewLeafRef("task-1"),
			NewGroupItem(&Group{ID: "g2", Type: GroupTypeTask, Name: "Nested", Color: "#8b5cf6", Items: []GroupItem{}}),
		},
	}

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal wrapper: %v", err)
	}
	if len(decoded.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(decoded.Items))
	}
	if decoded.Items[0][0] != '"' {
		t.Errorf("leaf ref must serialize as a plain string, got %s", decoded.Items[0])
	}
	if decoded.Items[1][0] != '{' {
		t.Errorf("nested group must serialize as an object, got %s", decoded.Items[1])
	}
}

func TestGroupItemUnmarshalRejectsInvalidEntry(t *testing.T) {
	t.Parallel()

	var it GroupItem
	if err := json.Unmarshal([]byte(`42`), &it); err == nil {
		t.Error("expected error for non-string non-object item")
	}
}

func TestChildGroupsIsDerivedView(t *testing.T) {
	t.Parallel()

	nested := &Group{ID: "g2", Type: GroupTypeTask}
	g := Group{
		ID:   "g1",
		Type: GroupTypeTask,
		Items: []GroupItem{
			NewLeafRef("task-1"),
			NewGroupItem(nested),
			NewLeafRef("task-2"),
		},
	}

	children := g.ChildGroups()
	if len(children) != 1 || children[0].ID != "g2" {
		t.Fatalf("children = %+v", children)
	}

	// mutating the derived slice must not touch the original items
	children[0] = nil
	if !g.Items[1].IsGroup() || g.Items[1].Group.ID != "g2" {
		t.Error("derived view aliased into Items")
	}
}

func TestValidGroupType(t *testing.T) {
	t.Parallel()

	for _, typ := range []GroupType{GroupTypeTask, GroupTypeProject, GroupTypeLabel} {
		if !ValidGroupType(typ) {
			t.Errorf("ValidGroupType(%q) = false", typ)
		}
	}
	if ValidGroupType("folder") {
		t.Error(`ValidGroupType("folder") = true`)
	}
}

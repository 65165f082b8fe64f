package decomposition

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
)

// threeLevelTree has mixed states: expanded, collapsed, unexpanded,
// raw and depth-capped nodes.
func threeLevelTree() *models.Node {
	return &models.Node{ID: "root", Name: "台灯", Icon: "💡", State: models.StateExpanded, Children: []*models.Node{
		{ID: "shade", Name: "灯罩", Description: "遮光", State: models.StateCollapsed, Children: []*models.Node{
			{ID: "fabric", Name: "棉/植物纤维", State: models.StateTerminal},
			{ID: "frame", Name: "金属骨架", State: models.StateExpanded, Children: []*models.Node{
				{ID: "ore", Name: "铁矿石", State: models.StateTerminal},
				{ID: "weld", Name: "焊点", State: models.StateTerminal, DepthCapped: true},
			}},
		}},
		{ID: "base", Name: "底座", SearchTerm: "lamp base", ImageURL: "https://img/base.jpg", State: models.StateUnexpanded},
		{ID: "oil", Name: "原油", State: models.StateTerminal},
	}}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := NewSession("user-1", threeLevelTree(), &models.PromptSettings{Humor: 60}, &models.Identification{Name: "台灯", Category: "家居"})
	if err := s.Drag("base", 15, -20); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	s.StoreCard("shade", &models.KnowledgeCard{
		Title:          "灯罩制造流程",
		DocumentNumber: "PROC-123456",
		Steps: []models.CardStep{{
			StepNumber:  1,
			Title:       "编织",
			Description: "将棉/植物纤维织成布",
			Parameters:  []models.CardParameter{{Label: "温度", Value: "25°C"}},
		}},
	})

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored, err := Rehydrate(&snap, "user-1")
	if err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}

	if diff := cmp.Diff(s.Root(), restored.Root()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.Overrides(), restored.Overrides()); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.Snapshot().Cards, restored.Snapshot().Cards); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.PromptSettings(), restored.PromptSettings()); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if restored.ID == s.ID {
		t.Error("a rehydrated session gets a fresh live id")
	}
}

func TestRehydrate_RejectsBadSnapshots(t *testing.T) {
	tests := []struct {
		name string
		snap *models.Snapshot
	}{
		{"nil", nil},
		{"no tree", &models.Snapshot{Version: 1}},
		{"future version", &models.Snapshot{Version: 99, Tree: &models.NodeDocument{ID: "a", Name: "a"}}},
		{"duplicate ids", &models.Snapshot{Version: 1, Tree: &models.NodeDocument{ID: "a", Name: "a", IsExpanded: true,
			Children: []*models.NodeDocument{{ID: "a", Name: "b"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Rehydrate(tt.snap, "u"); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRehydrate_DropsStaleOverridesAndCards(t *testing.T) {
	snap := &models.Snapshot{
		Version:   1,
		Tree:      &models.NodeDocument{ID: "a", Name: "a"},
		Positions: map[string]models.Position{"a": {X: 1, Y: 2}, "gone": {X: 3, Y: 4}},
		Cards:     map[string]*models.KnowledgeCard{"gone": {Title: "x"}},
	}
	s, err := Rehydrate(snap, "u")
	if err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}
	if got := s.Overrides(); len(got) != 1 {
		t.Errorf("overrides = %v", got)
	}
	if _, ok := s.Card("gone"); ok {
		t.Error("card for missing node kept")
	}
}

func TestSession_DragCascade(t *testing.T) {
	root := threeLevelTree()
	s := NewSession("u", root, nil, nil)
	// Reveal everything so all descendants are rendered.
	s.setExpanded("shade")

	before := s.Layout().Positions()
	if err := s.Drag("shade", 40, -25); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	after := s.Layout().Positions()

	moved := append([]string{"shade"}, models.CollectDescendantIDs(s.Root(), "shade")...)
	inSubtree := map[string]bool{}
	for _, id := range moved {
		inSubtree[id] = true
		b, a := before[id], after[id]
		if a.X-b.X != 40 || a.Y-b.Y != -25 {
			t.Errorf("%s moved by (%v, %v), want (40, -25)", id, a.X-b.X, a.Y-b.Y)
		}
	}
	for id, b := range before {
		if inSubtree[id] {
			continue
		}
		if after[id] != b {
			t.Errorf("%s outside the subtree moved: %v -> %v", id, b, after[id])
		}
	}
}

func TestSession_DragUnknownNode(t *testing.T) {
	s := NewSession("u", threeLevelTree(), nil, nil)
	if err := s.Drag("nope", 1, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSession_LayoutMemo(t *testing.T) {
	s := NewSession("u", threeLevelTree(), nil, nil)

	first := s.Layout()
	if second := s.Layout(); first != second {
		t.Error("layout should be memoized while versions are unchanged")
	}

	s.setExpanded("shade")
	third := s.Layout()
	if third == first {
		t.Error("tree change must invalidate the memo")
	}

	if err := s.Drag("root", 1, 1); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	if s.Layout() == third {
		t.Error("drag must invalidate the memo")
	}
}

func TestSession_StoreCardIgnoresMissingNode(t *testing.T) {
	s := NewSession("u", threeLevelTree(), nil, nil)
	s.StoreCard("missing", &models.KnowledgeCard{Title: "x"})
	if _, ok := s.Card("missing"); ok {
		t.Error("card stored for missing node")
	}
}

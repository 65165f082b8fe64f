package decomposition

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	models "breakdown/internal/domain/models/decomposition"
)

func TestExplode_TerminatesUnderAdversarialBackend(t *testing.T) {
	var counter int64
	// Never returns a raw material.
	completer := &fakeCompleter{text: func(int, string) (string, error) {
		n := atomic.AddInt64(&counter, 2)
		return partsJSON(t, "x",
			testPart{Name: fmt.Sprintf("部件%d", n-1)},
			testPart{Name: fmt.Sprintf("部件%d", n)},
		), nil
	}}
	const maxDepth = 4
	c := newTestController(t, completer, maxDepth)
	s := newTestSession("无限")

	events := make(chan models.ExplodeEvent, 256)
	if err := c.Explode(context.Background(), s, "root", 3, events); err != nil {
		t.Fatalf("Explode: %v", err)
	}
	close(events)

	var done *models.ExplodeEvent
	expandedEvents := 0
	for ev := range events {
		switch ev.Type {
		case models.EventExpanded:
			expandedEvents++
		case models.EventDone:
			e := ev
			done = &e
		}
	}
	if done == nil {
		t.Fatal("missing done event")
	}

	// Full binary tree down to maxDepth-1 is expanded: 1+2+4+8 nodes.
	if want := 15; expandedEvents != want || done.Expanded != want {
		t.Errorf("expanded = %d (done says %d), want %d", expandedEvents, done.Expanded, want)
	}
	if completer.callCount() != 15 {
		t.Errorf("backend calls = %d, want 15", completer.callCount())
	}

	models.Walk(s.Root(), func(n *models.Node, depth int) bool {
		if depth > maxDepth {
			t.Errorf("node %s at depth %d beyond max %d", n.ID, depth, maxDepth)
		}
		if depth == maxDepth && (!n.IsTerminal() || !n.DepthCapped) {
			t.Errorf("leaf %s at max depth not capped: %s", n.ID, n.State)
		}
		if n.IsTerminal() && n.HasChildren() {
			t.Errorf("terminal node %s has children", n.ID)
		}
		return true
	})
}

func TestExplode_ReportsFailuresAndContinues(t *testing.T) {
	completer := &fakeCompleter{text: func(_ int, prompt string) (string, error) {
		switch {
		case containsItem(prompt, "根"):
			return partsJSON(t, "根", testPart{Name: "好"}, testPart{Name: "坏"}), nil
		case containsItem(prompt, "好"):
			return partsJSON(t, "好", testPart{Name: "铁矿石", Raw: true}), nil
		default:
			return "{broken", nil
		}
	}}
	c := newTestController(t, completer, 6)
	s := newTestSession("根")

	events := make(chan models.ExplodeEvent, 64)
	if err := c.Explode(context.Background(), s, "root", 2, events); err != nil {
		t.Fatalf("Explode: %v", err)
	}
	close(events)

	var failed []string
	var done models.ExplodeEvent
	for ev := range events {
		if ev.Type == models.EventFailed {
			failed = append(failed, ev.Name)
		}
		if ev.Type == models.EventDone {
			done = ev
		}
	}
	if len(failed) != 1 || failed[0] != "坏" {
		t.Errorf("failed = %v", failed)
	}
	if done.Expanded != 2 || done.Failed != 1 {
		t.Errorf("done = %+v", done)
	}
	if bad := s.Root().Children[1]; bad.State != models.StateUnexpanded {
		t.Errorf("failed node state = %s", bad.State)
	}
}

func TestExplode_ReopensCollapsedNodes(t *testing.T) {
	c := newTestController(t, &fakeCompleter{}, 6)
	root := &models.Node{ID: "root", Name: "r", State: models.StateCollapsed, Children: []*models.Node{
		{ID: "a", Name: "a", State: models.StateTerminal},
	}}
	s := NewSession("user-1", root, nil, nil)

	if err := c.Explode(context.Background(), s, "root", 1, nil); err != nil {
		t.Fatalf("Explode: %v", err)
	}
	if !s.Root().IsExpanded() {
		t.Errorf("root state = %s", s.Root().State)
	}
}

func containsItem(prompt, item string) bool {
	return slices.Contains(strings.Split(prompt, "\n"), "Item: "+item)
}

package layout

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	models "breakdown/internal/domain/models/decomposition"
)

func sampleTree() *models.Node {
	return &models.Node{ID: "root", Name: "root", State: models.StateExpanded, Children: []*models.Node{
		{ID: "a", Name: "a", State: models.StateExpanded, Children: []*models.Node{
			{ID: "a1", Name: "a1", State: models.StateTerminal},
			{ID: "a2", Name: "a2", State: models.StateCollapsed, Children: []*models.Node{
				{ID: "a2x", Name: "a2x", State: models.StateTerminal},
			}},
		}},
		{ID: "b", Name: "b", State: models.StateUnexpanded},
		{ID: "c", Name: "c", State: models.StateTerminal},
		{ID: "d", Name: "d", State: models.StateTerminal, DepthCapped: true},
	}}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCompute_RootAtCenter(t *testing.T) {
	opts := DefaultOptions()
	l := Compute(sampleTree(), nil, opts)

	root, ok := l.Node("root")
	if !ok {
		t.Fatal("root missing")
	}
	if !near(root.CenterX, 600) || !near(root.CenterY, 400) {
		t.Errorf("root center = (%v, %v)", root.CenterX, root.CenterY)
	}
	if !near(root.X, 500) || !near(root.Y, 325) {
		t.Errorf("root top-left = (%v, %v), want (500, 325)", root.X, root.Y)
	}
	if root.Scale != 1 || root.Level != 0 {
		t.Errorf("root scale=%v level=%d", root.Scale, root.Level)
	}
}

func TestCompute_VisibilityAndEdges(t *testing.T) {
	l := Compute(sampleTree(), nil, DefaultOptions())

	got := make([]string, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		got = append(got, n.NodeID)
	}
	want := []string{"root", "a", "a1", "a2", "b", "c", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visible nodes (-want +got):\n%s", diff)
	}
	if len(l.Edges) != 6 {
		t.Errorf("edges = %d, want 6", len(l.Edges))
	}
	for _, e := range l.Edges {
		if e.ID != e.From+"-"+e.To {
			t.Errorf("edge id %q", e.ID)
		}
		if e.To == "c" && !e.RawMaterial {
			t.Error("edge to raw material should be marked")
		}
		if e.To == "d" && e.RawMaterial {
			t.Error("depth-capped node is not a raw material")
		}
	}
}

func TestCompute_RadiusAndScale(t *testing.T) {
	opts := DefaultOptions()
	l := Compute(sampleTree(), nil, opts)

	root, _ := l.Node("root")
	a, _ := l.Node("a")
	a1, _ := l.Node("a1")

	if d := math.Hypot(a.CenterX-root.CenterX, a.CenterY-root.CenterY); !near(d, opts.RadiusStep) {
		t.Errorf("depth 1 distance = %v, want %v", d, opts.RadiusStep)
	}
	wantD2 := opts.RadiusStep * (1 + opts.LogDamping*math.Log(2))
	if d := math.Hypot(a1.CenterX-a.CenterX, a1.CenterY-a.CenterY); !near(d, wantD2) {
		t.Errorf("depth 2 distance = %v, want %v", d, wantD2)
	}
	if !near(a1.Scale, 0.8) || !near(a1.Width, 160) || !near(a1.Height, 120) {
		t.Errorf("depth 2 size = %v x %v (scale %v)", a1.Width, a1.Height, a1.Scale)
	}
	if got := opts.Scale(10); got != opts.MinScale {
		t.Errorf("scale floor = %v", got)
	}
}

func TestCompute_ChildrenFanForward(t *testing.T) {
	l := Compute(sampleTree(), nil, DefaultOptions())
	root, _ := l.Node("root")
	a, _ := l.Node("a")

	outward := math.Atan2(a.CenterY-root.CenterY, a.CenterX-root.CenterX)
	for _, id := range []string{"a1", "a2"} {
		n, _ := l.Node(id)
		angle := math.Atan2(n.CenterY-a.CenterY, n.CenterX-a.CenterX)
		diff := math.Abs(math.Remainder(angle-outward, 2*math.Pi))
		if diff > math.Pi/4+1e-9 {
			t.Errorf("%s is %v rad off the outward direction", id, diff)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	overrides := map[string]models.Position{"b": {X: 10, Y: 20}}
	first := Compute(sampleTree(), overrides, DefaultOptions())
	second := Compute(sampleTree(), overrides, DefaultOptions())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("layout not deterministic:\n%s", diff)
	}
}

func TestCompute_OverrideMovesChildren(t *testing.T) {
	opts := DefaultOptions()
	base := Compute(sampleTree(), nil, opts)
	a, _ := base.Node("a")
	a1, _ := base.Node("a1")

	overrides := map[string]models.Position{"a": {X: a.X + 100, Y: a.Y}}
	moved := Compute(sampleTree(), overrides, opts)
	ma, _ := moved.Node("a")
	ma1, _ := moved.Node("a1")

	if !ma.Overridden || ma.X != a.X+100 {
		t.Errorf("override not applied: %+v", ma)
	}
	if near(ma1.CenterX, a1.CenterX) && near(ma1.CenterY, a1.CenterY) {
		t.Error("children should fan out from the overridden position")
	}
}

func TestDrag_CascadesThroughSubtree(t *testing.T) {
	opts := DefaultOptions()
	tree := sampleTree()
	before := Compute(tree, nil, opts).Positions()

	overrides, err := Drag(tree, nil, "a", 30, -40, opts)
	if err != nil {
		t.Fatalf("Drag: %v", err)
	}
	after := Compute(tree, overrides, opts).Positions()

	for _, id := range []string{"a", "a1", "a2"} {
		if !near(after[id].X-before[id].X, 30) || !near(after[id].Y-before[id].Y, -40) {
			t.Errorf("%s moved by (%v, %v)", id, after[id].X-before[id].X, after[id].Y-before[id].Y)
		}
	}
	for _, id := range []string{"root", "b", "c", "d"} {
		if after[id] != before[id] {
			t.Errorf("%s should not move", id)
		}
	}
	// Hidden descendant is pinned too, so revealing it keeps the formation.
	if _, ok := overrides["a2x"]; !ok {
		t.Error("hidden descendant should get an override")
	}
}

func TestDrag_KeepsUnrelatedOverrides(t *testing.T) {
	in := map[string]models.Position{"b": {X: 1, Y: 2}}
	out, err := Drag(sampleTree(), in, "c", 5, 5, DefaultOptions())
	if err != nil {
		t.Fatalf("Drag: %v", err)
	}
	if out["b"] != in["b"] {
		t.Error("unrelated override changed")
	}
	if len(in) != 1 {
		t.Error("input map was modified")
	}
}

func TestDrag_UnknownNode(t *testing.T) {
	if _, err := Drag(sampleTree(), nil, "zzz", 1, 1, DefaultOptions()); err == nil {
		t.Fatal("expected error")
	}
}

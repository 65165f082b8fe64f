package decomposition

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDocumentRoundTrip(t *testing.T) {
	root := sampleTree()
	root.Children[1] = &Node{ID: "b", Name: "B", State: StateTerminal, DepthCapped: true}

	data, err := json.Marshal(ToDocument(root))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc NodeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, err := FromDocument(&doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if diff := cmp.Diff(root, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToDocument_LoadingBecomesUnexpanded(t *testing.T) {
	root := &Node{ID: "r", Name: "R", State: StateLoading}
	got, err := FromDocument(ToDocument(root))
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if got.State != StateUnexpanded {
		t.Errorf("state = %v, want unexpanded", got.State)
	}
}

func TestFromDocument_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     *NodeDocument
		wantErr string
	}{
		{"nil", nil, "no tree"},
		{"missing id", &NodeDocument{Name: "x"}, "no id"},
		{"missing name", &NodeDocument{ID: "x"}, "no name"},
		{
			"duplicate ids",
			&NodeDocument{ID: "x", Name: "x", Children: []*NodeDocument{{ID: "x", Name: "y"}}},
			"duplicate",
		},
		{
			"raw with children",
			&NodeDocument{ID: "x", Name: "x", IsRawMaterial: true, Children: []*NodeDocument{{ID: "y", Name: "y"}}},
			"terminal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument(tt.doc)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

package knowledge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	models "breakdown/internal/domain/models/decomposition"
)

func TestHighlight(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		names []string
		want  []models.TextSegment
	}{
		{
			name:  "no names",
			text:  "冲压成型",
			names: nil,
			want:  []models.TextSegment{{Text: "冲压成型"}},
		},
		{
			name:  "single match",
			text:  "把金属骨架冲压成型",
			names: []string{"金属骨架"},
			want: []models.TextSegment{
				{Text: "把"},
				{Text: "金属骨架", Highlight: true},
				{Text: "冲压成型"},
			},
		},
		{
			name:  "longest wins",
			text:  "金属骨架和金属",
			names: []string{"金属", "金属骨架"},
			want: []models.TextSegment{
				{Text: "金属骨架", Highlight: true},
				{Text: "和"},
				{Text: "金属", Highlight: true},
			},
		},
		{
			name:  "adjacent and duplicate names",
			text:  "铜线铜线",
			names: []string{"铜线", "铜线", " "},
			want: []models.TextSegment{
				{Text: "铜线", Highlight: true},
				{Text: "铜线", Highlight: true},
			},
		},
		{
			name:  "empty text",
			text:  "",
			names: []string{"x"},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Highlight(tt.text, tt.names)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("segments (-want +got):\n%s", diff)
			}
		})
	}
}

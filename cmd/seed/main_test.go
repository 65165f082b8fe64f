package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitItems(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{defaultItems, []string{"自行车", "台灯", "智能手机"}},
		{" 杯子 , ,椅子,", []string{"杯子", "椅子"}},
		{"", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitItems(tt.in)); diff != "" {
			t.Errorf("splitItems(%q) (-want +got):\n%s", tt.in, diff)
		}
	}
}

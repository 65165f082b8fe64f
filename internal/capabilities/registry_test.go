package capabilities

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestRegistry_LoadsEmbeddedProviders(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	got := r.GetAllProviders()
	want := []string{"anthropic", "gemini", "offline", "openai", "openrouter"}
	if len(got) != len(want) {
		t.Fatalf("providers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("providers = %v, want %v", got, want)
		}
	}
}

func TestRegistry_GetModelCapabilities(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tests := []struct {
		name       string
		provider   string
		model      string
		wantVision bool
		wantErr    bool
	}{
		{"anthropic listed", "anthropic", "claude-haiku-4-5-20251001", true, false},
		{"openrouter text only", "openrouter", "moonshotai/kimi-k2", false, false},
		{"openai unlisted uses defaults", "openai", "some-local-model", true, false},
		{"anthropic unlisted rejected", "anthropic", "claude-unknown", false, true},
		{"unknown provider", "nope", "x", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps, err := r.GetModelCapabilities(tt.provider, tt.model)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if caps.ID != tt.model {
				t.Errorf("ID = %q, want %q", caps.ID, tt.model)
			}
			if caps.SupportsVision != tt.wantVision {
				t.Errorf("SupportsVision = %v, want %v", caps.SupportsVision, tt.wantVision)
			}
		})
	}
}

func TestRegistry_PreservesYAMLOrder(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	models, err := r.ListProviderModels("gemini")
	if err != nil {
		t.Fatalf("ListProviderModels: %v", err)
	}
	if len(models) != 2 || models[0].ID != "gemini-2.5-flash" || models[1].ID != "gemini-2.5-pro" {
		t.Fatalf("unexpected order: %+v", models)
	}
}

func TestLoadFS(t *testing.T) {
	valid := "provider: local\nmodels:\n  tiny:\n    display_name: Tiny\n    max_output: 512\n"

	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{"valid", fstest.MapFS{"local.yaml": {Data: []byte(valid)}}, ""},
		{"empty dir", fstest.MapFS{}, "no capability files"},
		{"name mismatch", fstest.MapFS{"remote.yaml": {Data: []byte(valid)}}, `want "remote"`},
		{"no models", fstest.MapFS{"bare.yaml": {Data: []byte("provider: bare\n")}}, "no models"},
		{"bad yaml", fstest.MapFS{"x.yaml": {Data: []byte("provider: [")}}, "parse x.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := LoadFS(tt.files)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFS: %v", err)
			}
			caps, err := r.GetModelCapabilities("local", "tiny")
			if err != nil || caps.MaxOutput != 512 {
				t.Fatalf("caps = %+v, err = %v", caps, err)
			}
		})
	}
}

func TestListProviderModels_ReturnsCopy(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	models, _ := r.ListProviderModels("gemini")
	models[0].ID = "changed"

	again, _ := r.ListProviderModels("gemini")
	if again[0].ID != "gemini-2.5-flash" {
		t.Errorf("registry mutated through returned slice: %q", again[0].ID)
	}
}

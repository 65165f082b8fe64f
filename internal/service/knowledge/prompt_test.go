package knowledge

import (
	"errors"
	"strings"
	"testing"

	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
)

func TestCompileCardPrompt(t *testing.T) {
	node := &models.Node{ID: "n1", Name: "轮胎"}
	got := CompileCardPrompt(node, []string{"天然橡胶", "钢丝"}, "English")

	for _, want := range []string{
		"Item: 轮胎",
		"Document number: " + DocumentNumber("n1"),
		"Components:\n- 天然橡胶\n- 钢丝\n",
		"1 to 5 steps",
		"in English",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if got != CompileCardPrompt(node, []string{"天然橡胶", "钢丝"}, "English") {
		t.Error("prompt is not deterministic")
	}
}

func TestNormalizeCard(t *testing.T) {
	raw := `{"title": " 轮胎制造 ", "steps": [
		{"action_title": "硫化", "description": "天然橡胶硫化", "parameters": [{"label": "温度", "value": "150°C"}]},
		{"title": "成型", "step_number": 7, "description": "钢丝成型"}
	]}`
	card, err := NormalizeCard(raw, "PROC-000042")
	if err != nil {
		t.Fatalf("NormalizeCard: %v", err)
	}
	if card.Title != "轮胎制造" || card.DocumentNumber != "PROC-000042" {
		t.Errorf("header = %q %q", card.Title, card.DocumentNumber)
	}
	if card.Steps[0].StepNumber != 1 || card.Steps[0].Title != "硫化" {
		t.Errorf("step 0 = %+v", card.Steps[0])
	}
	if card.Steps[1].StepNumber != 7 || card.Steps[1].Title != "成型" {
		t.Errorf("step 1 = %+v", card.Steps[1])
	}
}

func TestNormalizeCard_CapsSteps(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"title": "t", "steps": [`)
	for i := 0; i < 8; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"description": "d"}`)
	}
	b.WriteString("]}")

	card, err := NormalizeCard(b.String(), "PROC-1")
	if err != nil {
		t.Fatalf("NormalizeCard: %v", err)
	}
	if len(card.Steps) != MaxSteps {
		t.Errorf("steps = %d, want %d", len(card.Steps), MaxSteps)
	}
}

func TestNormalizeCard_Malformed(t *testing.T) {
	for _, raw := range []string{
		`{"steps": [{"description": "d"}]}`,
		`{"title": "t"}`,
		`{"title": "t", "steps": []}`,
		`{"title": "t", "steps": [{"action_title": "x"}]}`,
		`{"title": `,
	} {
		_, err := NormalizeCard(raw, "PROC-1")
		var malformed *domain.MalformedResponseError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: expected MalformedResponseError, got %v", raw, err)
		}
	}
}

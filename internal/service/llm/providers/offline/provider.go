// Package offline is a deterministic completion backend that needs no API
// key. It answers decomposition, identification and knowledge-card prompts
// with canned JSON derived from the prompt text, for local runs and demos.
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"

	"breakdown/internal/catalog"
	domainllm "breakdown/internal/domain/services/llm"
)

var (
	itemLine      = regexp.MustCompile(`(?m)^Item:\s*(.+)$`)
	levelLine     = regexp.MustCompile(`(?m)^Current level:\s*(\d+)\s+of\s+(\d+)`)
	docNumberLine = regexp.MustCompile(`(?m)^Document number:\s*(\S+)`)
	componentLine = regexp.MustCompile(`(?m)^-\s+(.+)$`)
)

// Provider generates canned responses. Delay simulates latency.
type Provider struct {
	catalog *catalog.Catalog
	delay   time.Duration
}

func NewProvider(c *catalog.Catalog, delay time.Duration) *Provider {
	return &Provider{catalog: c, delay: delay}
}

func (p *Provider) Name() string {
	return "offline"
}

func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (string, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	var payload any
	switch {
	case req.Modality == domainllm.ModalityVision:
		payload = p.identify()
	case strings.Contains(req.Prompt, "Components:"):
		payload = p.card(req.Prompt)
	default:
		payload = p.decompose(req.Prompt)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	// Real models often fence their JSON; do the same.
	return "```json\n" + string(data) + "\n```", nil
}

func (p *Provider) identify() map[string]any {
	return map[string]any{
		"name":              "台灯",
		"category":          "家居用品",
		"brief_description": "一盏带金属灯臂的桌面台灯",
		"icon":              "💡",
		"searchTerm":        "desk lamp",
	}
}

type part struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	IsRawMaterial bool   `json:"is_raw_material"`
	Icon          string `json:"icon"`
	SearchTerm    string `json:"searchTerm"`
}

func (p *Provider) decompose(prompt string) map[string]any {
	item := match(itemLine, prompt, "物品")
	level, maxLevel := 0, 6
	if m := levelLine.FindStringSubmatch(prompt); m != nil {
		level, _ = strconv.Atoi(m[1])
		maxLevel, _ = strconv.Atoi(m[2])
	}

	h := hash(item)
	materials := p.catalog.Materials
	parts := make([]part, 0, 4)

	// Two intermediate components while there is depth left, then raw materials.
	if level < maxLevel-2 {
		for i, suffix := range []string{"外壳", "核心组件"} {
			parts = append(parts, part{
				Name:        fmt.Sprintf("%s%s", item, suffix),
				Description: fmt.Sprintf("%s的第%d个主要部分", item, i+1),
				Icon:        "⚙️",
				SearchTerm:  "component",
			})
		}
	}
	for i := 0; len(parts) < 4; i++ {
		m := materials[(int(h)+i*5)%len(materials)]
		parts = append(parts, part{
			Name:          m.NameZH,
			Description:   "天然原材料",
			IsRawMaterial: true,
			Icon:          m.Icon,
			SearchTerm:    strings.ToLower(m.Name),
		})
	}

	return map[string]any{
		"parent_item": item,
		"parts":       parts,
	}
}

func (p *Provider) card(prompt string) map[string]any {
	item := match(itemLine, prompt, "物品")
	docNumber := match(docNumberLine, prompt, "PROC-000000")

	var components []string
	for _, m := range componentLine.FindAllStringSubmatch(prompt, -1) {
		components = append(components, strings.TrimSpace(m[1]))
	}

	steps := make([]map[string]any, 0, len(components))
	for i, c := range components {
		if i == 5 {
			break
		}
		steps = append(steps, map[string]any{
			"step_number":  i + 1,
			"action_title": "加工" + c,
			"description":  fmt.Sprintf("将%s加工成型，并装配到%s中。", c, item),
			"parameters": []map[string]string{
				{"label": "核心材料", "value": c},
				{"label": "主要参数", "value": "常温常压"},
			},
			"ai_image_prompt": "factory line processing " + c,
		})
	}

	return map[string]any{
		"title":      item + "制造流程",
		"doc_number": docNumber,
		"steps":      steps,
	}
}

func match(re *regexp.Regexp, s, fallback string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return fallback
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

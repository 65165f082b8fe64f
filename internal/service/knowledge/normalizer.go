package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"

	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/service/decomposition"
)

type rawCard struct {
	Title     *string    `json:"title"`
	DocNumber string     `json:"doc_number"`
	Steps     *[]rawStep `json:"steps"`
}

type rawStep struct {
	StepNumber  int                    `json:"step_number"`
	ActionTitle string                 `json:"action_title"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Parameters  []models.CardParameter `json:"parameters"`
	ImagePrompt string                 `json:"ai_image_prompt"`
}

// NormalizeCard parses a card response. A title and at least one step are
// required. Steps past MaxSteps are dropped and missing step numbers are
// filled in by position.
func NormalizeCard(raw, docNumber string) (*models.KnowledgeCard, error) {
	body := decomposition.StripFences(raw)
	var rc rawCard
	if err := json.Unmarshal([]byte(body), &rc); err != nil {
		return nil, &domain.MalformedResponseError{Raw: raw, Reason: err.Error()}
	}
	if rc.Title == nil || strings.TrimSpace(*rc.Title) == "" {
		return nil, &domain.MalformedResponseError{Raw: raw, Reason: "missing title"}
	}
	if rc.Steps == nil || len(*rc.Steps) == 0 {
		return nil, &domain.MalformedResponseError{Raw: raw, Reason: "missing steps"}
	}

	steps := *rc.Steps
	if len(steps) > MaxSteps {
		steps = steps[:MaxSteps]
	}

	card := &models.KnowledgeCard{
		Title:          strings.TrimSpace(*rc.Title),
		DocumentNumber: docNumber,
		Steps:          make([]models.CardStep, 0, len(steps)),
	}
	for i, s := range steps {
		title := s.ActionTitle
		if title == "" {
			title = s.Title
		}
		if strings.TrimSpace(s.Description) == "" {
			return nil, &domain.MalformedResponseError{Raw: raw, Reason: fmt.Sprintf("steps[%d]: missing description", i)}
		}
		num := s.StepNumber
		if num <= 0 {
			num = i + 1
		}
		card.Steps = append(card.Steps, models.CardStep{
			StepNumber:  num,
			Title:       title,
			Description: s.Description,
			Parameters:  s.Parameters,
			ImagePrompt: s.ImagePrompt,
		})
	}
	return card, nil
}

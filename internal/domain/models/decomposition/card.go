package decomposition

// KnowledgeCard is a short generated manufacturing-process narrative for a
// node, built from the names of its revealed children.
type KnowledgeCard struct {
	Title          string     `json:"title"`
	DocumentNumber string     `json:"document_number"`
	Steps          []CardStep `json:"steps"`
}

type CardStep struct {
	StepNumber  int             `json:"step_number"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Parameters  []CardParameter `json:"parameters,omitempty"`
	ImagePrompt string          `json:"image_prompt,omitempty"`
}

type CardParameter struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TextSegment is a run of card text; Highlight marks a literal component name.
type TextSegment struct {
	Text      string `json:"text"`
	Highlight bool   `json:"highlight,omitempty"`
}

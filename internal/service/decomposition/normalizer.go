package decomposition

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?```$")
)

// Part is one validated entry of a decomposition payload.
type Part struct {
	Name          string
	Description   string
	IsRawMaterial bool
	Icon          string
	SearchTerm    string
}

// Payload is a validated decomposition response.
type Payload struct {
	ParentItem string
	Parts      []Part
}

type rawPayload struct {
	ParentItem *string   `json:"parent_item"`
	Parts      *[]rawPart `json:"parts"`
}

type rawPart struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	IsRawMaterial *bool   `json:"is_raw_material"`
	Icon          *string `json:"icon"`
	SearchTerm    *string `json:"searchTerm"`
}

// StripFences removes a leading markdown fence (with or without a language
// tag) and a trailing fence.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Normalize parses and validates a decomposition response. Only structure
// is checked; domain correctness is up to the caller.
func Normalize(raw string) (*Payload, error) {
	var rp rawPayload
	if err := decodeJSON(raw, &rp); err != nil {
		return nil, err
	}
	if rp.ParentItem == nil {
		return nil, malformed(raw, "missing parent_item")
	}
	if rp.Parts == nil {
		return nil, malformed(raw, "missing parts")
	}

	p := &Payload{ParentItem: *rp.ParentItem, Parts: make([]Part, 0, len(*rp.Parts))}
	for i, part := range *rp.Parts {
		if part.Name == nil || strings.TrimSpace(*part.Name) == "" {
			return nil, malformed(raw, fmt.Sprintf("parts[%d]: missing name", i))
		}
		if part.IsRawMaterial == nil {
			return nil, malformed(raw, fmt.Sprintf("parts[%d]: missing is_raw_material", i))
		}
		p.Parts = append(p.Parts, Part{
			Name:          strings.TrimSpace(*part.Name),
			Description:   deref(part.Description),
			IsRawMaterial: *part.IsRawMaterial,
			Icon:          deref(part.Icon),
			SearchTerm:    deref(part.SearchTerm),
		})
	}
	return p, nil
}

type rawIdentification struct {
	Name             *string `json:"name"`
	Category         *string `json:"category"`
	BriefDescription *string `json:"brief_description"`
	Icon             *string `json:"icon"`
	SearchTerm       *string `json:"searchTerm"`
}

// NormalizeIdentification parses a vision identification response.
func NormalizeIdentification(raw string) (*models.Identification, error) {
	var ri rawIdentification
	if err := decodeJSON(raw, &ri); err != nil {
		return nil, err
	}
	if ri.Name == nil || strings.TrimSpace(*ri.Name) == "" {
		return nil, malformed(raw, "missing name")
	}
	if ri.Category == nil {
		return nil, malformed(raw, "missing category")
	}
	return &models.Identification{
		Name:             strings.TrimSpace(*ri.Name),
		Category:         *ri.Category,
		BriefDescription: deref(ri.BriefDescription),
		Icon:             deref(ri.Icon),
		SearchTerm:       deref(ri.SearchTerm),
	}, nil
}

func decodeJSON(raw string, v any) error {
	body := StripFences(raw)
	if body == "" {
		return malformed(raw, "empty response")
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return malformed(raw, err.Error())
	}
	return nil
}

func malformed(raw, reason string) error {
	return &domain.MalformedResponseError{Raw: raw, Reason: reason}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

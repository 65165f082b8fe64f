package decomposition

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"breakdown/internal/catalog"
	models "breakdown/internal/domain/models/decomposition"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var prompts = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// DefaultLanguage is the output language for names and descriptions.
const DefaultLanguage = "Chinese"

// emptyContext stands in for a missing parent in custom templates.
const emptyContext = "无"

// PromptOptions carries the per-call inputs the prompt needs besides the item.
type PromptOptions struct {
	Depth    int
	MaxDepth int
	Language string
	Catalog  *catalog.Catalog
}

type decomposeData struct {
	Item      string
	Context   string
	Depth     int
	MaxDepth  int
	Remaining int
	LastLevel bool
	MinParts  int
	MaxParts  int
	Excluded  []string
	Materials []string
	Language  string
	Style     []string
}

// CompilePrompt renders the decomposition prompt for item. parentContext is
// the parent's name and may be empty for the root. A custom template, when
// enabled, replaces the generated prompt entirely.
func CompilePrompt(item, parentContext string, settings *models.PromptSettings, opts PromptOptions) string {
	if settings != nil && settings.UseCustom && strings.TrimSpace(settings.CustomTemplate) != "" {
		return renderCustom(settings.CustomTemplate, item, parentContext)
	}

	c := opts.Catalog
	if c == nil {
		c = catalog.MustLoad()
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = c.Policy.MaxDepth
	}
	lang := opts.Language
	if lang == "" {
		lang = DefaultLanguage
	}

	data := decomposeData{
		Item:      item,
		Context:   parentContext,
		Depth:     opts.Depth,
		MaxDepth:  maxDepth,
		Remaining: maxDepth - opts.Depth - 1,
		LastLevel: opts.Depth+1 >= maxDepth,
		MinParts:  c.Policy.MinParts,
		MaxParts:  c.Policy.MaxParts,
		Excluded:  c.Policy.Excluded,
		Materials: c.Labels(),
		Language:  lang,
		Style:     styleFragments(settings),
	}
	return mustRender("decompose.tmpl", data)
}

// CompileIdentificationPrompt renders the vision identification prompt.
func CompileIdentificationPrompt(language string) string {
	if language == "" {
		language = DefaultLanguage
	}
	return mustRender("identify.tmpl", struct{ Language string }{language})
}

func renderCustom(tmpl, item, parentContext string) string {
	if parentContext == "" {
		parentContext = emptyContext
	}
	return strings.NewReplacer("{{ITEM}}", item, "{{CONTEXT}}", parentContext).Replace(tmpl)
}

func styleFragments(s *models.PromptSettings) []string {
	if s == nil {
		return nil
	}
	var out []string
	switch {
	case s.Humor > 70:
		out = append(out, "Use a humorous, playful tone in descriptions.")
	case s.Humor > 40:
		out = append(out, "Keep descriptions light and friendly.")
	case s.Humor < 20:
		out = append(out, "Keep descriptions formal and neutral.")
	}
	switch {
	case s.Professional > 70:
		out = append(out, "Give technically detailed descriptions with precise terminology.")
	case s.Professional < 30:
		out = append(out, "Use plain everyday language with no jargon.")
	}
	return out
}

func mustRender(name string, data any) string {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		panic(fmt.Sprintf("render %s: %v", name, err))
	}
	return buf.String()
}

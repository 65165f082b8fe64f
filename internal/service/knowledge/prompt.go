package knowledge

import (
	"bytes"
	"embed"
	"fmt"
	"hash/fnv"
	"text/template"

	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/service/decomposition"
)

//go:embed templates/card.tmpl
var templateFS embed.FS

var cardTemplate = template.Must(template.ParseFS(templateFS, "templates/card.tmpl"))

// MaxSteps caps the number of steps on a card.
const MaxSteps = 5

// DocumentNumber derives a stable "PROC-nnnnnn" number from a node id.
func DocumentNumber(nodeID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(nodeID))
	return fmt.Sprintf("PROC-%06d", h.Sum32()%1000000)
}

// CompileCardPrompt renders the card prompt for node and the names of its
// revealed children.
func CompileCardPrompt(node *models.Node, childNames []string, language string) string {
	if language == "" {
		language = decomposition.DefaultLanguage
	}
	var buf bytes.Buffer
	err := cardTemplate.Execute(&buf, struct {
		Item           string
		DocumentNumber string
		Components     []string
		MaxSteps       int
		Language       string
	}{node.Name, DocumentNumber(node.ID), childNames, MaxSteps, language})
	if err != nil {
		panic(fmt.Sprintf("render card prompt: %v", err))
	}
	return buf.String()
}

// ChildNames lists the names of a node's children in order.
func ChildNames(n *models.Node) []string {
	names := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	return names
}

package decomposition

import (
	"fmt"
)

// SnapshotVersion is bumped whenever the document layout changes.
const SnapshotVersion = 1

// Snapshot is the plain-data form of a live decomposition: the tree, the
// drag overrides and the knowledge-card cache.
type Snapshot struct {
	Version        int                       `json:"version"`
	Tree           *NodeDocument             `json:"tree"`
	Positions      map[string]Position       `json:"node_positions,omitempty"`
	Cards          map[string]*KnowledgeCard `json:"knowledge_cache,omitempty"`
	PromptSettings *PromptSettings           `json:"prompt_settings,omitempty"`
	Identification *Identification           `json:"identification,omitempty"`
}

// NodeDocument is the serialized form of a Node.
type NodeDocument struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Icon          string          `json:"icon,omitempty"`
	SearchTerm    string          `json:"search_term,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	ThumbnailURL  string          `json:"thumbnail_url,omitempty"`
	IsRawMaterial bool            `json:"is_raw_material"`
	IsExpanded    bool            `json:"is_expanded"`
	DepthCapped   bool            `json:"depth_capped,omitempty"`
	Children      []*NodeDocument `json:"children"`
}

// ToDocument converts a tree to its document form. A node caught mid-load
// is written as unexpanded so that a restored session can retry it.
func ToDocument(n *Node) *NodeDocument {
	if n == nil {
		return nil
	}
	doc := &NodeDocument{
		ID:            n.ID,
		Name:          n.Name,
		Description:   n.Description,
		Icon:          n.Icon,
		SearchTerm:    n.SearchTerm,
		ImageURL:      n.ImageURL,
		ThumbnailURL:  n.ThumbnailURL,
		IsRawMaterial: n.IsRawMaterial(),
		IsExpanded:    n.State == StateExpanded,
		DepthCapped:   n.State == StateTerminal && n.DepthCapped,
		Children:      make([]*NodeDocument, 0, len(n.Children)),
	}
	for _, child := range n.Children {
		doc.Children = append(doc.Children, ToDocument(child))
	}
	return doc
}

// FromDocument rebuilds a tree, checking that ids are present and unique
// and that terminal nodes carry no children.
func FromDocument(doc *NodeDocument) (*Node, error) {
	if doc == nil {
		return nil, fmt.Errorf("snapshot has no tree")
	}
	seen := make(map[string]struct{})
	return fromDocument(doc, seen)
}

func fromDocument(doc *NodeDocument, seen map[string]struct{}) (*Node, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("node %q has no id", doc.Name)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("node %s has no name", doc.ID)
	}
	if _, dup := seen[doc.ID]; dup {
		return nil, fmt.Errorf("duplicate node id %s", doc.ID)
	}
	seen[doc.ID] = struct{}{}

	n := &Node{
		ID:           doc.ID,
		Name:         doc.Name,
		Description:  doc.Description,
		Icon:         doc.Icon,
		SearchTerm:   doc.SearchTerm,
		ImageURL:     doc.ImageURL,
		ThumbnailURL: doc.ThumbnailURL,
	}

	terminal := doc.IsRawMaterial || doc.DepthCapped
	if terminal && len(doc.Children) > 0 {
		return nil, fmt.Errorf("terminal node %s has children", doc.ID)
	}

	switch {
	case terminal:
		n.State = StateTerminal
		n.DepthCapped = !doc.IsRawMaterial
	case len(doc.Children) == 0:
		n.State = StateUnexpanded
	case doc.IsExpanded:
		n.State = StateExpanded
	default:
		n.State = StateCollapsed
	}

	for _, childDoc := range doc.Children {
		child, err := fromDocument(childDoc, seen)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

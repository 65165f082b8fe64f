package decomposition

// NodeState is the lifecycle state of a node. Children only exist in the
// Collapsed and Expanded states.
type NodeState int

const (
	StateUnexpanded NodeState = iota
	StateLoading
	StateCollapsed
	StateExpanded
	StateTerminal
)

func (s NodeState) String() string {
	switch s {
	case StateUnexpanded:
		return "unexpanded"
	case StateLoading:
		return "loading"
	case StateCollapsed:
		return "collapsed"
	case StateExpanded:
		return "expanded"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Node is one item in a decomposition tree. Nodes are treated as immutable
// once published in a tree; updates go through ReplaceNode.
type Node struct {
	ID           string
	Name         string
	Description  string
	Icon         string
	SearchTerm   string
	ImageURL     string
	ThumbnailURL string
	State        NodeState
	// DepthCapped marks a Terminal node that was closed by the depth guard
	// rather than flagged as a raw material.
	DepthCapped bool
	Children    []*Node
}

// IsRawMaterial reports whether the node was flagged as a natural raw material.
func (n *Node) IsRawMaterial() bool {
	return n.State == StateTerminal && !n.DepthCapped
}

func (n *Node) IsTerminal() bool  { return n.State == StateTerminal }
func (n *Node) IsExpanded() bool  { return n.State == StateExpanded }
func (n *Node) IsLoading() bool   { return n.State == StateLoading }
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// CanExpand reports whether an expansion request may reach the backend.
func (n *Node) CanExpand() bool {
	return n.State == StateUnexpanded
}

// clone returns a shallow copy; the children slice is copied so the
// caller may replace entries without touching the original.
func (n *Node) clone() *Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		copy(c.Children, n.Children)
	}
	return &c
}

// Clone returns a shallow copy of the node that is safe to modify.
func (n *Node) Clone() *Node { return n.clone() }

// Position is a top-left render position on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PromptSettings tunes the decomposition prompt.
type PromptSettings struct {
	Humor          int    `json:"humor"`
	Professional   int    `json:"professional"`
	CustomTemplate string `json:"custom_template,omitempty"`
	UseCustom      bool   `json:"use_custom,omitempty"`
}

// Identification is the result of vision identification.
type Identification struct {
	Name             string `json:"name"`
	Category         string `json:"category"`
	BriefDescription string `json:"brief_description"`
	Icon             string `json:"icon"`
	SearchTerm       string `json:"search_term,omitempty"`
	ImageURL         string `json:"image_url,omitempty"`
}

package decomposition

// LayoutNode is a rendered node. X/Y is the top-left corner; the node is
// centered on (CenterX, CenterY).
type LayoutNode struct {
	NodeID        string  `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	CenterX       float64 `json:"center_x"`
	CenterY       float64 `json:"center_y"`
	Level         int     `json:"level"`
	Scale         float64 `json:"scale"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Overridden    bool    `json:"overridden,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Icon          string  `json:"icon,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	ThumbnailURL  string  `json:"thumbnail_url,omitempty"`
	IsRawMaterial bool    `json:"is_raw_material"`
	IsExpanded    bool    `json:"is_expanded"`
	IsLoading     bool    `json:"is_loading"`
	HasChildren   bool    `json:"has_children"`
	DepthCapped   bool    `json:"depth_capped,omitempty"`
}

// Edge connects a parent to a child. ID is "parent-child".
type Edge struct {
	ID          string `json:"id"`
	From        string `json:"source"`
	To          string `json:"target"`
	RawMaterial bool   `json:"raw_material,omitempty"`
}

// Layout is the derived view of a tree. Nodes are in depth-first pre-order.
type Layout struct {
	Nodes []LayoutNode `json:"nodes"`
	Edges []Edge       `json:"edges"`
}

// Positions returns the top-left position of every rendered node.
func (l *Layout) Positions() map[string]Position {
	out := make(map[string]Position, len(l.Nodes))
	for _, n := range l.Nodes {
		out[n.NodeID] = Position{X: n.X, Y: n.Y}
	}
	return out
}

// Node looks up a rendered node by id.
func (l *Layout) Node(id string) (LayoutNode, bool) {
	for _, n := range l.Nodes {
		if n.NodeID == id {
			return n, true
		}
	}
	return LayoutNode{}, false
}

package decomposition

// Explode progress event types.
const (
	EventExpanded = "expanded"
	EventCapped   = "capped"
	EventFailed   = "failed"
	EventDone     = "done"
)

// ExplodeEvent reports progress of a recursive expansion.
type ExplodeEvent struct {
	Type     string `json:"type"`
	NodeID   string `json:"node_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Depth    int    `json:"depth"`
	Children int    `json:"children,omitempty"`
	Error    string `json:"error,omitempty"`
	// Expanded and Failed are totals, set on the done event.
	Expanded int `json:"expanded,omitempty"`
	Failed   int `json:"failed,omitempty"`
}

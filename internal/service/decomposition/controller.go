package decomposition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"breakdown/internal/catalog"
	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/metrics"
	"breakdown/internal/service/llm"
)

// Outcome describes what an Expand call did.
type Outcome string

const (
	OutcomeExpanded  Outcome = "expanded"
	OutcomeJoined    Outcome = "joined"
	OutcomeToggled   Outcome = "toggled"
	OutcomeCapped    Outcome = "capped"
	OutcomeUnchanged Outcome = "unchanged"
)

// ExpandResult reports the node after an Expand call.
type ExpandResult struct {
	Outcome Outcome
	Node    *models.Node
}

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	Completer domainllm.Completer
	Catalog   *catalog.Catalog
	Retry     llm.RetryPolicy
	MaxDepth  int
	Language  string
	Decorator *Decorator
	Metrics   *metrics.Collector
	Logger    *slog.Logger
	// NewID overrides uuid generation in tests.
	NewID func() string
}

// Controller drives node expansion: the loading guard, the depth guard,
// retries, and the atomic attach of children.
type Controller struct {
	completer domainllm.Completer
	catalog   *catalog.Catalog
	retry     llm.RetryPolicy
	maxDepth  int
	language  string
	decorator *Decorator
	metrics   *metrics.Collector
	logger    *slog.Logger
	newID     func() string
}

func NewController(cfg ControllerConfig) *Controller {
	c := &Controller{
		completer: cfg.Completer,
		catalog:   cfg.Catalog,
		retry:     cfg.Retry,
		maxDepth:  cfg.MaxDepth,
		language:  cfg.Language,
		decorator: cfg.Decorator,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		newID:     cfg.NewID,
	}
	if c.catalog == nil {
		c.catalog = catalog.MustLoad()
	}
	if c.maxDepth <= 0 {
		c.maxDepth = c.catalog.Policy.MaxDepth
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// MaxDepth is the depth at which expansion stops.
func (c *Controller) MaxDepth() int { return c.maxDepth }

// Expand advances a node's state machine.
//
//   - Unexpanded: fetch children (Loading while in flight).
//   - Loading: join the in-flight expansion.
//   - Expanded/Collapsed: toggle visibility, no backend call.
//   - Terminal: nothing.
//
// Expanding at or beyond the maximum depth caps the node as Terminal. On
// failure the node rolls back to Unexpanded and the error is returned to
// every joined caller.
func (c *Controller) Expand(ctx context.Context, s *Session, nodeID string) (*ExpandResult, error) {
	s.mu.Lock()
	node := models.FindByID(s.root, nodeID)
	if node == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
	}

	switch node.State {
	case models.StateTerminal:
		s.mu.Unlock()
		return &ExpandResult{Outcome: OutcomeUnchanged, Node: node}, nil

	case models.StateLoading:
		fl := s.inflight[nodeID]
		s.mu.Unlock()
		if fl == nil {
			// Restored mid-load without a running flight.
			return &ExpandResult{Outcome: OutcomeUnchanged, Node: node}, nil
		}
		return c.join(ctx, fl)

	case models.StateExpanded, models.StateCollapsed:
		next := models.StateCollapsed
		if node.State == models.StateCollapsed {
			next = models.StateExpanded
		}
		s.replaceLocked(nodeID, func(n *models.Node) *models.Node {
			n.State = next
			return n
		})
		updated := models.FindByID(s.root, nodeID)
		s.mu.Unlock()
		c.metrics.IncExpansion("toggled")
		return &ExpandResult{Outcome: OutcomeToggled, Node: updated}, nil
	}

	depth := models.Depth(s.root, nodeID)
	if depth >= c.maxDepth {
		s.replaceLocked(nodeID, capNode)
		updated := models.FindByID(s.root, nodeID)
		s.mu.Unlock()
		c.metrics.IncExpansion("capped")
		c.logger.Debug("expansion capped", "node_id", nodeID, "depth", depth, "error", domain.ErrDepthExceeded)
		return &ExpandResult{Outcome: OutcomeCapped, Node: updated}, nil
	}

	parentName, _ := models.FindParentName(s.root, nodeID)
	settings := s.settings
	fl := &flight{done: make(chan struct{})}
	s.inflight[nodeID] = fl
	s.replaceLocked(nodeID, func(n *models.Node) *models.Node {
		n.State = models.StateLoading
		return n
	})
	s.mu.Unlock()

	prompt := CompilePrompt(node.Name, parentName, settings, PromptOptions{
		Depth:    depth,
		MaxDepth: c.maxDepth,
		Language: c.language,
		Catalog:  c.catalog,
	})

	// The expansion is shared by every joined caller, so the first caller
	// going away must not cancel it. The gateway timeout still bounds it.
	start := time.Now()
	payload, err := c.fetch(context.WithoutCancel(ctx), nodeID, prompt)

	s.mu.Lock()
	delete(s.inflight, nodeID)
	s.lastActive = time.Now()
	if err != nil {
		s.replaceLocked(nodeID, func(n *models.Node) *models.Node {
			n.State = models.StateUnexpanded
			n.Children = nil
			return n
		})
		fl.err = err
		close(fl.done)
		s.mu.Unlock()

		c.metrics.IncExpansion("failed")
		c.logger.Warn("expansion failed", "node_id", nodeID, "name", node.Name, "depth", depth, "error", err)
		return nil, err
	}

	children := c.buildChildren(payload, depth+1)
	s.replaceLocked(nodeID, func(n *models.Node) *models.Node {
		n.State = models.StateExpanded
		n.Children = children
		return n
	})
	fl.result = &ExpandResult{Outcome: OutcomeExpanded, Node: models.FindByID(s.root, nodeID)}
	close(fl.done)
	s.mu.Unlock()

	c.metrics.IncExpansion("expanded")
	c.logger.Info("node expanded",
		"node_id", nodeID,
		"name", node.Name,
		"depth", depth,
		"children", len(children),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.decorator.Decorate(s, children)
	return fl.result, nil
}

func (c *Controller) join(ctx context.Context, fl *flight) (*ExpandResult, error) {
	select {
	case <-fl.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if fl.err != nil {
		return nil, fl.err
	}
	return &ExpandResult{Outcome: OutcomeJoined, Node: fl.result.Node}, nil
}

// fetch runs completion and normalization under the retry policy.
func (c *Controller) fetch(ctx context.Context, nodeID, prompt string) (*Payload, error) {
	policy := c.retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.logger.Warn("retrying expansion", "node_id", nodeID, "attempt", attempt, "wait", wait, "error", err)
	}
	return llm.Retry(ctx, policy, func(ctx context.Context) (*Payload, error) {
		raw, err := c.completer.TextComplete(ctx, prompt)
		if err != nil {
			return nil, err
		}
		payload, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		if len(payload.Parts) == 0 {
			return nil, &domain.MalformedResponseError{Raw: raw, Reason: "no parts"}
		}
		return payload, nil
	})
}

// buildChildren creates fresh nodes at depth. Parts that name a catalog
// material are raw regardless of the flag. Non-raw parts created at the
// maximum depth are capped.
func (c *Controller) buildChildren(p *Payload, depth int) []*models.Node {
	children := make([]*models.Node, 0, len(p.Parts))
	for _, part := range p.Parts {
		n := &models.Node{
			ID:          c.newID(),
			Name:        part.Name,
			Description: part.Description,
			Icon:        part.Icon,
			SearchTerm:  part.SearchTerm,
			State:       models.StateUnexpanded,
		}

		raw := part.IsRawMaterial
		if m, ok := c.catalog.Lookup(part.Name); ok {
			raw = true
			if n.Icon == "" {
				n.Icon = m.Icon
			}
			if n.SearchTerm == "" {
				n.SearchTerm = m.Name
			}
		}

		switch {
		case raw:
			n.State = models.StateTerminal
		case depth >= c.maxDepth:
			n.State = models.StateTerminal
			n.DepthCapped = true
		}
		children = append(children, n)
	}
	return children
}

func capNode(n *models.Node) *models.Node {
	n.State = models.StateTerminal
	n.DepthCapped = true
	n.Children = nil
	return n
}

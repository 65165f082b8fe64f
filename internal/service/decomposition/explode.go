package decomposition

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
)

// DefaultExplodeParallelism bounds concurrent expansions in one explode.
const DefaultExplodeParallelism = 4

// Explode expands every expandable node under nodeID, level by level,
// until the subtree consists of terminal nodes or failures. Collapsed
// nodes are reopened. A failed node is reported and left unexpanded; it
// does not stop the run. events may be nil; it is not closed.
func (c *Controller) Explode(ctx context.Context, s *Session, nodeID string, parallelism int, events chan<- models.ExplodeEvent) error {
	if s.Node(nodeID) == nil {
		return fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
	}
	if parallelism <= 0 {
		parallelism = DefaultExplodeParallelism
	}

	emit := func(ev models.ExplodeEvent) {
		if events == nil {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	var expanded, failed int
	frontier := []string{nodeID}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		results := make([][]string, len(frontier))
		outcomes := make([]string, len(frontier))

		var g errgroup.Group
		g.SetLimit(parallelism)
		for i, id := range frontier {
			g.Go(func() error {
				next, outcome := c.explodeOne(ctx, s, id, emit)
				results[i] = next
				outcomes[i] = outcome
				return nil
			})
		}
		_ = g.Wait()

		frontier = frontier[:0:0]
		for i, next := range results {
			switch outcomes[i] {
			case models.EventExpanded:
				expanded++
			case models.EventFailed:
				failed++
			}
			frontier = append(frontier, next...)
		}
	}

	emit(models.ExplodeEvent{Type: models.EventDone, NodeID: nodeID, Expanded: expanded, Failed: failed})
	return nil
}

// explodeOne makes a single node visible and returns its children that
// still need work, plus the event type it emitted ("" when none).
func (c *Controller) explodeOne(ctx context.Context, s *Session, id string, emit func(models.ExplodeEvent)) ([]string, string) {
	node := s.Node(id)
	if node == nil {
		return nil, ""
	}
	depth := models.Depth(s.Root(), id)

	switch node.State {
	case models.StateTerminal:
		return nil, ""
	case models.StateCollapsed:
		s.setExpanded(id)
	case models.StateUnexpanded, models.StateLoading:
		res, err := c.Expand(ctx, s, id)
		if err != nil {
			emit(models.ExplodeEvent{Type: models.EventFailed, NodeID: id, Name: node.Name, Depth: depth, Error: err.Error()})
			return nil, models.EventFailed
		}
		node = res.Node
		if res.Outcome == OutcomeCapped {
			emit(models.ExplodeEvent{Type: models.EventCapped, NodeID: id, Name: node.Name, Depth: depth})
			return nil, models.EventCapped
		}
		if res.Outcome == OutcomeExpanded || res.Outcome == OutcomeJoined {
			emit(models.ExplodeEvent{Type: models.EventExpanded, NodeID: id, Name: node.Name, Depth: depth, Children: len(node.Children)})
			return childIDs(node), models.EventExpanded
		}
	}

	if cur := s.Node(id); cur != nil {
		node = cur
	}
	return childIDs(node), ""
}

func childIDs(n *models.Node) []string {
	if n == nil {
		return nil
	}
	ids := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		if !child.IsTerminal() {
			ids = append(ids, child.ID)
		}
	}
	return ids
}

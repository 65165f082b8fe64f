// Package knowledge generates short manufacturing-process cards for
// expanded nodes. Cards are cached in the owning session, generated through
// a priority queue, and joined per node so a card is never produced twice
// concurrently.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/metrics"
	"breakdown/internal/service/decomposition"
	"breakdown/internal/service/llm"
)

// Generator produces knowledge cards.
type Generator struct {
	completer domainllm.Completer
	queue     *Queue
	retry     llm.RetryPolicy
	language  string
	metrics   *metrics.Collector
	logger    *slog.Logger

	group singleflight.Group
	wg    sync.WaitGroup
}

func NewGenerator(completer domainllm.Completer, queue *Queue, retry llm.RetryPolicy, language string, m *metrics.Collector, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		queue:     queue,
		retry:     retry,
		language:  language,
		metrics:   m,
		logger:    logger,
	}
}

type cardResult struct {
	card *models.KnowledgeCard
	err  error
}

// GetCard returns the cached card for nodeID or generates one. Nodes
// without children have no card and never reach the backend. Failures are
// wrapped in ErrCardUnavailable and not cached.
func (g *Generator) GetCard(ctx context.Context, s *decomposition.Session, nodeID string, p Priority) (*models.KnowledgeCard, error) {
	node := s.Node(nodeID)
	if node == nil {
		return nil, fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
	}
	if card, ok := s.Card(nodeID); ok {
		g.metrics.IncCard("cached")
		return card, nil
	}
	if len(node.Children) == 0 {
		g.metrics.IncCard("unavailable")
		return nil, fmt.Errorf("node %s has no components: %w", nodeID, domain.ErrCardUnavailable)
	}

	key := s.ID + "/" + nodeID
	ch := g.group.DoChan(key, func() (any, error) {
		// Another flight may have finished between the cache check and here.
		if card, ok := s.Card(nodeID); ok {
			return card, nil
		}
		done := make(chan cardResult, 1)
		g.queue.Submit(p, func() {
			card, err := g.generate(s, node)
			done <- cardResult{card, err}
		})
		res := <-done
		if res.err != nil {
			return nil, res.err
		}
		return res.card, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.KnowledgeCard), nil
	}
}

// Prefetch queues low-priority generation for every node with revealed
// children and no cached card. It returns the number of nodes queued.
func (g *Generator) Prefetch(s *decomposition.Session) int {
	var ids []string
	models.Walk(s.Root(), func(n *models.Node, _ int) bool {
		if n.HasChildren() {
			if _, ok := s.Card(n.ID); !ok {
				ids = append(ids, n.ID)
			}
		}
		return true
	})

	for _, id := range ids {
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			if _, err := g.GetCard(context.Background(), s, id, PriorityLow); err != nil {
				g.logger.Debug("prefetch card failed", "node_id", id, "error", err)
			}
		}()
	}
	return len(ids)
}

// Wait blocks until prefetches and queued jobs are done.
func (g *Generator) Wait() {
	g.wg.Wait()
	g.queue.Wait()
}

func (g *Generator) generate(s *decomposition.Session, node *models.Node) (*models.KnowledgeCard, error) {
	names := ChildNames(node)
	docNumber := DocumentNumber(node.ID)
	prompt := CompileCardPrompt(node, names, g.language)

	policy := g.retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		g.logger.Warn("retrying card", "node_id", node.ID, "attempt", attempt, "wait", wait, "error", err)
	}

	start := time.Now()
	card, err := llm.Retry(context.Background(), policy, func(ctx context.Context) (*models.KnowledgeCard, error) {
		raw, err := g.completer.TextComplete(ctx, prompt)
		if err != nil {
			return nil, err
		}
		return NormalizeCard(raw, docNumber)
	})
	if err != nil {
		g.metrics.IncCard("failed")
		g.logger.Warn("card generation failed", "node_id", node.ID, "name", node.Name, "error", err)
		return nil, errors.Join(domain.ErrCardUnavailable, err)
	}

	s.StoreCard(node.ID, card)
	g.metrics.IncCard("generated")
	g.logger.Info("card generated",
		"node_id", node.ID,
		"steps", len(card.Steps),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return card, nil
}

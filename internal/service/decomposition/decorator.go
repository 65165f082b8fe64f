package decomposition

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/metrics"
	"breakdown/internal/service/imagesearch"
)

const (
	defaultDecorateLimit   = 4
	defaultDecorateTimeout = 10 * time.Second
)

// Decorator attaches images to freshly created nodes in the background.
// Failures are logged and otherwise ignored.
type Decorator struct {
	searcher imagesearch.Searcher
	limit    int
	timeout  time.Duration
	metrics  *metrics.Collector
	logger   *slog.Logger

	wg sync.WaitGroup
}

func NewDecorator(searcher imagesearch.Searcher, m *metrics.Collector, logger *slog.Logger) *Decorator {
	if searcher == nil {
		searcher = imagesearch.Noop{}
	}
	return &Decorator{
		searcher: searcher,
		limit:    defaultDecorateLimit,
		timeout:  defaultDecorateTimeout,
		metrics:  m,
		logger:   logger,
	}
}

// Decorate looks up images for nodes and patches them into s. It returns
// immediately.
func (d *Decorator) Decorate(s *Session, nodes []*models.Node) {
	if d == nil || len(nodes) == 0 {
		return
	}
	if _, ok := d.searcher.(imagesearch.Noop); ok {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var g errgroup.Group
		g.SetLimit(d.limit)
		for _, n := range nodes {
			if n.ImageURL != "" {
				continue
			}
			g.Go(func() error {
				d.decorateOne(s, n)
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Wait blocks until every background decoration has finished.
func (d *Decorator) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

func (d *Decorator) decorateOne(s *Session, n *models.Node) {
	term := n.SearchTerm
	if term == "" {
		term = n.Name
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	res, err := d.searcher.Search(ctx, term)
	if err != nil {
		d.metrics.IncDecoration("error")
		d.logger.Warn("image lookup failed", "node_id", n.ID, "term", term, "error", err)
		return
	}
	if res == nil || res.ImageURL == "" {
		d.metrics.IncDecoration("miss")
		return
	}
	if s.patchImage(n.ID, res.ImageURL, res.ThumbnailURL) {
		d.metrics.IncDecoration("ok")
	}
}

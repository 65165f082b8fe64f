package decomposition

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/service/layout"
)

// Session is one live decomposition: the tree, drag overrides, the
// knowledge-card cache and the in-flight expansion records. All fields are
// guarded by mu. The tree is copy-on-write, so a root pointer handed out
// by Root stays a consistent version forever.
type Session struct {
	ID      string
	OwnerID string

	mu              sync.Mutex
	root            *models.Node
	overrides       map[string]models.Position
	cards           map[string]*models.KnowledgeCard
	settings        *models.PromptSettings
	identification  *models.Identification
	treeVersion     uint64
	overrideVersion uint64
	inflight        map[string]*flight
	lastActive      time.Time

	layoutOpts   layout.Options
	layoutMemo   *models.Layout
	layoutTree   uint64
	layoutOvr    uint64
	layoutMemoOK bool
}

// flight is the shared record of one running expansion.
type flight struct {
	done   chan struct{}
	result *ExpandResult
	err    error
}

// NewRootNode builds an unexpanded root for item.
func NewRootNode(name, description, icon string) *models.Node {
	return &models.Node{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Icon:        icon,
		State:       models.StateUnexpanded,
	}
}

// NewSession starts a live decomposition around root.
func NewSession(ownerID string, root *models.Node, settings *models.PromptSettings, ident *models.Identification) *Session {
	return &Session{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		root:           root,
		overrides:      map[string]models.Position{},
		cards:          map[string]*models.KnowledgeCard{},
		settings:       settings,
		identification: ident,
		inflight:       map[string]*flight{},
		lastActive:     time.Now(),
		layoutOpts:     layout.DefaultOptions(),
	}
}

// Rehydrate rebuilds a live session from a snapshot. Ids, states,
// overrides and cards are restored as written.
func Rehydrate(snap *models.Snapshot, ownerID string) (*Session, error) {
	if snap == nil || snap.Tree == nil {
		return nil, fmt.Errorf("%w: snapshot has no tree", domain.ErrValidation)
	}
	if snap.Version > models.SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", domain.ErrValidation, snap.Version)
	}
	root, err := models.FromDocument(snap.Tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	s := NewSession(ownerID, root, snap.PromptSettings, snap.Identification)
	for id, p := range snap.Positions {
		if models.FindByID(root, id) != nil {
			s.overrides[id] = p
		}
	}
	for id, c := range snap.Cards {
		if c != nil && models.FindByID(root, id) != nil {
			s.cards[id] = c
		}
	}
	return s, nil
}

// Snapshot captures the session as plain data.
func (s *Session) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &models.Snapshot{
		Version:        models.SnapshotVersion,
		Tree:           models.ToDocument(s.root),
		Positions:      make(map[string]models.Position, len(s.overrides)),
		Cards:          make(map[string]*models.KnowledgeCard, len(s.cards)),
		PromptSettings: s.settings,
		Identification: s.identification,
	}
	for id, p := range s.overrides {
		snap.Positions[id] = p
	}
	for id, c := range s.cards {
		snap.Cards[id] = c
	}
	return snap
}

// Root returns the current tree version.
func (s *Session) Root() *models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Node returns the current version of a node, or nil.
func (s *Session) Node(id string) *models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.FindByID(s.root, id)
}

func (s *Session) PromptSettings() *models.PromptSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) Identification() *models.Identification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identification
}

// Versions returns the tree and override version counters.
func (s *Session) Versions() (tree, overrides uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.treeVersion, s.overrideVersion
}

// Overrides returns a copy of the drag overrides.
func (s *Session) Overrides() map[string]models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Position, len(s.overrides))
	for id, p := range s.overrides {
		out[id] = p
	}
	return out
}

// Card returns a cached knowledge card.
func (s *Session) Card(nodeID string) (*models.KnowledgeCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[nodeID]
	return c, ok
}

// StoreCard caches a card. Cards for nodes that are gone are dropped.
func (s *Session) StoreCard(nodeID string, card *models.KnowledgeCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if models.FindByID(s.root, nodeID) == nil {
		return
	}
	s.cards[nodeID] = card
}

// Layout returns the layout for the current tree and overrides. The result
// is memoized until either version changes.
func (s *Session) Layout() *models.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layoutMemoOK && s.layoutTree == s.treeVersion && s.layoutOvr == s.overrideVersion {
		return s.layoutMemo
	}
	s.layoutMemo = layout.Compute(s.root, s.overrides, s.layoutOpts)
	s.layoutTree = s.treeVersion
	s.layoutOvr = s.overrideVersion
	s.layoutMemoOK = true
	return s.layoutMemo
}

// Drag moves a node and its subtree by (dx, dy).
func (s *Session) Drag(nodeID string, dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if models.FindByID(s.root, nodeID) == nil {
		return fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
	}
	next, err := layout.Drag(s.root, s.overrides, nodeID, dx, dy, s.layoutOpts)
	if err != nil {
		return err
	}
	s.overrides = next
	s.overrideVersion++
	return nil
}

// Touch records activity for idle eviction.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

// idleBefore reports whether the session has seen no activity since cutoff.
// A session with an expansion in flight is never idle.
func (s *Session) idleBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight) == 0 && s.lastActive.Before(cutoff)
}

// replaceLocked applies a copy-on-write update and bumps the tree version.
// Callers hold mu.
func (s *Session) replaceLocked(id string, update func(*models.Node) *models.Node) {
	s.root = models.ReplaceNode(s.root, id, update)
	s.treeVersion++
}

// patchImage sets decoration fields on a node if it still exists.
func (s *Session) patchImage(id, imageURL, thumbnailURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if models.FindByID(s.root, id) == nil {
		return false
	}
	s.replaceLocked(id, func(n *models.Node) *models.Node {
		n.ImageURL = imageURL
		n.ThumbnailURL = thumbnailURL
		return n
	})
	return true
}

// setExpanded opens a collapsed node without a backend call.
func (s *Session) setExpanded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := models.FindByID(s.root, id)
	if n == nil || n.State != models.StateCollapsed {
		return false
	}
	s.replaceLocked(id, func(n *models.Node) *models.Node {
		n.State = models.StateExpanded
		return n
	})
	return true
}

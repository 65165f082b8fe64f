package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"breakdown/internal/domain"
	"breakdown/internal/domain/models"
	treemodels "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/domain/repositories"
	"breakdown/internal/domain/services"
	"breakdown/internal/service/decomposition"
)

// memoryRepo is an in-memory SessionRepository. GetByID is deliberately not
// owner scoped so the service's own ownership check is exercised.
type memoryRepo struct {
	mu      sync.Mutex
	rows    map[string]models.Session
	nextID  int
	touched map[string]time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[string]models.Session{}, touched: map[string]time.Time{}}
}

func (r *memoryRepo) Create(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = fmt.Sprintf("s%d", r.nextID)
	r.rows[s.ID] = *s
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id, userID string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

func (r *memoryRepo) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Session{}
	for _, s := range r.rows {
		if s.UserID == userID {
			s.Snapshot = nil
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepo) Update(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.rows[s.ID]; !ok || old.UserID != s.UserID {
		return fmt.Errorf("session %s: %w", s.ID, domain.ErrNotFound)
	}
	r.rows[s.ID] = *s
	return nil
}

func (r *memoryRepo) Touch(ctx context.Context, id, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[id] = at
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rows[id]; !ok || s.UserID != userID {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	delete(r.rows, id)
	return nil
}

type fixture struct {
	repo      *memoryRepo
	workspace *decomposition.Workspace
	svc       services.SessionService
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemoryRepo()
	ws := decomposition.NewWorkspace(time.Hour, nil, logger)
	return &fixture{repo: repo, workspace: ws, svc: NewService(repo, nil, ws, logger)}
}

// liveTree puts a two-level decomposition with an override and a card into the workspace.
func (f *fixture) liveTree(owner string) *decomposition.Session {
	root := &treemodels.Node{ID: "root", Name: "吹风机", Icon: "💨", ImageURL: "https://img/hair.jpg", State: treemodels.StateExpanded,
		Children: []*treemodels.Node{
			{ID: "motor", Name: "电机", State: treemodels.StateExpanded, Children: []*treemodels.Node{
				{ID: "copper", Name: "铜", State: treemodels.StateTerminal},
			}},
			{ID: "shell", Name: "外壳", State: treemodels.StateUnexpanded},
		}}
	live := decomposition.NewSession(owner, root, nil, nil)
	if err := live.Drag("shell", 15, 25); err != nil {
		panic(err)
	}
	live.StoreCard("motor", &treemodels.KnowledgeCard{Title: "电机制造", DocumentNumber: "PROC-000001"})
	f.workspace.Put(live)
	return live
}

func TestSave_ThenLoadRestoresTree(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	live := f.liveTree("u1")

	saved, err := f.svc.Save(ctx, "u1", &services.SaveSessionRequest{DecompositionID: live.ID})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Title != "吹风机" || saved.RootObjectName != "吹风机" || saved.RootObjectIcon != "💨" {
		t.Errorf("summary = %+v", saved)
	}
	if saved.RootObjectImage == nil || *saved.RootObjectImage != "https://img/hair.jpg" {
		t.Errorf("root image = %v", saved.RootObjectImage)
	}

	loaded, err := f.svc.Load(ctx, "u1", saved.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Decomposition.ID == live.ID {
		t.Error("load should create a fresh live decomposition")
	}
	if _, ok := f.repo.touched[saved.ID]; !ok {
		t.Error("load should touch last_accessed_at")
	}

	restored, err := f.workspace.Get(loaded.Decomposition.ID, "u1")
	if err != nil {
		t.Fatalf("workspace Get: %v", err)
	}
	if got := treemodels.Count(restored.Root()); got != 4 {
		t.Errorf("restored nodes = %d, want 4", got)
	}
	if _, ok := restored.Card("motor"); !ok {
		t.Error("card lost")
	}
	if restored.Overrides()["shell"] != live.Overrides()["shell"] {
		t.Error("override lost")
	}
}

func TestSave_RejectsOtherUsersDecomposition(t *testing.T) {
	f := newFixture()
	live := f.liveTree("u1")

	_, err := f.svc.Save(context.Background(), "u2", &services.SaveSessionRequest{DecompositionID: live.ID})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSave_Validation(t *testing.T) {
	f := newFixture()
	long := make([]rune, 256)
	for i := range long {
		long[i] = '长'
	}

	tests := []struct {
		name string
		req  *services.SaveSessionRequest
	}{
		{"nil body", nil},
		{"missing decomposition", &services.SaveSessionRequest{}},
		{"title too long", &services.SaveSessionRequest{DecompositionID: "x", Title: string(long)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Save(context.Background(), "u1", tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLoad_OwnershipIsEnforced(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	live := f.liveTree("u1")
	saved, err := f.svc.Save(ctx, "u1", &services.SaveSessionRequest{DecompositionID: live.ID, Title: "mine"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := f.svc.Load(ctx, "u2", saved.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Load other user: %v", err)
	}
	other := f.liveTree("u2")
	if _, err := f.svc.Update(ctx, "u2", saved.ID, &services.SaveSessionRequest{DecompositionID: other.ID}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Update other user: %v", err)
	}
	if err := f.svc.Delete(ctx, "u2", saved.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete other user: %v", err)
	}
}

func TestLoad_CorruptSnapshot(t *testing.T) {
	f := newFixture()
	f.repo.rows["bad"] = models.Session{ID: "bad", UserID: "u1", Snapshot: []byte(`{"version":1}`)}

	if _, err := f.svc.Load(context.Background(), "u1", "bad"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if f.workspace.Len() != 0 {
		t.Error("corrupt snapshot should not reach the workspace")
	}
}

func TestUpdate_KeepsTitleUnlessGiven(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	live := f.liveTree("u1")
	saved, err := f.svc.Save(ctx, "u1", &services.SaveSessionRequest{DecompositionID: live.ID, Title: "第一版"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := live.Drag("motor", 5, 5); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	updated, err := f.svc.Update(ctx, "u1", saved.ID, &services.SaveSessionRequest{DecompositionID: live.ID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "第一版" {
		t.Errorf("title = %q", updated.Title)
	}
	if string(updated.Snapshot) == string(saved.Snapshot) {
		t.Error("snapshot not refreshed")
	}
}

// countingTx runs fn inline and counts transactions.
type countingTx struct{ n int }

func (c *countingTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	c.n++
	return fn(ctx)
}

func TestUpdate_RunsInTransaction(t *testing.T) {
	f := newFixture()
	tx := &countingTx{}
	f.svc = NewService(f.repo, tx, f.workspace, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	live := f.liveTree("u1")

	saved, err := f.svc.Save(ctx, "u1", &services.SaveSessionRequest{DecompositionID: live.ID})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := f.svc.Update(ctx, "u1", saved.ID, &services.SaveSessionRequest{DecompositionID: live.ID, Title: "v2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tx.n != 1 {
		t.Errorf("transactions = %d, want 1", tx.n)
	}
}

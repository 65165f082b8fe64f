package decomposition

import (
	"context"
	"errors"
	"sync"
	"testing"

	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/service/imagesearch"
)

type fakeSearcher struct {
	mu    sync.Mutex
	terms []string
}

func (f *fakeSearcher) Search(_ context.Context, term string) (*imagesearch.Result, error) {
	f.mu.Lock()
	f.terms = append(f.terms, term)
	f.mu.Unlock()

	switch term {
	case "battery":
		return &imagesearch.Result{ImageURL: "https://img/battery.jpg", ThumbnailURL: "https://img/battery_s.jpg"}, nil
	case "broken":
		return nil, errors.New("search down")
	}
	return nil, nil
}

func TestDecorator_PatchesFoundImages(t *testing.T) {
	root := &models.Node{ID: "root", Name: "手机", State: models.StateExpanded, Children: []*models.Node{
		{ID: "bat", Name: "锂电池", SearchTerm: "battery", State: models.StateUnexpanded},
		{ID: "scr", Name: "屏幕", SearchTerm: "broken", State: models.StateUnexpanded},
		{ID: "oil", Name: "原油", State: models.StateTerminal},
		{ID: "pre", Name: "外壳", ImageURL: "https://img/keep.jpg", State: models.StateUnexpanded},
	}}
	s := NewSession("user-1", root, nil, nil)
	searcher := &fakeSearcher{}
	d := NewDecorator(searcher, nil, discardLogger())

	d.Decorate(s, root.Children)
	d.Wait()

	if got := s.Node("bat"); got.ImageURL != "https://img/battery.jpg" || got.ThumbnailURL != "https://img/battery_s.jpg" {
		t.Errorf("battery not decorated: %+v", got)
	}
	if got := s.Node("scr"); got.ImageURL != "" {
		t.Errorf("failed lookup should leave node untouched, got %q", got.ImageURL)
	}
	if got := s.Node("pre"); got.ImageURL != "https://img/keep.jpg" {
		t.Errorf("existing image replaced: %q", got.ImageURL)
	}

	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	if len(searcher.terms) != 3 {
		t.Errorf("searches = %v, want 3 (existing image skipped)", searcher.terms)
	}
	for _, term := range searcher.terms {
		if term == "" {
			t.Error("empty search term")
		}
	}
}

func TestDecorator_NoopSkipsWork(t *testing.T) {
	s := newTestSession("杯子")
	d := NewDecorator(nil, nil, discardLogger())
	d.Decorate(s, []*models.Node{s.Root()})
	d.Wait()
	if s.Root().ImageURL != "" {
		t.Error("noop searcher should not decorate")
	}
}

func TestDecorator_NodeRemovedMeanwhile(t *testing.T) {
	s := newTestSession("杯子")
	d := NewDecorator(&fakeSearcher{}, nil, discardLogger())
	d.Decorate(s, []*models.Node{{ID: "gone", Name: "x", SearchTerm: "battery"}})
	d.Wait()
	if s.Node("gone") != nil {
		t.Error("decoration must not create nodes")
	}
}

func TestDecorator_NilIsSafe(t *testing.T) {
	var d *Decorator
	d.Decorate(newTestSession("x"), nil)
	d.Wait()
}

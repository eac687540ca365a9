package wantlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/sydlexius/wantsync/internal/diag"
	"github.com/sydlexius/wantsync/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type searchCall struct {
	Artist, Title, Format string
}

type fakeCatalog struct {
	mu        sync.Mutex
	results   map[string][]Entry // keyed by artist + "|" + title
	releases  map[string]Entry
	searchErr error
	lookupErr error
	searches  []searchCall
	lookups   []string
}

func (f *fakeCatalog) SearchReleases(_ context.Context, artist, title, format string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, searchCall{artist, title, format})
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results[artist+"|"+title], nil
}

func (f *fakeCatalog) GetRelease(_ context.Context, id string) (Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, id)
	if f.lookupErr != nil {
		return Entry{}, f.lookupErr
	}
	e, ok := f.releases[id]
	if !ok {
		return Entry{}, &provider.ErrNotFound{Provider: provider.NameDiscogs, ID: id}
	}
	return e, nil
}

type fakeList struct {
	mu      sync.Mutex
	fail    map[string]bool
	added   []string
	removed []string
}

var errMutation = errors.New("mutation rejected")

func (f *fakeList) Add(_ context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[e.ID] {
		return errMutation
	}
	f.added = append(f.added, e.ID)
	return nil
}

func (f *fakeList) Remove(_ context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[e.ID] {
		return errMutation
	}
	f.removed = append(f.removed, e.ID)
	return nil
}

// countingPacer records how often it was asked to wait.
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

func newTestSession(cat *fakeCatalog, list *fakeList) (*Session, *diag.Log) {
	log := diag.New()
	return &Session{
		User:    Identity{ID: 1, Username: "tester"},
		Catalog: cat,
		List:    list,
		Pacer:   provider.NoDelay,
		Diag:    log,
	}, log
}

func diagStrings(l *diag.Log) []string {
	var out []string
	for _, d := range l.Entries() {
		out = append(out, d.String())
	}
	return out
}

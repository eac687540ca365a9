package wantlist

import (
	"context"
	"fmt"

	"github.com/sydlexius/wantsync/internal/diag"
	"github.com/sydlexius/wantsync/internal/provider"
)

// Entry is a catalog release. Two entries are the same release when their
// IDs are equal.
type Entry struct {
	ID     string
	Title  string
	Year   string
	Format string
}

// String renders the entry as <Release 12345 'Artist - Title'>. The second
// whitespace-separated token is always the release id.
func (e Entry) String() string {
	return fmt.Sprintf("<Release %s '%s'>", e.ID, e.Title)
}

// Same reports whether e and o refer to the same release.
func (e Entry) Same(o Entry) bool { return e.ID == o.ID }

// Catalog searches and looks up releases.
type Catalog interface {
	// SearchReleases returns the releases matching artist and title,
	// optionally restricted to a format such as "Vinyl".
	SearchReleases(ctx context.Context, artist, title, format string) ([]Entry, error)
	// GetRelease fetches one release by id. It fails when the id is unknown.
	GetRelease(ctx context.Context, id string) (Entry, error)
}

// UserList mutates the authenticated user's wantlist.
type UserList interface {
	Add(ctx context.Context, e Entry) error
	Remove(ctx context.Context, e Entry) error
}

// Sink receives user-facing diagnostics in order.
type Sink interface {
	Append(level diag.Level, text string)
}

// Identity is the authenticated user the session acts for.
type Identity struct {
	ID       int
	Username string
}

func (i Identity) String() string { return i.Username }

// Session carries the collaborators of one import run. It is built once
// after the user is authenticated and is not torn down; every component
// that needs remote access receives it explicitly.
type Session struct {
	User    Identity
	Catalog Catalog
	List    UserList
	Pacer   provider.Pacer
	Diag    Sink
}

func (s *Session) pacer() provider.Pacer {
	if s.Pacer == nil {
		return provider.FixedDelay(provider.DefaultCallDelay)
	}
	return s.Pacer
}

func (s *Session) sink() Sink {
	if s.Diag == nil {
		return discard{}
	}
	return s.Diag
}

type discard struct{}

func (discard) Append(diag.Level, string) {}

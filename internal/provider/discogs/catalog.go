package discogs

import (
	"context"
	"strconv"
	"strings"

	"github.com/sydlexius/wantsync/internal/wantlist"
)

// Catalog exposes the adapter as a wantlist.Catalog.
type Catalog struct {
	Adapter *Adapter
}

// SearchReleases implements wantlist.Catalog.
func (c Catalog) SearchReleases(ctx context.Context, artist, title, format string) ([]wantlist.Entry, error) {
	results, err := c.Adapter.SearchReleases(ctx, artist, title, format)
	if err != nil {
		return nil, err
	}
	entries := make([]wantlist.Entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, wantlist.Entry{
			ID:     strconv.Itoa(r.ID),
			Title:  r.Title,
			Year:   r.Year,
			Format: strings.Join(r.Format, ", "),
		})
	}
	return entries, nil
}

// GetRelease implements wantlist.Catalog.
func (c Catalog) GetRelease(ctx context.Context, id string) (wantlist.Entry, error) {
	rel, err := c.Adapter.GetRelease(ctx, id)
	if err != nil {
		return wantlist.Entry{}, err
	}
	return mapRelease(rel), nil
}

// Wantlist is the wantlist.UserList of one Discogs user.
type Wantlist struct {
	Adapter  *Adapter
	Username string
}

// Add implements wantlist.UserList.
func (w Wantlist) Add(ctx context.Context, e wantlist.Entry) error {
	return w.Adapter.AddWant(ctx, w.Username, e.ID)
}

// Remove implements wantlist.UserList.
func (w Wantlist) Remove(ctx context.Context, e wantlist.Entry) error {
	return w.Adapter.RemoveWant(ctx, w.Username, e.ID)
}

// NewSession authenticates the token and returns the session for its user.
func NewSession(ctx context.Context, a *Adapter) (*wantlist.Session, error) {
	ident, err := a.Identity(ctx)
	if err != nil {
		return nil, err
	}
	return &wantlist.Session{
		User:    wantlist.Identity{ID: ident.ID, Username: ident.Username},
		Catalog: Catalog{Adapter: a},
		List:    Wantlist{Adapter: a, Username: ident.Username},
	}, nil
}

func mapRelease(r *Release) wantlist.Entry {
	title := r.Title
	if r.ArtistsSort != "" {
		title = r.ArtistsSort + " - " + r.Title
	}
	e := wantlist.Entry{ID: strconv.Itoa(r.ID), Title: title}
	if r.Year > 0 {
		e.Year = strconv.Itoa(r.Year)
	}
	names := make([]string, 0, len(r.Formats))
	for _, f := range r.Formats {
		names = append(names, f.Name)
	}
	e.Format = strings.Join(names, ", ")
	return e
}

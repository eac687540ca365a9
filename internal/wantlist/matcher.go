package wantlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sydlexius/wantsync/internal/diag"
	"github.com/sydlexius/wantsync/internal/provider"
)

// Tier is the confidence level at which a line was resolved.
type Tier string

// Tiers, strongest first.
const (
	TierExactID    Tier = "exact-id-confirmed"
	TierAllResults Tier = "all-results-accepted"
	TierIDOnly     Tier = "id-only-fallback"
	TierNone       Tier = "none"
)

// Tiers lists every tier in display order.
func Tiers() []Tier {
	return []Tier{TierExactID, TierAllResults, TierIDOnly, TierNone}
}

// LookupStatus describes the direct release lookup fallback.
type LookupStatus string

// Lookup statuses.
const (
	LookupNotAttempted LookupStatus = "not-attempted"
	LookupFound        LookupStatus = "found"
	LookupNotFound     LookupStatus = "not-found"
	LookupFailed       LookupStatus = "failed"
)

// LookupOutcome is the result of the id-only fallback.
type LookupOutcome struct {
	Status LookupStatus
	Err    error
}

// Query is one line's search input.
type Query struct {
	Artist  string
	Title   string
	ID      string
	IDFound bool
	Format  string
	// Fields is the whole tokenized line; search results are confirmed by
	// finding their id anywhere in it.
	Fields []string
	// Line is the original line, quoted in diagnostics.
	Line string
}

// MatchResult is the set of releases a line resolved to.
type MatchResult struct {
	Entries []Entry
	Tier    Tier
	Lookup  LookupOutcome
}

// Empty reports whether nothing was resolved.
func (r MatchResult) Empty() bool { return len(r.Entries) == 0 }

// Matcher resolves queries against the catalog.
type Matcher struct {
	session *Session
	logger  *slog.Logger
}

// NewMatcher creates a Matcher for the session.
func NewMatcher(session *Session, logger *slog.Logger) *Matcher {
	return &Matcher{
		session: session,
		logger:  logger.With(slog.String("component", "matcher")),
	}
}

// Match searches by artist and title and reconciles the results with the
// recovered release id:
//
//   - results and an id: keep the results whose id appears in the line
//   - results, no id: keep every result
//   - nothing kept: look the id up directly
//
// Remote failures never escape; they end up as diagnostics and an empty
// result.
func (m *Matcher) Match(ctx context.Context, q Query) MatchResult {
	sink := m.session.sink()
	line := strings.TrimSpace(q.Line)

	if q.Artist == "" || q.Title == "" {
		sink.Append(diag.Error, "artist or title is blank. No search done for: "+line)
		return MatchResult{Tier: TierNone, Lookup: LookupOutcome{Status: LookupNotAttempted}}
	}

	m.logger.Info("searching",
		slog.String("release_id", q.ID),
		slog.String("artist", q.Artist),
		slog.String("title", q.Title),
		slog.String("format", q.Format))

	results, err := m.session.Catalog.SearchReleases(ctx, q.Artist, q.Title, q.Format)
	if err != nil {
		m.logger.Warn("search failed", slog.String("artist", q.Artist), slog.String("title", q.Title), slog.Any("error", err))
		sink.Append(diag.Warning, fmt.Sprintf("search failed (%v) for line: %s", err, line))
		results = nil
	}

	result := MatchResult{Tier: TierNone, Lookup: LookupOutcome{Status: LookupNotAttempted}}
	switch {
	case len(results) > 0 && q.IDFound:
		inLine := fieldSet(q.Fields)
		for _, r := range results {
			if _, ok := inLine[r.ID]; ok {
				result.Entries = append(result.Entries, r)
			}
		}
		if len(result.Entries) > 0 {
			result.Tier = TierExactID
		} else {
			sink.Append(diag.Warning, fmt.Sprintf("Release matching '%s' not found for line: %s", q.ID, line))
			sink.Append(diag.Warning, "no releases added: "+line)
		}
	case len(results) > 0:
		sink.Append(diag.Warning, "Specific release not found for line: "+line)
		sink.Append(diag.Warning, "Adding all artist / title matched results: "+line)
		result.Entries = results
		result.Tier = TierAllResults
	default:
		sink.Append(diag.Warning, "artist / title not found for line: "+line)
	}

	if result.Empty() {
		entry, outcome := m.lookup(ctx, q.ID)
		result.Lookup = outcome
		if outcome.Status == LookupFound {
			result.Entries = []Entry{entry}
			result.Tier = TierIDOnly
		}
	}

	if result.Empty() {
		sink.Append(diag.Error, "NO RELEASE FOUND AT ALL FOR LINE: "+line)
		result.Tier = TierNone
	}
	return result
}

// lookup fetches a single release by id after the pacing delay.
func (m *Matcher) lookup(ctx context.Context, id string) (Entry, LookupOutcome) {
	if id == "" {
		return Entry{}, LookupOutcome{Status: LookupNotFound}
	}
	m.logger.Info("trying release id only", slog.String("release_id", id))

	if err := m.session.pacer().Wait(ctx); err != nil {
		return Entry{}, LookupOutcome{Status: LookupFailed, Err: err}
	}
	entry, err := m.session.Catalog.GetRelease(ctx, id)
	if err != nil {
		var nf *provider.ErrNotFound
		if errors.As(err, &nf) {
			return Entry{}, LookupOutcome{Status: LookupNotFound, Err: err}
		}
		m.logger.Warn("release lookup failed", slog.String("release_id", id), slog.Any("error", err))
		return Entry{}, LookupOutcome{Status: LookupFailed, Err: err}
	}
	return entry, LookupOutcome{Status: LookupFound}
}

func fieldSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[strings.TrimSpace(f)] = struct{}{}
	}
	return set
}

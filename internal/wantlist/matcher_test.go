package wantlist

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sydlexius/wantsync/internal/diag"
)

func TestMatch_ExactIDConfirmed(t *testing.T) {
	cat := &fakeCatalog{results: map[string][]Entry{
		"The Band|Title X": {
			{ID: "111", Title: "The Band - Title X"},
			{ID: "222", Title: "The Band - Title X"},
		},
	}}
	s, log := newTestSession(cat, &fakeList{})
	m := NewMatcher(s, testLogger())

	fields := []string{"C1", "The Band", "Title X", "L", "LP", "", "1990", "222", ""}
	res := m.Match(context.Background(), Query{
		Artist: "The Band", Title: "Title X", ID: "222", IDFound: true,
		Format: "Vinyl", Fields: fields, Line: "line",
	})

	if res.Tier != TierExactID {
		t.Errorf("tier = %s, want %s", res.Tier, TierExactID)
	}
	if len(res.Entries) != 1 || res.Entries[0].ID != "222" {
		t.Fatalf("entries = %v, want only 222", res.Entries)
	}
	if len(cat.lookups) != 0 {
		t.Errorf("unexpected direct lookup: %v", cat.lookups)
	}
	if want := (searchCall{"The Band", "Title X", "Vinyl"}); cat.searches[0] != want {
		t.Errorf("search = %+v, want %+v", cat.searches[0], want)
	}
	if n := len(log.Entries()); n != 0 {
		t.Errorf("expected no diagnostics, got %v", diagStrings(log))
	}
}

func TestMatch_IDFoundAnywhereInLine(t *testing.T) {
	cat := &fakeCatalog{results: map[string][]Entry{
		"A|T": {{ID: "111"}, {ID: "333"}},
	}}
	s, _ := newTestSession(cat, &fakeList{})
	m := NewMatcher(s, testLogger())

	// 333 sits in the notes column, not release_id.
	fields := []string{"C", "A", "T", "L", "F", "", "2001", "999", "333"}
	res := m.Match(context.Background(), Query{Artist: "A", Title: "T", ID: "999", IDFound: true, Fields: fields})
	if res.Tier != TierExactID || len(res.Entries) != 1 || res.Entries[0].ID != "333" {
		t.Errorf("got %+v, want 333 at exact tier", res)
	}
}

func TestMatch_AllResultsAccepted(t *testing.T) {
	results := []Entry{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	cat := &fakeCatalog{results: map[string][]Entry{"A|T": results}}
	s, log := newTestSession(cat, &fakeList{})
	m := NewMatcher(s, testLogger())

	res := m.Match(context.Background(), Query{Artist: "A", Title: "T", Line: "A line"})
	if res.Tier != TierAllResults {
		t.Errorf("tier = %s, want %s", res.Tier, TierAllResults)
	}
	if !reflect.DeepEqual(res.Entries, results) {
		t.Errorf("entries = %v, want %v", res.Entries, results)
	}
	want := []string{
		"WARNING: Specific release not found for line: A line",
		"WARNING: Adding all artist / title matched results: A line",
	}
	if got := diagStrings(log); !reflect.DeepEqual(got, want) {
		t.Errorf("diagnostics = %q, want %q", got, want)
	}
}

func TestMatch_NoIDMatchFallsBackToLookup(t *testing.T) {
	cat := &fakeCatalog{
		results:  map[string][]Entry{"A|T": {{ID: "111"}}},
		releases: map[string]Entry{"555": {ID: "555", Title: "A - T (reissue)"}},
	}
	s, log := newTestSession(cat, &fakeList{})
	pacer := &countingPacer{}
	s.Pacer = pacer
	m := NewMatcher(s, testLogger())

	res := m.Match(context.Background(), Query{
		Artist: "A", Title: "T", ID: "555", IDFound: true,
		Fields: []string{"C", "A", "T", "L", "F", "", "", "555"}, Line: "l",
	})
	if res.Tier != TierIDOnly {
		t.Errorf("tier = %s, want %s", res.Tier, TierIDOnly)
	}
	if len(res.Entries) != 1 || res.Entries[0].ID != "555" {
		t.Errorf("entries = %v", res.Entries)
	}
	if res.Lookup.Status != LookupFound {
		t.Errorf("lookup status = %s", res.Lookup.Status)
	}
	if pacer.waits != 1 {
		t.Errorf("pacer waits = %d, want 1 before the lookup", pacer.waits)
	}
	want := []string{
		"WARNING: Release matching '555' not found for line: l",
		"WARNING: no releases added: l",
	}
	if got := diagStrings(log); !reflect.DeepEqual(got, want) {
		t.Errorf("diagnostics = %q, want %q", got, want)
	}
}

func TestMatch_EmptySearchAndFailedLookup(t *testing.T) {
	cat := &fakeCatalog{}
	s, log := newTestSession(cat, &fakeList{})
	m := NewMatcher(s, testLogger())

	res := m.Match(context.Background(), Query{Artist: "A", Title: "T", ID: "404", IDFound: true, Line: "l"})
	if !res.Empty() || res.Tier != TierNone {
		t.Errorf("got %+v, want empty none", res)
	}
	if res.Lookup.Status != LookupNotFound {
		t.Errorf("lookup status = %s, want not-found", res.Lookup.Status)
	}
	if !reflect.DeepEqual(cat.lookups, []string{"404"}) {
		t.Errorf("lookups = %v", cat.lookups)
	}
	want := []string{
		"WARNING: artist / title not found for line: l",
		"ERROR: NO RELEASE FOUND AT ALL FOR LINE: l",
	}
	if got := diagStrings(log); !reflect.DeepEqual(got, want) {
		t.Errorf("diagnostics = %q, want %q", got, want)
	}
}

func TestMatch_LookupTransportFailureSwallowed(t *testing.T) {
	cat := &fakeCatalog{lookupErr: errors.New("connection reset")}
	s, log := newTestSession(cat, &fakeList{})
	m := NewMatcher(s, testLogger())

	res := m.Match(context.Background(), Query{Artist: "A", Title: "T", ID: "9", IDFound: true})
	if !res.Empty() {
		t.Fatalf("expected empty result, got %v", res.Entries)
	}
	if res.Lookup.Status != LookupFailed || res.Lookup.Err == nil {
		t.Errorf("lookup = %+v, want failed with error", res.Lookup)
	}
	if log.Count(diag.Error) != 1 {
		t.Errorf("expected one ERROR, got %q", diagStrings(log))
	}
}

func TestMatch_NoIDSkipsLookup(t *testing.T) {
	cat := &fakeCatalog{}
	s, _ := newTestSession(cat, &fakeList{})
	m := NewMatcher(s, testLogger())

	res := m.Match(context.Background(), Query{Artist: "A", Title: "T"})
	if res.Tier != TierNone {
		t.Errorf("tier = %s", res.Tier)
	}
	if len(cat.lookups) != 0 {
		t.Errorf("lookup attempted without an id: %v", cat.lookups)
	}
}

func TestMatch_BlankArtistOrTitle(t *testing.T) {
	for _, q := range []Query{
		{Artist: "", Title: "T", ID: "1", IDFound: true, Line: "x"},
		{Artist: "A", Title: "", ID: "1", IDFound: true, Line: "x"},
	} {
		cat := &fakeCatalog{}
		s, log := newTestSession(cat, &fakeList{})
		res := NewMatcher(s, testLogger()).Match(context.Background(), q)
		if res.Tier != TierNone || !res.Empty() {
			t.Errorf("got %+v", res)
		}
		if len(cat.searches) != 0 || len(cat.lookups) != 0 {
			t.Error("blank artist/title must not reach the catalog")
		}
		want := []string{"ERROR: artist or title is blank. No search done for: x"}
		if got := diagStrings(log); !reflect.DeepEqual(got, want) {
			t.Errorf("diagnostics = %q, want %q", got, want)
		}
	}
}

func TestMatch_SearchErrorTreatedAsMiss(t *testing.T) {
	cat := &fakeCatalog{
		searchErr: errors.New("HTTP 500"),
		releases:  map[string]Entry{"7": {ID: "7"}},
	}
	s, log := newTestSession(cat, &fakeList{})
	res := NewMatcher(s, testLogger()).Match(context.Background(), Query{Artist: "A", Title: "T", ID: "7", IDFound: true})
	if res.Tier != TierIDOnly {
		t.Errorf("tier = %s, want id-only fallback", res.Tier)
	}
	if log.Count(diag.Warning) != 2 {
		t.Errorf("expected search failure and miss warnings, got %q", diagStrings(log))
	}
}

func TestMatch_CanceledContextFailsLookup(t *testing.T) {
	cat := &fakeCatalog{releases: map[string]Entry{"7": {ID: "7"}}}
	s, _ := newTestSession(cat, &fakeList{})
	s.Pacer = &countingPacer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewMatcher(s, testLogger()).Match(ctx, Query{Artist: "A", Title: "T", ID: "7", IDFound: true})
	if res.Lookup.Status != LookupFailed {
		t.Errorf("lookup status = %s, want failed", res.Lookup.Status)
	}
	if len(cat.lookups) != 0 {
		t.Error("lookup should not run after cancellation")
	}
}

func TestEntryString(t *testing.T) {
	e := Entry{ID: "12345", Title: "Radiohead - OK Computer"}
	if got := e.String(); got != "<Release 12345 'Radiohead - OK Computer'>" {
		t.Errorf("String() = %q", got)
	}
	if !e.Same(Entry{ID: "12345"}) {
		t.Error("entries with equal ids should be the same release")
	}
}

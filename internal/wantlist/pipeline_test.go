package wantlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type recordedLines struct {
	lines []LineResult
	err   error
}

func (r *recordedLines) RecordLine(_ context.Context, l LineResult) error {
	r.lines = append(r.lines, l)
	return r.err
}

func TestIsHeader(t *testing.T) {
	tests := map[string]bool{
		"Catalog#,Artist,Title,Label,Format,Rating,Released,release_id,Notes": true,
		"Title,Artist,Catalog":                          true,
		"Catalog#,Artist,Name,Label":                    false,
		"CAT1,Artist Name,Some Title,Label,LP,,1990,1,": false,
		"":                                              false,
	}
	for line, want := range tests {
		if got := IsHeader(line); got != want {
			t.Errorf("IsHeader(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestPipeline_Run(t *testing.T) {
	cat := &fakeCatalog{
		results: map[string][]Entry{
			"Radiohead|OK Computer": {
				{ID: "111", Title: "Radiohead - OK Computer"},
				{ID: "222", Title: "Radiohead - OK Computer"},
			},
			"The Band|Music From Big Pink": {
				{ID: "10", Title: "The Band - Music From Big Pink"},
			},
		},
		releases: map[string]Entry{"9001": {ID: "9001", Title: "Unknown - Thing"}},
	}
	list := &fakeList{}
	s, log := newTestSession(cat, list)
	pacer := &countingPacer{}
	s.Pacer = pacer

	input := strings.Join([]string{
		"Catalog#,Artist,Title,Label,Format,Rating,Released,release_id,Notes",
		"NODATA,Radiohead,OK Computer,Parlophone,LP,,1997,222,",
		"",
		"CAT2,The Band (2) featuring Dylan,Music From Big Pink,Capitol,LP,,1968,,",
		"CAT3,Nobody,Nothing,,,,,9001,",
		",,,,,,,,",
	}, "\n")

	rec := &recordedLines{}
	p := NewPipeline(s, Options{Delimiter: ',', Format: "Vinyl", Direction: DirectionAdd}, testLogger())
	p.SetRecorder(rec)

	sum, err := p.Run(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.LinesRead != 6 || sum.LinesSkipped != 2 || sum.LinesProcessed != 4 {
		t.Errorf("summary counts = %+v", sum)
	}
	if sum.LinesResolved != 3 || sum.EntriesApplied != 3 || sum.EntriesFailed != 0 {
		t.Errorf("summary results = %+v", sum)
	}
	wantTiers := map[Tier]int{TierExactID: 1, TierAllResults: 1, TierIDOnly: 1, TierNone: 1}
	if !reflect.DeepEqual(sum.Tiers, wantTiers) {
		t.Errorf("tiers = %v, want %v", sum.Tiers, wantTiers)
	}
	if !reflect.DeepEqual(list.added, []string{"222", "10", "9001"}) {
		t.Errorf("added = %v", list.added)
	}
	// One wait per processed line plus one before the id-only lookup.
	if pacer.waits != 5 {
		t.Errorf("pacer waits = %d, want 5", pacer.waits)
	}
	if cat.searches[1].Artist != "The Band" || cat.searches[1].Format != "Vinyl" {
		t.Errorf("second search = %+v", cat.searches[1])
	}
	if len(rec.lines) != 4 || rec.lines[0].LineNo != 2 {
		t.Errorf("recorded %d lines, first = %+v", len(rec.lines), rec.lines[0])
	}
	if got := log.Entries()[len(log.Entries())-1].String(); got != "ERROR: artist or title is blank. No search done for: ,,,,,,,," {
		t.Errorf("last diagnostic = %q", got)
	}
}

func TestPipeline_HeaderNeedsAllMarkers(t *testing.T) {
	cat := &fakeCatalog{}
	s, _ := newTestSession(cat, &fakeList{})
	p := NewPipeline(s, Options{Delimiter: ','}, testLogger())

	sum, err := p.Run(context.Background(), strings.NewReader("Catalog#,Artist,Name,Label,Format,Rating,Released,release_id\n"))
	if err != nil {
		t.Fatal(err)
	}
	if sum.LinesSkipped != 0 || sum.LinesProcessed != 1 {
		t.Errorf("summary = %+v, want the line processed", sum)
	}
	if len(cat.searches) != 1 || cat.searches[0].Artist != "Artist" {
		t.Errorf("searches = %+v", cat.searches)
	}
}

func TestPipeline_RemoveDirectionAndFailures(t *testing.T) {
	cat := &fakeCatalog{results: map[string][]Entry{
		"A|T": {{ID: "1"}, {ID: "2"}},
	}}
	list := &fakeList{fail: map[string]bool{"1": true}}
	s, _ := newTestSession(cat, list)
	p := NewPipeline(s, Options{Delimiter: ';', Direction: DirectionRemove}, testLogger())

	sum, err := p.Run(context.Background(), strings.NewReader("C;A;T;L;F;;;notanid;\n"))
	if err != nil {
		t.Fatal(err)
	}
	if sum.EntriesApplied != 1 || sum.EntriesFailed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !reflect.DeepEqual(list.removed, []string{"2"}) {
		t.Errorf("removed = %v", list.removed)
	}
}

func TestPipeline_RecoveryWarnings(t *testing.T) {
	cat := &fakeCatalog{results: map[string][]Entry{"A|T": {{ID: "55"}}}}
	s, log := newTestSession(cat, &fakeList{})
	p := NewPipeline(s, Options{}, testLogger())

	res := p.ProcessLine(context.Background(), "C,A,T,L,F,,1990,notes with 12,55,77")
	if res.Recovery.ID != "77" || res.Recovery.Candidates != 2 {
		t.Errorf("recovery = %+v", res.Recovery)
	}
	got := diagStrings(log)
	if len(got) == 0 || !strings.HasPrefix(got[0], "WARNING: 2 possible release_id values for line, using '77'") {
		t.Errorf("diagnostics = %q", got)
	}

	log2Session, log2 := newTestSession(&fakeCatalog{}, &fakeList{})
	NewPipeline(log2Session, Options{}, testLogger()).ProcessLine(context.Background(), "C,A,T")
	if first := diagStrings(log2)[0]; first != "WARNING: release_id not found for line: C,A,T" {
		t.Errorf("first diagnostic = %q", first)
	}
}

func TestPipeline_RecorderErrorIgnored(t *testing.T) {
	s, _ := newTestSession(&fakeCatalog{}, &fakeList{})
	p := NewPipeline(s, Options{}, testLogger())
	p.SetRecorder(&recordedLines{err: errors.New("disk full")})

	sum, err := p.Run(context.Background(), strings.NewReader("C,A,T\nC,B,U\n"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.LinesProcessed != 2 {
		t.Errorf("processed = %d, want 2", sum.LinesProcessed)
	}
}

func TestPipeline_CanceledStops(t *testing.T) {
	s, _ := newTestSession(&fakeCatalog{}, &fakeList{})
	s.Pacer = &countingPacer{}
	p := NewPipeline(s, Options{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := p.Run(ctx, strings.NewReader("C,A,T\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if sum.LinesProcessed != 0 {
		t.Errorf("processed = %d, want 0", sum.LinesProcessed)
	}
}

func TestPipeline_RunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wants.csv")
	if err := os.WriteFile(path, []byte("C,A,T,L,F,,,5,\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cat := &fakeCatalog{results: map[string][]Entry{"A|T": {{ID: "5"}}}}
	list := &fakeList{}
	s, _ := newTestSession(cat, list)

	sum, err := NewPipeline(s, Options{}, testLogger()).RunFile(context.Background(), path)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if sum.Tiers[TierExactID] != 1 || len(list.added) != 1 {
		t.Errorf("summary = %+v, added = %v", sum, list.added)
	}

	if _, err := NewPipeline(s, Options{}, testLogger()).RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

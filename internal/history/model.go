package history

import (
	"strings"
	"time"

	"github.com/sydlexius/wantsync/internal/wantlist"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded import.
type Run struct {
	ID             string
	InputPath      string
	Direction      wantlist.Direction
	Format         string
	Delimiter      string
	Username       string
	Status         string
	LinesRead      int
	LinesSkipped   int
	LinesResolved  int
	EntriesApplied int
	EntriesFailed  int
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Line is the recorded outcome of one input line.
type Line struct {
	RunID      string
	LineNo     int
	Raw        string
	Artist     string
	Title      string
	ReleaseID  string
	Tier       wantlist.Tier
	ReleaseIDs []string
	Applied    int
	Failed     int
}

// lineFromResult flattens a pipeline result for storage.
func lineFromResult(runID string, r wantlist.LineResult) Line {
	ids := make([]string, 0, len(r.Match.Entries))
	for _, e := range r.Match.Entries {
		ids = append(ids, e.ID)
	}
	failed := r.Failed()
	return Line{
		RunID:      runID,
		LineNo:     r.LineNo,
		Raw:        r.Raw,
		Artist:     r.Artist,
		Title:      r.Title,
		ReleaseID:  r.Recovery.ID,
		Tier:       r.Match.Tier,
		ReleaseIDs: ids,
		Applied:    len(r.Outcomes) - failed,
		Failed:     failed,
	}
}

func joinIDs(ids []string) string { return strings.Join(ids, ",") }

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

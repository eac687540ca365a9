package wantlist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sydlexius/wantsync/internal/diag"
)

// Direction selects whether resolved releases are added to or removed from
// the wantlist.
type Direction string

// Directions.
const (
	DirectionAdd    Direction = "add"
	DirectionRemove Direction = "remove"
)

// ParseDirection maps user input to a Direction. Anything that does not
// spell remove means add.
func ParseDirection(s string) Direction {
	switch strings.TrimSpace(s) {
	case "r", "R", "remove", "Remove", "REMOVE":
		return DirectionRemove
	default:
		return DirectionAdd
	}
}

// OutcomeStatus is the result of one wantlist mutation.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome records what happened to one entry.
type Outcome struct {
	Entry     Entry
	Direction Direction
	Status    OutcomeStatus
	Err       error
}

// Syncer applies resolved entries to the session's wantlist.
type Syncer struct {
	session *Session
	logger  *slog.Logger
}

// NewSyncer creates a Syncer for the session.
func NewSyncer(session *Session, logger *slog.Logger) *Syncer {
	return &Syncer{
		session: session,
		logger:  logger.With(slog.String("component", "sync")),
	}
}

// Apply adds or removes every entry. A failed entry is reported and the
// remaining entries are still attempted.
func (s *Syncer) Apply(ctx context.Context, entries []Entry, dir Direction) []Outcome {
	sink := s.session.sink()
	outcomes := make([]Outcome, 0, len(entries))

	for _, e := range entries {
		var err error
		if dir == DirectionRemove {
			sink.Append(diag.Info, fmt.Sprintf("Remove: %s", e))
			err = s.session.List.Remove(ctx, e)
		} else {
			sink.Append(diag.Info, fmt.Sprintf("ADDING   :    %s", e))
			err = s.session.List.Add(ctx, e)
		}

		o := Outcome{Entry: e, Direction: dir, Status: OutcomeApplied}
		if err != nil {
			o.Status = OutcomeFailed
			o.Err = err
			s.logger.Warn("wantlist update failed",
				slog.String("release_id", e.ID),
				slog.String("direction", string(dir)),
				slog.Any("error", err))
			if dir == DirectionRemove {
				sink.Append(diag.Error, fmt.Sprintf("Failed to remove release: %s", e))
			} else {
				sink.Append(diag.Error, fmt.Sprintf("Failed to add release: %s", e))
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// Package source provides the event collaborators the service reads games
// from: a directory of fixtures and an in-memory set. Both load a complete
// ordered event list up front; nothing here is consulted mid-generation.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/swing/internal/domain/model"
)

// DateLayout is the calendar date format used by schedules and ranges.
const DateLayout = "2006-01-02"

// EventSource loads one game with its full ordered event list.
type EventSource interface {
	LoadGame(ctx context.Context, gameID string) (model.Game, error)
}

// GameLister resolves the game ids scheduled for a league within a range.
type GameLister interface {
	ListGames(ctx context.Context, league string, r DateRange) ([]string, error)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange parses two YYYY-MM-DD dates. An empty to means a single day.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: from %q: %w", ErrInvalidRange, from, err)
	}
	t := f
	if to != "" {
		if t, err = time.Parse(DateLayout, to); err != nil {
			return DateRange{}, fmt.Errorf("%w: to %q: %w", ErrInvalidRange, to, err)
		}
	}
	if t.Before(f) {
		return DateRange{}, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
	}
	return DateRange{From: f, To: t}, nil
}

// Days returns each day in the range formatted with DateLayout.
func (r DateRange) Days() []string {
	var out []string
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}

// Contains reports whether day (YYYY-MM-DD) falls inside the range.
func (r DateRange) Contains(day string) bool {
	d, err := time.Parse(DateLayout, day)
	if err != nil {
		return false
	}
	return !d.Before(r.From) && !d.After(r.To)
}

// normalize checks that game is the one asked for and fills event game ids.
func normalize(gameID string, game model.Game) (model.Game, error) {
	if game.ID == "" {
		game.ID = gameID
	}
	if game.ID != gameID {
		return model.Game{}, fmt.Errorf("%w: fixture holds game %q, want %q", ErrInvalidGame, game.ID, gameID)
	}
	for i := range game.Events {
		if game.Events[i].GameID == "" {
			game.Events[i].GameID = gameID
		}
	}
	return game, nil
}

// Package repository defines the payload version store and its in-memory implementation.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/trace"
)

// Bundle is everything one successful generation commits for a game.
type Bundle struct {
	Version model.PayloadVersion `json:"version"`
	Sport   string               `json:"sport"`
	Moments []model.Moment       `json:"moments"`
	Traces  []trace.MomentTrace  `json:"traces"`
	Summary model.RunSummary     `json:"summary"`
}

// Validate rejects bundles that cannot become a version.
func (b Bundle) Validate() error {
	switch {
	case strings.TrimSpace(b.Version.GameID) == "":
		return fmt.Errorf("%w: game_id is required", ErrInvalidBundle)
	case b.Version.ContentHash == "":
		return fmt.Errorf("%w: content_hash is required", ErrInvalidBundle)
	case len(b.Moments) == 0:
		return fmt.Errorf("%w: no moments", ErrInvalidBundle)
	case len(b.Traces) != len(b.Moments):
		return fmt.Errorf("%w: %d traces for %d moments", ErrInvalidBundle, len(b.Traces), len(b.Moments))
	}
	return nil
}

// Stats summarises store contents.
type Stats struct {
	Games       int `json:"games"`
	Versions    int `json:"versions"`
	ActiveGames int `json:"active_games"`
}

// Store persists payload versions. Versions are immutable once committed and
// exactly one version per game is active.
type Store interface {
	// Commit allocates the next version number for the bundle's game, writes
	// the version inactive and flips the active pointer to it in one atomic
	// step. Concurrent commits for one game all persist; the last one is active.
	Commit(ctx context.Context, b Bundle) (model.PayloadVersion, error)

	// Active returns the active bundle or ErrNoActiveVersion.
	Active(ctx context.Context, gameID string) (Bundle, error)

	// Get returns one version or ErrNotFound.
	Get(ctx context.Context, gameID string, version int) (Bundle, error)

	// List returns the game's version history in ascending order.
	List(ctx context.Context, gameID string) ([]model.PayloadVersion, error)

	// Stats returns counts across all games.
	Stats(ctx context.Context) (Stats, error)

	Close() error
}

// Prepare validates b and fills the fields every store derives the same way.
// The version number and created_at are left to the store.
func Prepare(b Bundle) (Bundle, error) {
	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	b.Version.MomentCount = len(b.Moments)
	if b.Summary.EventCount > 0 && b.Version.EventCount == 0 {
		b.Version.EventCount = b.Summary.EventCount
	}
	if b.Version.GenerationSource == "" {
		b.Version.GenerationSource = model.SourceManual
	}
	return b, nil
}

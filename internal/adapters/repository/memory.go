package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/pkg/logger"
	"github.com/okian/swing/pkg/metrics"
)

var _ Store = (*Memory)(nil)

// gameVersions holds one game's history; active indexes into bundles, -1 when none.
type gameVersions struct {
	bundles []Bundle
	active  int
}

// Memory is an in-process Store. A single mutex makes commit-then-flip atomic.
type Memory struct {
	mu     sync.RWMutex
	games  map[string]*gameVersions
	closed bool

	now func() time.Time
	log logger.Logger
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	s := &Memory{
		games: make(map[string]*gameVersions),
		now:   time.Now,
		log:   logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Commit implements Store.
func (s *Memory) Commit(ctx context.Context, b Bundle) (model.PayloadVersion, error) {
	if err := ctx.Err(); err != nil {
		return model.PayloadVersion{}, err
	}
	b, err := Prepare(b)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_bundle")
		return model.PayloadVersion{}, err
	}
	b = cloneBundle(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.PayloadVersion{}, ErrClosed
	}

	g, ok := s.games[b.Version.GameID]
	if !ok {
		g = &gameVersions{active: -1}
		s.games[b.Version.GameID] = g
	}

	b.Version.VersionNumber = len(g.bundles) + 1
	b.Version.CreatedAt = s.now().UTC()
	b.Version.IsActive = false
	g.bundles = append(g.bundles, b)

	// Flip: the previous active version is marked inactive in the same critical section.
	if g.active >= 0 {
		g.bundles[g.active].Version.IsActive = false
	}
	g.active = len(g.bundles) - 1
	g.bundles[g.active].Version.IsActive = true

	metrics.UpdateActiveGames(s.activeGamesLocked())
	s.log.Debug(ctx, "version committed",
		logger.String("game_id", b.Version.GameID),
		logger.Int("version", b.Version.VersionNumber),
		logger.String("content_hash", b.Version.ContentHash))

	return g.bundles[g.active].Version, nil
}

// Active implements Store.
func (s *Memory) Active(ctx context.Context, gameID string) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok || g.active < 0 {
		return Bundle{}, fmt.Errorf("%w: %s", ErrNoActiveVersion, gameID)
	}
	return cloneBundle(g.bundles[g.active]), nil
}

// Get implements Store.
func (s *Memory) Get(ctx context.Context, gameID string, version int) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok || version < 1 || version > len(g.bundles) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Bundle{}, fmt.Errorf("%w: %s v%d", ErrNotFound, gameID, version)
	}
	return cloneBundle(g.bundles[version-1]), nil
}

// List implements Store.
func (s *Memory) List(ctx context.Context, gameID string) ([]model.PayloadVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.PayloadVersion{}
	if g, ok := s.games[gameID]; ok {
		for _, b := range g.bundles {
			out = append(out, b.Version)
		}
	}
	return out, nil
}

// Stats implements Store.
func (s *Memory) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Games: len(s.games), ActiveGames: s.activeGamesLocked()}
	for _, g := range s.games {
		st.Versions += len(g.bundles)
	}
	return st, nil
}

// Close implements Store. Further commits fail with ErrClosed.
func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Memory) activeGamesLocked() int {
	n := 0
	for _, g := range s.games {
		if g.active >= 0 {
			n++
		}
	}
	return n
}

// cloneBundle copies the slices a caller could append to or reorder.
func cloneBundle(b Bundle) Bundle {
	b.Moments = slices.Clone(b.Moments)
	b.Traces = slices.Clone(b.Traces)
	return b
}

package source

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/okian/swing/internal/domain/model"
)

var (
	_ EventSource = (*Memory)(nil)
	_ GameLister  = (*Memory)(nil)
)

// Memory serves games held in process, e.g. simulated ones.
type Memory struct {
	mu    sync.RWMutex
	games map[string]model.Game
}

// NewMemory creates a source holding games.
func NewMemory(games ...model.Game) *Memory {
	m := &Memory{games: make(map[string]model.Game, len(games))}
	for _, g := range games {
		m.Put(g)
	}
	return m
}

// Put adds or replaces a game.
func (m *Memory) Put(game model.Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game.Events = slices.Clone(game.Events)
	m.games[game.ID] = game
}

// LoadGame implements EventSource.
func (m *Memory) LoadGame(ctx context.Context, gameID string) (model.Game, error) {
	if err := ctx.Err(); err != nil {
		return model.Game{}, err
	}
	m.mu.RLock()
	g, ok := m.games[gameID]
	m.mu.RUnlock()
	if !ok {
		return model.Game{}, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	g.Events = slices.Clone(g.Events)
	return normalize(gameID, g)
}

// ListGames implements GameLister using each game's league and date.
func (m *Memory) ListGames(ctx context.Context, league string, r DateRange) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []string{}
	for id, g := range m.games {
		if strings.EqualFold(g.League, league) && r.Contains(g.Date) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

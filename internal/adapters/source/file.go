package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/pkg/logger"
)

// ScheduleFile is the optional schedule inside a fixture directory.
const ScheduleFile = "schedule.yaml"

var (
	_ EventSource = (*File)(nil)
	_ GameLister  = (*File)(nil)
)

var fixtureExts = []string{".json", ".yaml", ".yml"}

// ScheduleEntry is one row of schedule.yaml.
type ScheduleEntry struct {
	GameID string `yaml:"game_id"`
	League string `yaml:"league"`
	Date   string `yaml:"date"`
}

type schedule struct {
	Games []ScheduleEntry `yaml:"games"`
}

// File reads game fixtures from a directory: one <game_id>.json, .yaml or
// .yml file per game.
type File struct {
	dir string
	log logger.Logger
}

// NewFile creates a source over dir.
func NewFile(dir string) *File {
	return &File{dir: dir, log: logger.Get().Named("source")}
}

// Dir returns the fixture directory.
func (f *File) Dir() string { return f.dir }

// LoadGame implements EventSource.
func (f *File) LoadGame(ctx context.Context, gameID string) (model.Game, error) {
	if err := ctx.Err(); err != nil {
		return model.Game{}, err
	}
	if gameID == "" || strings.ContainsAny(gameID, `/\`) || gameID == "." || gameID == ".." {
		return model.Game{}, fmt.Errorf("%w: bad game id %q", ErrInvalidGame, gameID)
	}
	for _, ext := range fixtureExts {
		path := filepath.Join(f.dir, gameID+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return model.Game{}, fmt.Errorf("reading %s: %w", path, err)
		}
		game, err := decodeGame(path, data)
		if err != nil {
			return model.Game{}, err
		}
		return normalize(gameID, game)
	}
	return model.Game{}, fmt.Errorf("%w: %s in %s", ErrGameNotFound, gameID, f.dir)
}

// ListGames implements GameLister. It reads schedule.yaml when present and
// otherwise scans every fixture's league and date.
func (f *File) ListGames(ctx context.Context, league string, r DateRange) ([]string, error) {
	entries, err := f.schedule(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if strings.EqualFold(e.League, league) && r.Contains(e.Date) {
			out = append(out, e.GameID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *File) schedule(ctx context.Context) ([]ScheduleEntry, error) {
	path := filepath.Join(f.dir, ScheduleFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var s schedule
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidGame, path, err)
		}
		return s.Games, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f.log.Debug(ctx, "no schedule file, scanning fixtures", logger.String("dir", f.dir))
	files, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.dir, err)
	}
	var out []ScheduleEntry
	for _, de := range files {
		ext := filepath.Ext(de.Name())
		if de.IsDir() || de.Name() == ScheduleFile || !isFixture(ext) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(f.dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		game, err := decodeGame(path, data)
		if err != nil {
			f.log.Warn(ctx, "skipping unreadable fixture", logger.String("path", path), logger.Error(err))
			continue
		}
		id := game.ID
		if id == "" {
			id = strings.TrimSuffix(de.Name(), ext)
		}
		out = append(out, ScheduleEntry{GameID: id, League: game.League, Date: game.Date})
	}
	return out, nil
}

// SaveGame writes game as <dir>/<game_id>.json.
func (f *File) SaveGame(game model.Game) (string, error) {
	if game.ID == "" {
		return "", fmt.Errorf("%w: game id is required", ErrInvalidGame)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", f.dir, err)
	}
	data, err := json.MarshalIndent(game, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding game %s: %w", game.ID, err)
	}
	path := filepath.Join(f.dir, game.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // fixtures are not secret
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func decodeGame(path string, data []byte) (model.Game, error) {
	var game model.Game
	var err error
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &game)
	} else {
		err = yaml.Unmarshal(data, &game)
	}
	if err != nil {
		return model.Game{}, fmt.Errorf("%w: %s: %w", ErrInvalidGame, path, err)
	}
	return game, nil
}

func isFixture(ext string) bool {
	for _, e := range fixtureExts {
		if ext == e {
			return true
		}
	}
	return false
}

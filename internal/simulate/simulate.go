// Package simulate generates deterministic synthetic games for fixtures and
// property tests.
package simulate

import (
	"fmt"
	"math/rand"

	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/model"
)

// Per-sport shape of a synthetic game.
type sportShape struct {
	periodMinutes int
	scoreChance   float64
	points        []int
}

var shapes = map[string]sportShape{
	"basketball": {periodMinutes: 12, scoreChance: 0.45, points: []int{2, 2, 2, 3, 3, 1}},
	"football":   {periodMinutes: 15, scoreChance: 0.09, points: []int{3, 7, 7, 6, 2}},
	"hockey":     {periodMinutes: 20, scoreChance: 0.05, points: []int{1}},
	"soccer":     {periodMinutes: 45, scoreChance: 0.03, points: []int{1}},
}

var defaultShape = sportShape{periodMinutes: 15, scoreChance: 0.2, points: []int{1, 2}}

// Chances of non-scoring flavour.
const (
	highImpactChance = 0.015
	keyPlayChance    = 0.05
	homeBias         = 0.5
	defaultPlays     = 200
	rosterSize       = 8
)

var routineKinds = []string{"miss", "rebound", "foul", "timeout", "substitution", "turnover"}

// Config describes one synthetic game.
type Config struct {
	GameID   string
	League   string
	Date     string
	HomeTeam string
	AwayTeam string
	Plays    int
	Seed     int64
	// HomeBias is the chance a scoring play goes to the home side (0 uses 0.5).
	HomeBias float64
}

// Game generates one game for profile. The same profile and config always
// produce the same game.
func Game(profile config.SportProfile, cfg Config) model.Game {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic fixtures
	shape, ok := shapes[profile.Name]
	if !ok {
		shape = defaultShape
	}

	plays := cfg.Plays
	if plays <= 0 {
		plays = defaultPlays
	}
	periods := profile.RegulationPeriods
	if periods <= 0 {
		periods = 1
	}
	if periods > plays {
		periods = plays
	}
	bias := cfg.HomeBias
	if bias <= 0 || bias >= 1 {
		bias = homeBias
	}

	home, away := orDefault(cfg.HomeTeam, "HOME"), orDefault(cfg.AwayTeam, "AWAY")
	game := model.Game{
		ID:       orDefault(cfg.GameID, fmt.Sprintf("sim-%s-%d", profile.Name, cfg.Seed)),
		Sport:    profile.Name,
		League:   cfg.League,
		Date:     cfg.Date,
		HomeTeam: home,
		AwayTeam: away,
		Events:   make([]model.PlayEvent, 0, plays),
	}

	perPeriod := plays / periods
	periodSeconds := shape.periodMinutes * 60
	var score model.Score

	for i := 0; i < plays; i++ {
		period := i/perPeriod + 1
		if period > periods {
			period = periods
		}
		offset := i - (period-1)*perPeriod
		count := perPeriod
		if period == periods {
			count = plays - (periods-1)*perPeriod
		}
		elapsed := offset * periodSeconds / count

		side := model.SideHome
		team := home
		if rng.Float64() >= bias {
			side, team = model.SideAway, away
		}

		e := model.PlayEvent{
			GameID:    game.ID,
			PlayIndex: i,
			Period:    period,
			Clock:     clock(profile, period, elapsed, periodSeconds),
			Side:      side,
			Team:      team,
			Player:    fmt.Sprintf("%s-%d", team, rng.Intn(rosterSize)+1),
		}

		roll := rng.Float64()
		switch {
		case i > 0 && roll < shape.scoreChance:
			pts := shape.points[rng.Intn(len(shape.points))]
			if side == model.SideHome {
				score.Home += pts
			} else {
				score.Away += pts
			}
			e.EventKind = fmt.Sprintf("score_%d", pts)
			e.Description = fmt.Sprintf("%s scores %d", e.Player, pts)
		case roll < shape.scoreChance+highImpactChance && len(profile.HighImpactKinds) > 0:
			e.EventKind = profile.HighImpactKinds[rng.Intn(len(profile.HighImpactKinds))]
		case roll < shape.scoreChance+highImpactChance+keyPlayChance && len(profile.KeyPlayKinds) > 0:
			e.EventKind = profile.KeyPlayKinds[rng.Intn(len(profile.KeyPlayKinds))]
		default:
			e.EventKind = routineKinds[rng.Intn(len(routineKinds))]
		}
		e.HomeScore, e.AwayScore = score.Home, score.Away
		game.Events = append(game.Events, e)
	}
	return game
}

// Games generates n games with consecutive seeds starting at cfg.Seed.
func Games(profile config.SportProfile, cfg Config, n int) []model.Game {
	out := make([]model.Game, 0, n)
	for k := 0; k < n; k++ {
		c := cfg
		c.Seed = cfg.Seed + int64(k)
		if cfg.GameID != "" {
			c.GameID = fmt.Sprintf("%s-%d", cfg.GameID, k+1)
		}
		out = append(out, Game(profile, c))
	}
	return out
}

func clock(profile config.SportProfile, period, elapsed, periodSeconds int) string {
	secs := periodSeconds - elapsed
	if profile.CountsUp() {
		secs = (period-1)*periodSeconds + elapsed
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

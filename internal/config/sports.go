package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// BudgetRule sizes the per-game moment budget. Fixed wins when positive;
// otherwise the budget is ceil(plays/PlaysPerMoment) clamped to [Min, Max].
type BudgetRule struct {
	Fixed          int `yaml:"fixed"`
	PlaysPerMoment int `yaml:"plays_per_moment"`
	Min            int `yaml:"min"`
	Max            int `yaml:"max"`
}

// Budget returns the moment budget for a game with playCount events.
func (b BudgetRule) Budget(playCount int) int {
	if b.Fixed > 0 {
		return b.Fixed
	}
	per := b.PlaysPerMoment
	if per <= 0 {
		per = 1
	}
	budget := int(math.Ceil(float64(playCount) / float64(per)))
	if b.Min > 0 && budget < b.Min {
		budget = b.Min
	}
	if b.Max > 0 && budget > b.Max {
		budget = b.Max
	}
	if budget < 1 {
		budget = 1
	}
	return budget
}

// DistributionTarget bounds how moments spread over halves and periods.
type DistributionTarget struct {
	// MaxHalfShare caps the fraction of moments starting in either half (0 disables).
	MaxHalfShare float64 `yaml:"max_half_share"`
	// MaxPerPeriod caps moments starting in one period (0 disables).
	MaxPerPeriod int `yaml:"max_per_period"`
	// MinMoments is the moment count below which the half share is not enforced.
	MinMoments int `yaml:"min_moments"`
}

// SportProfile is the per-sport generation configuration.
type SportProfile struct {
	Name                      string             `yaml:"name"`
	TierThresholds            []int              `yaml:"tier_thresholds"`
	MomentBudget              BudgetRule         `yaml:"moment_budget"`
	HalfDistribution          DistributionTarget `yaml:"half_distribution_target"`
	MinRunPoints              int                `yaml:"min_run_points"`
	LateGameProgressThreshold float64            `yaml:"late_game_progress_threshold"`
	ClosingMinStreak          int                `yaml:"closing_min_streak"`
	RegulationPeriods         int                `yaml:"regulation_periods"`
	ClockDirection            string             `yaml:"clock_direction"`
	HighImpactKinds           []string           `yaml:"high_impact_kinds"`
	KeyPlayKinds              []string           `yaml:"key_play_kinds"`
	TriggerWeights            map[string]float64 `yaml:"trigger_weights"`
}

// Validate rejects profiles the pipeline cannot run with.
func (p SportProfile) Validate() error {
	if len(p.TierThresholds) == 0 {
		return fmt.Errorf("%w: %s: tier_thresholds is empty", ErrInvalidSport, p.Name)
	}
	for i, t := range p.TierThresholds {
		if t <= 0 {
			return fmt.Errorf("%w: %s: tier_thresholds[%d] must be positive", ErrInvalidSport, p.Name, i)
		}
		if i > 0 && t <= p.TierThresholds[i-1] {
			return fmt.Errorf("%w: %s: tier_thresholds must be strictly ascending", ErrInvalidSport, p.Name)
		}
	}
	if p.LateGameProgressThreshold < 0 || p.LateGameProgressThreshold > 1 {
		return fmt.Errorf("%w: %s: late_game_progress_threshold must be within [0,1]", ErrInvalidSport, p.Name)
	}
	if p.HalfDistribution.MaxHalfShare < 0 || p.HalfDistribution.MaxHalfShare > 1 {
		return fmt.Errorf("%w: %s: max_half_share must be within [0,1]", ErrInvalidSport, p.Name)
	}
	switch p.ClockDirection {
	case "", "down", "up":
	default:
		return fmt.Errorf("%w: %s: clock_direction must be down or up", ErrInvalidSport, p.Name)
	}
	return nil
}

// CountsUp reports whether the game clock runs upward (soccer style).
func (p SportProfile) CountsUp() bool { return p.ClockDirection == "up" }

// IsHighImpact reports whether kind is flagged as a non-scoring notable event.
func (p SportProfile) IsHighImpact(kind string) bool {
	return containsFold(p.HighImpactKinds, kind)
}

// IsKeyPlay reports whether kind marks a key play for the validator.
func (p SportProfile) IsKeyPlay(kind string) bool {
	return containsFold(p.KeyPlayKinds, kind) || p.IsHighImpact(kind)
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// Profiles maps lower-cased sport names to their profiles.
type Profiles map[string]SportProfile

// Lookup returns the profile for sport or ErrMissingSport.
func (p Profiles) Lookup(sport string) (SportProfile, error) {
	profile, ok := p[strings.ToLower(strings.TrimSpace(sport))]
	if !ok {
		return SportProfile{}, fmt.Errorf("%w: %q", ErrMissingSport, sport)
	}
	return profile, nil
}

// Names returns the sorted sport names.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultProfiles returns the built-in sport profiles.
func DefaultProfiles() Profiles {
	return Profiles{
		"basketball": {
			Name:           "basketball",
			TierThresholds: []int{3, 6, 10, 16},
			MomentBudget:   BudgetRule{PlaysPerMoment: 30, Min: 6, Max: 20},
			HalfDistribution: DistributionTarget{
				MaxHalfShare: 0.65,
				MaxPerPeriod: 7,
				MinMoments:   6,
			},
			MinRunPoints:              7,
			LateGameProgressThreshold: 0.85,
			ClosingMinStreak:          12,
			RegulationPeriods:         4,
			ClockDirection:            "down",
			HighImpactKinds:           []string{"injury", "ejection", "review", "flagrant_foul", "technical_foul"},
			KeyPlayKinds:              []string{"dunk", "block", "steal", "and_one"},
		},
		"football": {
			Name:           "football",
			TierThresholds: []int{4, 8, 14, 21},
			MomentBudget:   BudgetRule{PlaysPerMoment: 14, Min: 5, Max: 16},
			HalfDistribution: DistributionTarget{
				MaxHalfShare: 0.7,
				MaxPerPeriod: 6,
				MinMoments:   5,
			},
			MinRunPoints:              10,
			LateGameProgressThreshold: 0.85,
			ClosingMinStreak:          8,
			RegulationPeriods:         4,
			ClockDirection:            "down",
			HighImpactKinds:           []string{"injury", "ejection", "review", "turnover", "safety"},
			KeyPlayKinds:              []string{"interception", "fumble", "sack", "fourth_down_conversion"},
		},
		"hockey": {
			Name:           "hockey",
			TierThresholds: []int{1, 2, 3, 4},
			MomentBudget:   BudgetRule{PlaysPerMoment: 12, Min: 4, Max: 12},
			HalfDistribution: DistributionTarget{
				MaxHalfShare: 0.75,
				MaxPerPeriod: 5,
				MinMoments:   4,
			},
			MinRunPoints:              2,
			LateGameProgressThreshold: 0.8,
			ClosingMinStreak:          6,
			RegulationPeriods:         3,
			ClockDirection:            "down",
			HighImpactKinds:           []string{"injury", "ejection", "review", "major_penalty", "fight"},
			KeyPlayKinds:              []string{"power_play_goal", "shorthanded_goal", "penalty_shot"},
		},
		"soccer": {
			Name:           "soccer",
			TierThresholds: []int{1, 2, 3, 4},
			MomentBudget:   BudgetRule{PlaysPerMoment: 10, Min: 3, Max: 10},
			HalfDistribution: DistributionTarget{
				MaxHalfShare: 0.75,
				MaxPerPeriod: 6,
				MinMoments:   4,
			},
			MinRunPoints:              2,
			LateGameProgressThreshold: 0.8,
			ClosingMinStreak:          6,
			RegulationPeriods:         2,
			ClockDirection:            "up",
			HighImpactKinds:           []string{"red_card", "injury", "var_review", "penalty_awarded"},
			KeyPlayKinds:              []string{"penalty_saved", "yellow_card", "woodwork"},
		},
	}
}

// sportsFile is the on-disk shape of a sports file.
type sportsFile struct {
	Sports []SportProfile `yaml:"sports"`
}

// LoadSports reads a YAML sports file and layers it over the built-in profiles.
// An empty path returns the defaults.
func LoadSports(path string) (Profiles, error) {
	profiles := DefaultProfiles()
	if strings.TrimSpace(path) == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading sports file: %w", err)
	}
	return mergeSports(profiles, data)
}

// ParseSports layers YAML sports definitions over the built-in profiles.
func ParseSports(data []byte) (Profiles, error) {
	return mergeSports(DefaultProfiles(), data)
}

func mergeSports(profiles Profiles, data []byte) (Profiles, error) {
	var doc sportsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loading sports file: %w", err)
	}
	for i, sport := range doc.Sports {
		name := strings.ToLower(strings.TrimSpace(sport.Name))
		if name == "" {
			return nil, fmt.Errorf("%w: sports[%d] name is required", ErrInvalidSport, i)
		}
		sport.Name = name
		if err := sport.Validate(); err != nil {
			return nil, err
		}
		profiles[name] = sport
	}
	return profiles, nil
}

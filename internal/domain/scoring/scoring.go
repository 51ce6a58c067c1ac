// Package scoring computes the importance of a moment from its narrative signals.
package scoring

import (
	"math"

	"github.com/okian/swing/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultTriggerWeight = 1.0
	maxScoreValue        = 100

	tierPoints     = 12.0
	swingPoints    = 2.5
	runPoints      = 1.5
	keyPlayPoints  = 4.0
	lengthPoints   = 0.25
	maxLengthBonus = 10.0
)

// defaultWeights favour control changes over routine stretches.
var defaultWeights = map[model.TriggerType]float64{
	model.TriggerFlip:           1.6,
	model.TriggerTie:            1.4,
	model.TriggerClosingControl: 1.5,
	model.TriggerHighImpact:     1.3,
	model.TriggerLeadBuild:      1.2,
	model.TriggerCut:            1.2,
	model.TriggerOpener:         0.8,
	model.TriggerNeutral:        0.6,
}

// Option applies a configuration option to the InMemoryScorer.
type Option func(*InMemoryScorer)

// WithTriggerWeightsFromConfig overrides trigger weights from a configuration map
// keyed by trigger name. Non-positive weights are ignored.
func WithTriggerWeightsFromConfig(weights map[string]float64, defaultWeight float64) Option {
	return func(s *InMemoryScorer) {
		for name, weight := range weights {
			if weight > 0 {
				s.triggerWeights[model.TriggerType(name)] = weight
			}
		}
		if defaultWeight > 0 {
			s.defaultWeight = defaultWeight
		}
	}
}

// Input abstracts the moment fields needed for scoring.
type Input struct {
	MomentID  string
	Trigger   model.TriggerType
	Tier      int
	Swing     int // absolute differential change across the moment
	RunPoints int
	KeyPlays  int
	PlayCount int
}

// InputFor extracts scoring input from a moment.
func InputFor(m model.Moment) Input {
	swing := m.ScoreEnd.Differential() - m.ScoreStart.Differential()
	if swing < 0 {
		swing = -swing
	}
	in := Input{
		MomentID:  m.ID,
		Trigger:   m.TriggerType,
		Tier:      m.LadderTier,
		Swing:     swing,
		KeyPlays:  len(m.KeyPlays),
		PlayCount: m.PlayCount,
	}
	if m.Run != nil {
		in.RunPoints = m.Run.Points
	}
	return in
}

// Result contains the computed importance for a moment.
type Result struct {
	MomentID string
	Score    float64
}

// Scorer computes a moment importance in [0, 100].
type Scorer interface {
	Score(in Input) Result
}

// InMemoryScorer implements Scorer with a weighted linear model.
// It is deterministic and safe for concurrent use once built.
type InMemoryScorer struct {
	triggerWeights map[model.TriggerType]float64
	defaultWeight  float64
}

// NewInMemoryScorer creates a new scorer with configuration options.
func NewInMemoryScorer(opts ...Option) *InMemoryScorer {
	s := &InMemoryScorer{
		triggerWeights: make(map[model.TriggerType]float64, len(defaultWeights)),
		defaultWeight:  defaultTriggerWeight,
	}
	for t, w := range defaultWeights {
		s.triggerWeights[t] = w
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the importance for the given input.
func (s *InMemoryScorer) Score(in Input) Result {
	weight, ok := s.triggerWeights[in.Trigger]
	if !ok {
		weight = s.defaultWeight
	}

	raw := float64(in.Tier)*tierPoints +
		float64(in.Swing)*swingPoints +
		float64(in.RunPoints)*runPoints +
		float64(in.KeyPlays)*keyPlayPoints +
		math.Min(maxLengthBonus, float64(in.PlayCount)*lengthPoints)

	score := math.Max(0, math.Min(maxScoreValue, raw*weight))
	// Two decimals keep content hashes stable across platforms.
	score = math.Round(score*100) / 100

	return Result{MomentID: in.MomentID, Score: score}
}

// Apply sets Importance on every moment in place.
func (s *InMemoryScorer) Apply(moments []model.Moment) {
	for i := range moments {
		moments[i].Importance = s.Score(InputFor(moments[i])).Score
	}
}

// Normalized maps an importance score onto [0, 1].
func Normalized(score float64) float64 {
	return math.Max(0, math.Min(1, score/maxScoreValue))
}

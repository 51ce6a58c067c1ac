// Package pipeline runs one game's generation: ladder, runs, triggers,
// candidates, validation, merge, scoring and trace. It is a pure function of
// its inputs, performs no I/O and never logs.
package pipeline

import (
	"errors"

	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/ladder"
	"github.com/okian/swing/internal/domain/merge"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/moment"
	"github.com/okian/swing/internal/domain/runs"
	"github.com/okian/swing/internal/domain/scoring"
	"github.com/okian/swing/internal/domain/trace"
	"github.com/okian/swing/internal/domain/trigger"
	"github.com/okian/swing/internal/domain/validate"
)

// Output is a successful run, ready to be committed as one version.
type Output struct {
	GameID      string
	Sport       string
	Moments     []model.Moment
	Traces      []trace.MomentTrace
	Summary     model.RunSummary
	ContentHash string
	// Candidates are the builder output before validation and merging.
	Candidates []model.Moment
	// InitialVerdicts are the validator verdicts, aligned with Candidates.
	InitialVerdicts []validate.Verdict
	// Records are the merge displacements, in order.
	Records []merge.Record
}

// Option configures a run.
type Option func(*options)

type options struct {
	mergeOpts    []merge.Option
	defaultSport string
}

// WithMergeOptions passes options through to the merge engine.
func WithMergeOptions(opts ...merge.Option) Option {
	return func(o *options) {
		o.mergeOpts = append(o.mergeOpts, opts...)
	}
}

// WithDefaultSport names the profile used when a game carries no sport.
func WithDefaultSport(sport string) Option {
	return func(o *options) {
		o.defaultSport = sport
	}
}

// Generate runs the pipeline for game using the profile for its sport.
func Generate(game model.Game, profiles config.Profiles, opts ...Option) (*Output, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	sport := game.Sport
	if sport == "" {
		sport = o.defaultSport
	}
	profile, err := profiles.Lookup(sport)
	if err != nil {
		return nil, configf(game.ID, "%v", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, configf(game.ID, "%v", err)
	}
	if err := CheckEvents(game); err != nil {
		return nil, err
	}

	tl := &moment.Timeline{
		Events:  game.Events,
		States:  ladder.NewTracker(profile.TierThresholds).Track(game.Events),
		Runs:    runs.Detect(game.Events, profile.MinRunPoints),
		Profile: profile,
	}
	triggers := trigger.NewDetector(profile).Detect(tl.Events, tl.States, tl.Runs)
	candidates := moment.Build(tl, triggers)

	res, err := merge.NewEngine(tl, o.mergeOpts...).Run(candidates)
	if err != nil {
		var stuck *merge.StuckError
		if errors.As(err, &stuck) {
			return nil, &Error{Kind: ErrValidation, GameID: game.ID, Msg: err.Error(), Issues: stuck.Issues}
		}
		return nil, &Error{Kind: ErrValidation, GameID: game.ID, Msg: err.Error()}
	}

	scoring.NewInMemoryScorer(scoring.WithTriggerWeightsFromConfig(profile.TriggerWeights, 0)).Apply(res.Moments)

	hash, err := ContentHash(res.Moments)
	if err != nil {
		return nil, &Error{Kind: ErrInput, GameID: game.ID, Msg: err.Error()}
	}

	return &Output{
		GameID:      game.ID,
		Sport:       profile.Name,
		Moments:     res.Moments,
		Traces:      trace.Record(tl, triggers, candidates, res),
		ContentHash: hash,
		Candidates:  candidates,
		Records:     res.Records,

		InitialVerdicts: res.InitialVerdicts,
		Summary: model.RunSummary{
			FinalMoments:     len(res.Moments),
			InitialMoments:   len(candidates),
			MergedMoments:    len(res.Records),
			RejectedMoments:  res.Rejected,
			EventCount:       len(game.Events),
			Budget:           res.Budget,
			HardTriggerCount: res.HardCount,
		},
	}, nil
}

// CheckEvents rejects event lists the pipeline cannot run on.
func CheckEvents(game model.Game) error {
	if len(game.Events) == 0 {
		return inputf(game.ID, "no events")
	}
	for i, e := range game.Events {
		if e.GameID != "" && game.ID != "" && e.GameID != game.ID {
			return inputf(game.ID, "event %d belongs to game %s", e.PlayIndex, e.GameID)
		}
		if e.HomeScore < 0 || e.AwayScore < 0 {
			return inputf(game.ID, "event %d has a negative score", e.PlayIndex)
		}
		if e.Period < 0 {
			return inputf(game.ID, "event %d has a negative period", e.PlayIndex)
		}
		if i == 0 {
			continue
		}
		prev := game.Events[i-1]
		if e.PlayIndex <= prev.PlayIndex {
			return inputf(game.ID, "play_index %d follows %d", e.PlayIndex, prev.PlayIndex)
		}
		if e.Period < prev.Period {
			return inputf(game.ID, "period goes back from %d to %d at play %d", prev.Period, e.Period, e.PlayIndex)
		}
	}
	return nil
}

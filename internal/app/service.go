// Package service is the façade the HTTP, MCP and CLI surfaces call: it
// loads games, runs the generation pipeline, commits versions and answers
// trace, history, comparison and quality queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/swing/internal/adapters/mq/queue"
	"github.com/okian/swing/internal/adapters/mq/worker"
	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/adapters/source"
	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/diff"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/quality"
	"github.com/okian/swing/internal/domain/types"
	"github.com/okian/swing/internal/pipeline"
	"github.com/okian/swing/pkg/logger"
	"github.com/okian/swing/pkg/metrics"
)

const tracerName = "github.com/okian/swing/internal/app"

// Batch outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeCancelled = "cancelled"
)

// Service wires the event source, pipeline and version store together.
type Service struct {
	store  repository.Store
	events source.EventSource
	lister source.GameLister

	profiles     config.Profiles
	defaultSport string
	qualityOpts  []quality.Option

	workerCount  int
	queueSize    int
	batchTimeout time.Duration

	tracer   trace.Tracer
	newRunID func() string
	logger   logger.Logger
}

// New constructs a Service over store and events.
func New(store repository.Store, events source.EventSource, opts ...Option) *Service {
	s := &Service{
		store:        store,
		events:       events,
		profiles:     config.DefaultProfiles(),
		defaultSport: "basketball",
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10_000,
		batchTimeout: 15 * time.Minute,
		tracer:       otel.Tracer(tracerName),
		newRunID:     func() string { return uuid.NewString() },
		logger:       logger.Get().Named("service"),
	}
	if l, ok := events.(source.GameLister); ok {
		s.lister = l
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateOption tunes a single generation call.
type GenerateOption func(*generateRequest)

type generateRequest struct {
	source string
}

// WithGenerationSource records who asked for the version (manual, api, ...).
func WithGenerationSource(src string) GenerateOption {
	return func(r *generateRequest) {
		if src != "" {
			r.source = src
		}
	}
}

// Generate creates the first version of a game. A game that already has a
// version is skipped with ErrAlreadyGenerated.
func (s *Service) Generate(ctx context.Context, gameID string, opts ...GenerateOption) (model.PayloadVersion, error) {
	req := generateRequest{source: model.SourceManual}
	for _, opt := range opts {
		opt(&req)
	}
	return s.generate(ctx, gameID, false, req.source)
}

// Regenerate creates a new version even when one exists. The previous
// version stays readable; the new one becomes active.
func (s *Service) Regenerate(ctx context.Context, gameID string, opts ...GenerateOption) (model.PayloadVersion, error) {
	req := generateRequest{source: model.SourceRegenerate}
	for _, opt := range opts {
		opt(&req)
	}
	return s.generate(ctx, gameID, true, req.source)
}

func (s *Service) generate(ctx context.Context, gameID string, force bool, src string) (model.PayloadVersion, error) {
	ctx, span := s.tracer.Start(ctx, "service.Generate", trace.WithAttributes(
		attribute.String("game.id", gameID),
		attribute.Bool("force", force),
		attribute.String("source", src),
	))
	defer span.End()

	fail := func(err error) (model.PayloadVersion, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.PayloadVersion{}, err
	}

	if !force {
		versions, err := s.store.List(ctx, gameID)
		if err != nil {
			return fail(fmt.Errorf("listing versions of %s: %w", gameID, err))
		}
		if len(versions) > 0 {
			span.SetAttributes(attribute.Bool("skipped", true))
			return model.PayloadVersion{}, fmt.Errorf("%w: %s has %d", ErrAlreadyGenerated, gameID, len(versions))
		}
	}

	game, err := s.events.LoadGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, source.ErrGameNotFound) {
			return fail(fmt.Errorf("%w: %w", ErrGameNotFound, err))
		}
		return fail(fmt.Errorf("loading game %s: %w", gameID, err))
	}

	sport := game.Sport
	if sport == "" {
		sport = s.defaultSport
	}
	runID := s.newRunID()
	start := time.Now()
	out, err := pipeline.Generate(game, s.profiles, pipeline.WithDefaultSport(s.defaultSport))
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		kind := pipeline.Kind(err)
		if kind == "" {
			kind = "error"
		}
		metrics.RecordGeneration(sport, kind, latency)
		metrics.RecordErrorByComponent("pipeline", kind)
		s.logger.Warn(ctx, "generation failed",
			logger.String("game_id", gameID),
			logger.String("run_id", runID),
			logger.String("kind", kind),
			logger.Error(err))
		return fail(err)
	}
	metrics.RecordGeneration(out.Sport, "ok", latency)
	recordRun(out)

	// The run is complete; the commit must not be torn by a late cancel.
	commitStart := time.Now()
	v, err := s.store.Commit(context.WithoutCancel(ctx), repository.Bundle{
		Version: model.PayloadVersion{
			GameID:           gameID,
			ContentHash:      out.ContentHash,
			EventCount:       len(game.Events),
			GenerationSource: src,
			PipelineRunID:    runID,
		},
		Sport:   out.Sport,
		Moments: out.Moments,
		Traces:  out.Traces,
		Summary: out.Summary,
	})
	if err != nil {
		metrics.RecordErrorByComponent("repository", "commit")
		return fail(fmt.Errorf("committing %s: %w", gameID, err))
	}
	metrics.RecordVersionCommit(src, float64(time.Since(commitStart).Milliseconds()))

	span.SetAttributes(
		attribute.Int("version", v.VersionNumber),
		attribute.Int("moments", v.MomentCount),
		attribute.String("content_hash", v.ContentHash),
	)
	s.logger.Info(ctx, "version committed",
		logger.String("game_id", gameID),
		logger.Int("version", v.VersionNumber),
		logger.Int("moments", v.MomentCount),
		logger.String("run_id", runID),
		logger.String("source", src))
	return v, nil
}

func recordRun(out *pipeline.Output) {
	metrics.RecordFinalMoments(out.Sport, len(out.Moments))
	for _, r := range out.Records {
		metrics.RecordMerge(r.Reason)
	}
	for _, v := range out.InitialVerdicts {
		for _, issue := range v.Issues {
			metrics.RecordValidatorRejection(string(issue))
		}
	}
}

// LatestTrace returns the active version with its traces and run summary.
func (s *Service) LatestTrace(ctx context.Context, gameID string) (types.TraceBundle, error) {
	b, err := s.store.Active(ctx, gameID)
	if err != nil {
		return types.TraceBundle{}, err
	}
	return types.TraceBundle{
		Version: b.Version,
		Sport:   b.Sport,
		Moments: b.Moments,
		Traces:  b.Traces,
		Summary: b.Summary,
	}, nil
}

// ListVersions returns the version history of a game.
func (s *Service) ListVersions(ctx context.Context, gameID string) (types.VersionHistory, error) {
	versions, err := s.store.List(ctx, gameID)
	if err != nil {
		return types.VersionHistory{}, err
	}
	h := types.VersionHistory{GameID: gameID, Versions: versions}
	for _, v := range versions {
		if v.IsActive {
			h.ActiveVersion = v.VersionNumber
		}
	}
	return h, nil
}

// CompareVersions diffs version a against version b of one game.
func (s *Service) CompareVersions(ctx context.Context, gameID string, a, b int) (*diff.Result, error) {
	ba, err := s.version(ctx, gameID, a)
	if err != nil {
		return nil, err
	}
	bb, err := s.version(ctx, gameID, b)
	if err != nil {
		return nil, err
	}

	var opts []diff.Option
	if p, err := s.profiles.Lookup(ba.Sport); err == nil {
		opts = append(opts, diff.WithRegulationPeriods(p.RegulationPeriods))
	}
	return diff.NewEngine(opts...).Compare(
		diff.Side{Version: ba.Version, Moments: ba.Moments},
		diff.Side{Version: bb.Version, Moments: bb.Moments},
	)
}

// RunQualityCheck flags one version; version 0 means the active one.
func (s *Service) RunQualityCheck(ctx context.Context, gameID string, version int) (types.QualityReport, error) {
	var (
		b   repository.Bundle
		err error
	)
	if version == 0 {
		b, err = s.store.Active(ctx, gameID)
	} else {
		b, err = s.version(ctx, gameID, version)
	}
	if err != nil {
		return types.QualityReport{}, err
	}

	profile, err := s.profiles.Lookup(b.Sport)
	if err != nil {
		return types.QualityReport{}, fmt.Errorf("quality check for %s v%d: %w", gameID, b.Version.VersionNumber, err)
	}
	flags := quality.NewChecker(profile, s.qualityOpts...).Run(quality.Input{
		Version: b.Version,
		Moments: b.Moments,
		Summary: b.Summary,
	})
	return types.NewQualityReport(gameID, b.Version.VersionNumber, flags), nil
}

// GetStats returns store counts and the service configuration.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return types.Stats{}, err
	}
	return types.Stats{
		Games:       st.Games,
		Versions:    st.Versions,
		ActiveGames: st.ActiveGames,
		Sports:      s.profiles.Names(),
		WorkerCount: s.workerCount,
		QueueSize:   s.queueSize,
	}, nil
}

func (s *Service) version(ctx context.Context, gameID string, v int) (repository.Bundle, error) {
	b, err := s.store.Get(ctx, gameID, v)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Bundle{}, fmt.Errorf("%w: %w", ErrVersionNotFound, err)
	}
	return b, err
}

// RunBatch generates every requested game on the worker pool. One game's
// failure never aborts the batch. Cancellation and the batch timeout are
// honoured between games only; the remaining games count as cancelled.
func (s *Service) RunBatch(ctx context.Context, req types.BatchRequest) (types.BatchReport, error) {
	batchID := s.newRunID()
	ctx, span := s.tracer.Start(ctx, "service.RunBatch", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Bool("force", req.ForceRegenerate),
	))
	defer span.End()

	ids, err := s.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return types.BatchReport{BatchID: batchID}, err
	}
	span.SetAttributes(attribute.Int("batch.games", len(ids)))

	if s.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.batchTimeout)
		defer cancel()
	}

	start := time.Now()
	tally := &batchTally{report: types.BatchReport{
		BatchID:   batchID,
		Requested: len(ids),
		Failures:  []types.BatchFailure{},
	}}
	if len(ids) == 0 {
		return tally.finish(start), nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(min(s.queueSize, len(ids))))
	pool := worker.NewPool(min(s.workerCount, len(ids)), q, worker.ProcessorFunc(
		func(_ context.Context, job worker.Job) error {
			return s.runJob(ctx, job, tally)
		}),
		worker.WithName("batch"),
		worker.WithLogger(s.logger))
	// Workers outlive cancellation so queued games are drained and counted.
	runCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()
	pool.Start(runCtx)

	s.logger.Info(ctx, "batch started",
		logger.String("batch_id", batchID),
		logger.Int("games", len(ids)),
		logger.Int("workers", pool.Size()))

	enqueued := 0
	for _, id := range ids {
		if err := q.EnqueueWait(ctx, queue.Job{BatchID: batchID, GameID: id, Force: req.ForceRegenerate}); err != nil {
			break
		}
		enqueued++
	}
	for _, id := range ids[enqueued:] {
		tally.add(id, OutcomeCancelled, nil)
	}
	if err := pool.Shutdown(runCtx); err != nil {
		s.logger.Warn(ctx, "batch workers did not drain",
			logger.String("batch_id", batchID),
			logger.Error(err))
	}

	report := tally.finish(start)
	span.SetAttributes(
		attribute.Int("batch.succeeded", report.Succeeded),
		attribute.Int("batch.failed", report.Failed),
		attribute.Int("batch.skipped", report.Skipped),
		attribute.Int("batch.cancelled", report.Cancelled),
	)
	s.logger.Info(ctx, "batch finished",
		logger.String("batch_id", batchID),
		logger.Int("succeeded", report.Succeeded),
		logger.Int("failed", report.Failed),
		logger.Int("skipped", report.Skipped),
		logger.Int("cancelled", report.Cancelled),
		logger.Int64("duration_ms", report.DurationMs))
	return report, nil
}

// runJob generates one batch game. batchCtx is only checked before the game
// starts; the game itself runs to completion.
func (s *Service) runJob(batchCtx context.Context, job worker.Job, tally *batchTally) error {
	if batchCtx.Err() != nil {
		tally.add(job.GameID, OutcomeCancelled, nil)
		return nil
	}
	_, err := s.generate(context.WithoutCancel(batchCtx), job.GameID, job.Force, model.SourceBatch)
	switch {
	case err == nil:
		tally.add(job.GameID, OutcomeSucceeded, nil)
		return nil
	case errors.Is(err, ErrAlreadyGenerated):
		tally.add(job.GameID, OutcomeSkipped, nil)
		return nil
	default:
		tally.add(job.GameID, OutcomeFailed, err)
		return err
	}
}

// resolve turns a request into a de-duplicated, ordered list of game ids.
func (s *Service) resolve(ctx context.Context, req types.BatchRequest) ([]string, error) {
	byIDs := len(req.GameIDs) > 0
	byRange := req.League != "" || req.From != "" || req.To != ""
	var ids []string
	switch {
	case byIDs && byRange:
		return nil, fmt.Errorf("%w: give game_ids or league with a date range, not both", ErrInvalidBatch)
	case byIDs:
		ids = req.GameIDs
	case byRange:
		if req.League == "" || req.From == "" {
			return nil, fmt.Errorf("%w: league and from are required", ErrInvalidBatch)
		}
		if s.lister == nil {
			return nil, ErrNoLister
		}
		r, err := source.ParseDateRange(req.From, req.To)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
		}
		if ids, err = s.lister.ListGames(ctx, req.League, r); err != nil {
			return nil, fmt.Errorf("listing %s games: %w", req.League, err)
		}
	default:
		return nil, fmt.Errorf("%w: no games selected", ErrInvalidBatch)
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// batchTally collects outcomes from concurrent workers. Outcomes arriving
// after finish are dropped; finish counts games never reported as cancelled.
type batchTally struct {
	mu       sync.Mutex
	report   types.BatchReport
	finished bool
}

func (t *batchTally) add(gameID, outcome string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	metrics.RecordBatchGame(outcome)
	switch outcome {
	case OutcomeSucceeded:
		t.report.Succeeded++
	case OutcomeSkipped:
		t.report.Skipped++
	case OutcomeCancelled:
		t.report.Cancelled++
	case OutcomeFailed:
		t.report.Failed++
		kind := pipeline.Kind(err)
		switch {
		case kind != "":
		case errors.Is(err, ErrGameNotFound):
			kind = "not_found"
		default:
			kind = "error"
		}
		t.report.Failures = append(t.report.Failures, types.BatchFailure{GameID: gameID, Kind: kind, Error: err.Error()})
	}
}

func (t *batchTally) finish(start time.Time) types.BatchReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished = true
	r := &t.report
	if missing := r.Requested - r.Succeeded - r.Failed - r.Skipped - r.Cancelled; missing > 0 {
		r.Cancelled += missing
		for range missing {
			metrics.RecordBatchGame(OutcomeCancelled)
		}
	}
	t.report.DurationMs = time.Since(start).Milliseconds()
	sort.Slice(t.report.Failures, func(i, j int) bool {
		return t.report.Failures[i].GameID < t.report.Failures[j].GameID
	})
	return t.report
}

package curate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"garden/internal/logging"
	"garden/internal/manifest"
	"garden/internal/objaverse"
	"garden/internal/objectstore"
	"garden/internal/services"
)

// Stage names stamped on log lines and errors.
const (
	StageAnnotations = "annotations"
	StageFilter      = "filter"
	StageSample      = "sample"
	StageDownload    = "download"
	StagePublish     = "publish"
)

// StatusCancelled is the run status recorded when the context is cancelled.
const StatusCancelled = "cancelled"

// ErrLocked is returned when another run holds the fetch lock.
var ErrLocked = errors.New("another fetch is already running")

// Dataset is the source of annotations and payloads. *objaverse.Client
// satisfies it.
type Dataset interface {
	LoadAnnotations(ctx context.Context) (objaverse.Annotations, error)
	LoadObjects(ctx context.Context, uids []string) (objaverse.Objects, error)
}

// RunRecorder persists run history. *objectstore.Store satisfies it.
type RunRecorder interface {
	BeginRun(ctx context.Context, id string, startedAt time.Time) error
	FinishRun(ctx context.Context, run objectstore.Run) error
}

// Result summarises a run. Counts are filled in as far as the run got.
type Result struct {
	RunID      string           `json:"run_id"`
	Matched    int              `json:"matched"`
	Sampled    int              `json:"sampled"`
	Downloaded int              `json:"downloaded"`
	Failed     int              `json:"failed"`
	Removed    int              `json:"removed"`
	Selected   []manifest.Entry `json:"selected"`
	MaxSize    int64            `json:"max_size_bytes"`
}

// Curator runs the fetch pipeline.
type Curator struct {
	dataset  Dataset
	opts     Options
	sampler  Sampler
	logger   *slog.Logger
	recorder RunRecorder
	now      func() time.Time
	newID    func() string
}

// Option customises a Curator.
type Option func(*Curator)

// WithSampler replaces the random sampler, typically with a deterministic one in tests.
func WithSampler(s Sampler) Option {
	return func(c *Curator) {
		if s != nil {
			c.sampler = s
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Curator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder records every run in rec.
func WithRecorder(rec RunRecorder) Option {
	return func(c *Curator) { c.recorder = rec }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Curator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(next func() string) Option {
	return func(c *Curator) {
		if next != nil {
			c.newID = next
		}
	}
}

// New validates opts and builds a Curator reading from dataset.
func New(dataset Dataset, opts Options, options ...Option) (*Curator, error) {
	if dataset == nil {
		return nil, services.Wrap(services.ErrConfiguration, "curate", "new", "dataset is required", nil)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Curator{
		dataset: dataset,
		opts:    opts,
		sampler: RandomSampler{},
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range options {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "curator")
	return c, nil
}

// Run executes one curation run end to end.
func (c *Curator) Run(ctx context.Context) (result Result, err error) {
	result.RunID = c.newID()
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, c.logger)

	unlock, err := c.acquireLock()
	if err != nil {
		return result, err
	}
	defer unlock()

	started := c.now()
	c.beginRun(ctx, logger, result.RunID, started)
	defer func() {
		c.finishRun(ctx, logger, result, err)
	}()

	err = c.run(ctx, &result)
	if err != nil {
		return result, err
	}
	logger.Info("run complete",
		logging.Int("selected", len(result.Selected)),
		logging.String("manifest", c.opts.ManifestPath),
		logging.Duration("elapsed", c.now().Sub(started)),
	)
	return result, nil
}

func (c *Curator) run(ctx context.Context, result *Result) error {
	stageCtx := services.WithStage(ctx, StageAnnotations)
	logger := logging.WithContext(stageCtx, c.logger)
	logger.Info("loading annotations")
	annotations, err := c.dataset.LoadAnnotations(stageCtx)
	if err != nil {
		return err
	}

	stageCtx = services.WithStage(ctx, StageFilter)
	logger = logging.WithContext(stageCtx, c.logger)
	matched := FilterByTags(annotations, c.opts.TargetTags)
	result.Matched = len(matched)
	logger.Info("filtered by tags",
		logging.Int("annotations", annotations.Len()),
		logging.Int("matched", len(matched)),
	)
	if len(matched) == 0 {
		return services.Wrap(services.ErrEmptyResult, StageFilter, "match tags", "no models found", nil)
	}

	stageCtx = services.WithStage(ctx, StageSample)
	sampled, err := Sample(matched, c.opts.PoolSize, c.sampler)
	if err != nil {
		return err
	}
	result.Sampled = len(sampled)
	logging.WithContext(stageCtx, c.logger).Debug("sampled pool",
		logging.Int("pool_size", c.opts.PoolSize),
		logging.Int("sampled", len(sampled)),
	)

	stageCtx = services.WithStage(ctx, StageDownload)
	logger = logging.WithContext(stageCtx, c.logger)
	logger.Info("downloading objects", logging.Int("objects", len(sampled)))
	objects, err := c.dataset.LoadObjects(stageCtx, sampled)
	if err != nil {
		return err
	}
	candidates, statFailures := Measure(objects.Items)
	failures := slices.Concat(objects.Failed, statFailures)
	result.Failed = len(failures)
	if len(failures) > 0 {
		if c.opts.StrictDownloads {
			return services.Wrap(services.ErrTransport, StageDownload, "load objects",
				fmt.Sprintf("%d of %d objects failed", len(failures), len(sampled)), failures[0])
		}
		for _, failure := range failures {
			logging.WarnWithContext(logger, "object skipped", "download_failed",
				logging.String("uid", failure.ID),
				logging.Error(failure.Err),
				logging.String(logging.FieldErrorHint, "check dataset connectivity or set curation.strict_downloads to fail fast"),
				logging.String(logging.FieldImpact, "object excluded from selection"),
			)
		}
	}
	result.Downloaded = len(candidates)
	if len(candidates) == 0 {
		return services.Wrap(services.ErrTransport, StageDownload, "load objects", "no objects could be downloaded", nil)
	}

	stageCtx = services.WithStage(ctx, StagePublish)
	logger = logging.WithContext(stageCtx, c.logger)
	selected := Select(candidates, c.opts.TargetSize)
	result.MaxSize = selected[len(selected)-1].Size
	logger.Info("selected smallest models",
		logging.Int("selected", len(selected)),
		logging.String("max_size", humanize.IBytes(uint64(result.MaxSize))),
	)
	if err := stageCtx.Err(); err != nil {
		return err
	}
	pub, err := Publish(selected, c.opts, logger)
	result.Removed = pub.Removed
	if err != nil {
		return err
	}
	result.Selected = pub.Entries
	logger.Info("manifest saved",
		logging.String("path", c.opts.ManifestPath),
		logging.Int("items", len(pub.Entries)),
		logging.String("bytes", humanize.IBytes(uint64(pub.Bytes))),
	)
	return nil
}

func (c *Curator) acquireLock() (func(), error) {
	if c.opts.LockPath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.opts.LockPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "curate", "lock", "create lock directory", err)
	}
	lock := flock.New(c.opts.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "curate", "lock", c.opts.LockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "curate", "lock", c.opts.LockPath, ErrLocked)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release fetch lock", logging.Error(err))
		}
	}, nil
}

func (c *Curator) beginRun(ctx context.Context, logger *slog.Logger, id string, started time.Time) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.BeginRun(ctx, id, started); err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from garden history"),
		)
	}
}

func (c *Curator) finishRun(ctx context.Context, logger *slog.Logger, result Result, runErr error) {
	if c.recorder == nil {
		return
	}
	status := services.Classify(runErr)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		status = StatusCancelled
	}
	run := objectstore.Run{
		ID:         result.RunID,
		FinishedAt: c.now(),
		Status:     status,
		Matched:    result.Matched,
		Sampled:    result.Sampled,
		Downloaded: result.Downloaded,
		Failed:     result.Failed,
		Selected:   len(result.Selected),
	}
	if runErr == nil {
		run.ManifestPath = c.opts.ManifestPath
	} else {
		run.Error = runErr.Error()
	}
	if err := c.recorder.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logger, "run history update failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run status in garden history may be stale"),
		)
	}
}

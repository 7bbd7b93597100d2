package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/audioset-dl/internal/download"
	"github.com/ytget/audioset-dl/internal/manifest"
	"github.com/ytget/audioset-dl/internal/model"
	"github.com/ytget/audioset-dl/internal/platform"
	"github.com/ytget/audioset-dl/internal/transcode"
)

// Options configures a run.
type Options struct {
	DatasetDir      string
	Workers         int
	SkipExisting    bool
	RemoveDownloads bool
	ProbeDuration   bool
}

// Runner drives segments through download, transcode and the manifest.
type Runner struct {
	downloader download.Downloader
	transcoder transcode.Transcoder
	recorder   manifest.Recorder
	opts       Options
	logger     *zap.Logger
	progress   Progress
}

// NewRunner wires the pipeline stages together.
func NewRunner(d download.Downloader, t transcode.Transcoder, rec manifest.Recorder, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = &manifest.Discard{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		downloader: d,
		transcoder: t,
		recorder:   rec,
		opts:       opts,
		logger:     logger,
		progress:   noopProgress{},
	}
}

// SetProgress installs a progress reporter.
func (r *Runner) SetProgress(p Progress) {
	if p == nil {
		p = noopProgress{}
	}
	r.progress = p
}

// Run processes every segment and returns the run summary. The error is
// non-nil only when ctx was cancelled; per-clip failures are in the summary.
func (r *Runner) Run(ctx context.Context, segments []model.Segment) (*Summary, error) {
	started := time.Now()
	segments, duplicates := r.dedupe(segments)
	batch := model.NewBatch(segments)
	r.progress.Start(batch.Len())
	defer r.progress.Done()

	r.logger.Info("run started",
		zap.Int("segments", batch.Len()),
		zap.Int("workers", r.opts.Workers),
		zap.String("dataset", r.opts.DatasetDir))

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for _, task := range batch.Tasks() {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			_ = r.Process(ctx, batch, task)
			r.progress.Increment(task.Status)
			return nil
		})
	}
	_ = g.Wait()

	summary := newSummary(batch, r.recorder.Count(), time.Since(started))
	summary.Duplicates = duplicates
	r.logger.Info("run finished",
		zap.Int("completed", summary.Counts[model.TaskStatusCompleted]),
		zap.Int("skipped", summary.Counts[model.TaskStatusSkipped]),
		zap.Int("failed", summary.Counts[model.TaskStatusError]),
		zap.Int("manifest_entries", summary.ManifestEntries),
		zap.Duration("elapsed", summary.Elapsed))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// dedupe drops segments that map to an already scheduled clip file, since
// two workers on the same base name would write the same paths.
func (r *Runner) dedupe(segments []model.Segment) ([]model.Segment, int) {
	seen := make(map[string]int, len(segments))
	unique := make([]model.Segment, 0, len(segments))
	for _, seg := range segments {
		base := seg.BaseName()
		if first, ok := seen[base]; ok {
			r.logger.Warn("skipping duplicate segment",
				zap.String("video_id", seg.VideoID),
				zap.String("section", seg.Section()),
				zap.Int("line", seg.Line),
				zap.Int("first_line", first))
			continue
		}
		seen[base] = seg.Line
		unique = append(unique, seg)
	}
	return unique, len(segments) - len(unique)
}

// Process runs a single task through the pipeline and records the outcome on it.
func (r *Runner) Process(ctx context.Context, batch *model.Batch, task *model.ClipTask) error {
	seg := task.Segment
	logger := r.logger.With(
		zap.String("clip_id", task.ID),
		zap.String("video_id", seg.VideoID),
		zap.String("section", seg.Section()))

	if r.opts.SkipExisting {
		existing := r.processedPath(seg)
		if platform.FileExists(existing) {
			if err := r.record(ctx, batch, task, existing, logger); err != nil {
				return r.fail(batch, task, err, logger)
			}
			batch.UpdateStatus(task, model.TaskStatusSkipped)
			logger.Info("clip already processed", zap.String("path", existing))
			return nil
		}
	}

	batch.UpdateStatus(task, model.TaskStatusDownloading)
	downloaded, err := r.downloader.Download(ctx, seg)
	if err != nil {
		return r.fail(batch, task, err, logger)
	}
	batch.Update(task, func(ct *model.ClipTask) { ct.DownloadPath = downloaded })

	batch.UpdateStatus(task, model.TaskStatusTranscoding)
	output, err := r.transcoder.Transcode(ctx, downloaded)
	if err != nil {
		return r.fail(batch, task, err, logger)
	}

	if r.opts.RemoveDownloads {
		if err := platform.RemoveIfExists(downloaded); err != nil {
			logger.Warn("failed to remove download", zap.Error(err))
		}
	}

	if err := r.record(ctx, batch, task, output, logger); err != nil {
		return r.fail(batch, task, err, logger)
	}
	batch.UpdateStatus(task, model.TaskStatusCompleted)
	logger.Info("clip completed", zap.String("path", output), zap.Duration("elapsed", task.Elapsed()))
	return nil
}

// record appends the manifest line for a processed file
func (r *Runner) record(ctx context.Context, batch *model.Batch, task *model.ClipTask, output string, logger *zap.Logger) error {
	duration := float64(task.Segment.Duration())
	if r.opts.ProbeDuration {
		probed, err := r.transcoder.ProbeDuration(ctx, output)
		if err != nil {
			logger.Warn("duration probe failed, using section length", zap.Error(err))
		} else {
			duration = probed
		}
	}

	rel, err := platform.RelativeTo(r.opts.DatasetDir, output)
	if err != nil {
		return err
	}
	batch.Update(task, func(ct *model.ClipTask) {
		ct.OutputPath = output
		ct.Duration = duration
	})
	if err := r.recorder.Append(manifest.Entry{
		AudioFilepath: rel,
		Duration:      duration,
		Labels:        task.Segment.Labels,
	}); err != nil {
		return fmt.Errorf("record %s: %w", rel, err)
	}
	return nil
}

func (r *Runner) fail(batch *model.Batch, task *model.ClipTask, err error, logger *zap.Logger) error {
	batch.Fail(task, err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("clip interrupted", zap.Error(err))
	} else {
		logger.Error("clip failed", zap.Int("line", task.Segment.Line), zap.Error(err))
	}
	return err
}

func (r *Runner) processedPath(seg model.Segment) string {
	return filepath.Join(r.opts.DatasetDir, transcode.ProcessedDir, seg.BaseName()+transcode.OutputExtension)
}

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ytget/audioset-dl/internal/config"
	"github.com/ytget/audioset-dl/internal/download"
	"github.com/ytget/audioset-dl/internal/logging"
	"github.com/ytget/audioset-dl/internal/manifest"
	"github.com/ytget/audioset-dl/internal/model"
	"github.com/ytget/audioset-dl/internal/pipeline"
	"github.com/ytget/audioset-dl/internal/platform"
	"github.com/ytget/audioset-dl/internal/transcode"
)

// LockFileName guards a dataset directory against concurrent runs.
const LockFileName = ".audioset-dl.lock"

// MaxListedFailures caps the failure table printed after a run.
const MaxListedFailures = 20

var (
	// ErrLocked is returned when another run holds the dataset directory.
	ErrLocked = errors.New("dataset directory is locked by another run")
	// ErrClipsFailed is returned in strict mode when any clip failed.
	ErrClipsFailed = errors.New("one or more clips failed")
)

// commandContext carries state shared between the root command and subcommands.
type commandContext struct {
	opts     rootOptions
	settings config.Settings
	logger   *zap.Logger
	now      func() time.Time
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{now: time.Now}

	rootCmd := &cobra.Command{
		Use:   "audioset-dl [flags] <output-dir> <csv-filepath>",
		Short: "Download and normalise AudioSet clips",
		Long: `Downloads the audio sections listed in an AudioSet-style CSV, converts them
to signed PCM wav and writes a JSON-lines manifest next to them.

The dataset is written to <output-dir>-<date>/<csv name>/ with downloaded/ and
processed/ subdirectories.`,
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if ctx.logger != nil {
				_ = ctx.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runFetch(cmd, args[0], args[1])
		},
	}

	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
	bindPersistentFlags(rootCmd.PersistentFlags(), &ctx.opts)
	bindFetchFlags(rootCmd.Flags(), &ctx.opts)

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))

	return rootCmd
}

func (c *commandContext) init(cmd *cobra.Command) error {
	settings, err := resolveSettings(cmd, &c.opts)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Level: settings.Logging.Level, Format: settings.Logging.Format})
	if err != nil {
		return err
	}
	c.settings = settings
	c.logger = logger
	return nil
}

func (c *commandContext) runFetch(cmd *cobra.Command, outputDir, csvPath string) error {
	settings := c.settings
	logger := c.logger

	segments, rowErrs, err := platform.ReadSegmentsFile(csvPath, platform.SegmentOptions{SkipLines: settings.SkipLines})
	if err != nil {
		return err
	}
	for _, rowErr := range rowErrs {
		logger.Warn("skipping csv row", zap.String("csv", csvPath), zap.Int("line", rowErr.Line), zap.String("reason", rowErr.Reason))
	}

	datasetDir := settings.DatasetDir(outputDir, csvPath, c.now())
	if err := platform.CreateDirectoryIfNotExists(datasetDir); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(datasetDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, datasetDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release dataset lock", zap.Error(err))
		}
	}()

	recorder, err := openRecorder(settings, datasetDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Error("failed to close manifest", zap.Error(err))
		}
	}()

	retryDelay, err := settings.RetryDelay()
	if err != nil {
		return err
	}
	downloader := download.NewService(datasetDir, download.Options{
		DefaultURL: settings.Download.DefaultURL,
		PrefType:   settings.Download.PrefType,
		Executable: settings.Tools.YTDLP,
		Retries:    settings.Download.Retries,
		RetryDelay: retryDelay,
	}, logger)
	transcoder := transcode.NewService(datasetDir, transcode.Options{
		FFmpeg:      settings.Tools.FFmpeg,
		FFprobe:     settings.Tools.FFprobe,
		Sox:         settings.Tools.Sox,
		NumChannels: settings.Audio.NumChannels,
		SampleRate:  settings.Audio.SampleRate,
		BitDepth:    settings.Audio.BitDepth,
	}, logger)

	runner := pipeline.NewRunner(downloader, transcoder, recorder, pipeline.Options{
		DatasetDir:      datasetDir,
		Workers:         settings.Workers,
		SkipExisting:    settings.SkipExisting,
		RemoveDownloads: settings.Download.RemoveDownloads,
		ProbeDuration:   settings.Audio.ProbeDuration,
	}, logger)
	if !c.opts.noProgress && isTerminal(os.Stderr) {
		runner.SetProgress(pipeline.NewBarProgress(cmd.ErrOrStderr()))
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := runner.Run(runCtx, segments)
	if summary != nil {
		fmt.Fprint(cmd.OutOrStdout(), renderSummary(datasetDir, summary, len(rowErrs)))
	}
	if runErr != nil {
		return runErr
	}
	if settings.Strict && summary.HasFailures() {
		return fmt.Errorf("%w: %d of %d", ErrClipsFailed, summary.Counts[model.TaskStatusError], summary.Total)
	}
	return nil
}

func openRecorder(settings config.Settings, datasetDir string) (manifest.Recorder, error) {
	path := settings.ManifestPath(datasetDir)
	if !settings.Manifest.Create {
		// a manifest from an earlier run would no longer match the dataset
		if err := platform.RemoveIfExists(path); err != nil {
			return nil, fmt.Errorf("remove stale manifest: %w", err)
		}
		return &manifest.Discard{}, nil
	}
	return manifest.Open(path)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

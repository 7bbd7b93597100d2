package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ytget/audioset-dl/internal/platform"
)

// Executable and I/O constants
const (
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	SoxCommand          = "sox"
	FFmpegLogLevel      = "error"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	SoxEncoding         = "signed-integer"
	ProcessedDir        = "processed"
	OutputExtension     = ".wav"
	TempSuffix          = "_temp"
	MaxErrorDetailSize  = 512
)

// ErrTranscodeFailed wraps failures of the external audio tools.
var ErrTranscodeFailed = errors.New("transcode failed")

// Options describes the target format and tool locations.
type Options struct {
	FFmpeg      string
	FFprobe     string
	Sox         string
	NumChannels int
	SampleRate  int
	BitDepth    int
}

// Service handles audio normalisation
type Service struct {
	outputDir string
	opts      Options
	logger    *zap.Logger
}

var _ Transcoder = (*Service)(nil)

// NewService creates a transcoder writing into <datasetDir>/processed
func NewService(datasetDir string, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(opts.FFmpeg) == "" {
		opts.FFmpeg = FFmpegCommand
	}
	if strings.TrimSpace(opts.FFprobe) == "" {
		opts.FFprobe = FFprobeCommand
	}
	if strings.TrimSpace(opts.Sox) == "" {
		opts.Sox = SoxCommand
	}
	return &Service{
		outputDir: filepath.Join(datasetDir, ProcessedDir),
		opts:      opts,
		logger:    logger,
	}
}

// OutputDir returns the directory processed files are written to
func (s *Service) OutputDir() string {
	return s.outputDir
}

// OutputPath maps a downloaded file to its processed wav
func (s *Service) OutputPath(inputPath string) string {
	return platform.ReplaceExt(filepath.Join(s.outputDir, filepath.Base(inputPath)), OutputExtension)
}

// Transcode resamples inputPath with ffmpeg and requantizes it with sox
func (s *Service) Transcode(ctx context.Context, inputPath string) (string, error) {
	if !platform.FileExists(inputPath) {
		return "", fmt.Errorf("%w: input file does not exist: %s", ErrTranscodeFailed, inputPath)
	}
	if err := platform.CreateDirectoryIfNotExists(s.outputDir); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	outputPath := s.OutputPath(inputPath)
	tmpPath := generateTempPath(outputPath)
	defer func() {
		if err := platform.RemoveIfExists(tmpPath); err != nil {
			s.logger.Warn("failed to remove temp file", zap.String("path", tmpPath), zap.Error(err))
		}
	}()

	s.logger.Debug("resampling", zap.String("input", inputPath), zap.String("tmp", tmpPath))
	if err := s.runTool(ctx, s.opts.FFmpeg, s.BuildFFmpegArgs(inputPath, tmpPath)); err != nil {
		return "", err
	}

	s.logger.Debug("requantizing", zap.String("tmp", tmpPath), zap.String("output", outputPath))
	if err := s.runTool(ctx, s.opts.Sox, s.BuildSoxArgs(tmpPath, outputPath)); err != nil {
		_ = platform.RemoveIfExists(outputPath)
		return "", err
	}

	if !platform.FileExists(outputPath) {
		return "", fmt.Errorf("%w: %s produced no output at %s", ErrTranscodeFailed, s.opts.Sox, outputPath)
	}
	return outputPath, nil
}

// BuildFFmpegArgs builds the resample/downmix arguments
func (s *Service) BuildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",           // Overwrite output file
		"-hide_banner", // Quiet
		"-loglevel", FFmpegLogLevel,
		"-i", inputPath, // Input file
		"-vn", // Drop any video stream
		"-ac", strconv.Itoa(s.opts.NumChannels),
		"-ar", strconv.Itoa(s.opts.SampleRate),
		outputPath,
	}
}

// BuildSoxArgs builds the requantize arguments; -G guards against clipping
func (s *Service) BuildSoxArgs(inputPath, outputPath string) []string {
	return []string{
		"-G",
		inputPath,
		"-e", SoxEncoding,
		"-b", strconv.Itoa(s.opts.BitDepth),
		"-r", strconv.Itoa(s.opts.SampleRate),
		outputPath,
	}
}

// ProbeDuration gets the duration of an audio file using ffprobe
func (s *Service) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.opts.FFprobe, "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, path)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", durationStr, err)
	}

	return duration, nil
}

// runTool executes an external binary and folds its stderr into the error
func (s *Service) runTool(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > MaxErrorDetailSize {
			detail = detail[len(detail)-MaxErrorDetailSize:]
		}
		if detail != "" {
			return fmt.Errorf("%w: %s: %v: %s", ErrTranscodeFailed, filepath.Base(binary), err, detail)
		}
		return fmt.Errorf("%w: %s: %v", ErrTranscodeFailed, filepath.Base(binary), err)
	}
	return nil
}

// generateTempPath returns the intermediate ffmpeg output next to outputPath
func generateTempPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	baseName := strings.TrimSuffix(outputPath, ext)
	return baseName + TempSuffix + ext
}

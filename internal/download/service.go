package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/ytget/audioset-dl/internal/model"
	"github.com/ytget/audioset-dl/internal/platform"
)

// Directory and template constants
const (
	DownloadedDir      = "downloaded"
	OutputExtTemplate  = ".%(ext)s"
	FallbackFormats    = "bestaudio/best"
	DefaultExecutable  = "yt-dlp"
	FormatSeparator    = "/"
	MaxErrorDetailSize = 512
)

// ErrDownloadFailed wraps every failure to produce a downloaded file.
var ErrDownloadFailed = errors.New("download failed")

// Options configures the yt-dlp invocation.
type Options struct {
	DefaultURL string
	PrefType   string
	Executable string
	Retries    int
	RetryDelay time.Duration
}

type runFunc func(ctx context.Context, cmd *ytdlp.Command, url string) error

// Service handles download operations
type Service struct {
	outputDir string
	opts      Options
	logger    *zap.Logger
	run       runFunc
}

var _ Downloader = (*Service)(nil)

// NewService creates a download service writing into <datasetDir>/downloaded
func NewService(datasetDir string, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(opts.Executable) == "" {
		opts.Executable = DefaultExecutable
	}
	opts.PrefType = strings.TrimPrefix(opts.PrefType, ".")
	return &Service{
		outputDir: filepath.Join(datasetDir, DownloadedDir),
		opts:      opts,
		logger:    logger,
		run:       runYTDLP,
	}
}

// OutputDir returns the directory downloads are written to
func (s *Service) OutputDir() string {
	return s.outputDir
}

// URL returns the watch URL for a video id
func (s *Service) URL(videoID string) string {
	return s.opts.DefaultURL + videoID
}

// FormatSelector prefers the configured type and falls back to any audio
func (s *Service) FormatSelector() string {
	if s.opts.PrefType == "" {
		return FallbackFormats
	}
	return s.opts.PrefType + FormatSeparator + FallbackFormats
}

// Download fetches the segment section and returns the downloaded file path
func (s *Service) Download(ctx context.Context, seg model.Segment) (string, error) {
	if err := platform.CreateDirectoryIfNotExists(s.outputDir); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	url := s.URL(seg.VideoID)
	s.logger.Info("downloading section",
		zap.String("video_id", seg.VideoID),
		zap.String("url", url),
		zap.String("section", seg.Section()))

	if err := s.downloadWithRetry(ctx, s.buildCommand(seg), seg, url); err != nil {
		return "", err
	}

	path, err := platform.FindFileWithFallback(s.outputDir, seg.BaseName(), s.opts.PrefType)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDownloadFailed, seg.VideoID, err)
	}
	return path, nil
}

// buildCommand configures yt-dlp for one section
func (s *Service) buildCommand(seg model.Segment) *ytdlp.Command {
	dl := ytdlp.New().
		SetExecutable(s.opts.Executable).
		NoPlaylist().
		NoProgress().
		ForceOverwrites().
		Paths(s.outputDir).
		Output(seg.BaseName() + OutputExtTemplate).
		Format(s.FormatSelector()).
		DownloadSections(seg.Section())

	if s.opts.PrefType != "" {
		dl = dl.ExtractAudio().AudioFormat(s.opts.PrefType)
	}
	return dl
}

// downloadWithRetry attempts download with a fixed delay between attempts
func (s *Service) downloadWithRetry(ctx context.Context, dl *ytdlp.Command, seg model.Segment, url string) error {
	var lastErr error

	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.opts.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			s.logger.Info("retrying download",
				zap.String("video_id", seg.VideoID),
				zap.Int("attempt", attempt+1))
		}

		err := s.run(ctx, dl, url)
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Warn("download attempt failed",
			zap.String("video_id", seg.VideoID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, seg.VideoID, lastErr)
}

func runYTDLP(ctx context.Context, dl *ytdlp.Command, url string) error {
	result, err := dl.Run(ctx, url)
	if err == nil {
		return nil
	}
	if result == nil {
		return err
	}
	return withDetail(err, result.Stderr)
}

// withDetail appends tool output unless the error already carries it.
func withDetail(err error, stderr string) error {
	detail := trimDetail(stderr)
	if detail == "" || strings.Contains(err.Error(), detail) {
		return err
	}
	return fmt.Errorf("%w: %s", err, detail)
}

func trimDetail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxErrorDetailSize {
		s = s[len(s)-MaxErrorDetailSize:]
	}
	return s
}

package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ytget/audioset-dl/internal/model"
)

func testOptions() Options {
	return Options{
		DefaultURL: "https://www.youtube.com/watch?v=",
		PrefType:   "m4a",
		RetryDelay: time.Millisecond,
	}
}

func testSegment() model.Segment {
	return model.Segment{VideoID: "--PJHxphWEs", StartSeconds: 30, EndSeconds: 40}
}

func TestNewService(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.PrefType = ".m4a"
	service := NewService(dir, opts, nil)

	assert.Equal(t, filepath.Join(dir, DownloadedDir), service.OutputDir())
	assert.Equal(t, DefaultExecutable, service.opts.Executable)
	assert.Equal(t, "m4a", service.opts.PrefType)
	assert.NotNil(t, service.logger)
}

func TestURLAndFormat(t *testing.T) {
	service := NewService(t.TempDir(), testOptions(), nil)

	assert.Equal(t, "https://www.youtube.com/watch?v=--PJHxphWEs", service.URL("--PJHxphWEs"))
	assert.Equal(t, "m4a/bestaudio/best", service.FormatSelector())

	service.opts.PrefType = ""
	assert.Equal(t, FallbackFormats, service.FormatSelector())
}

func TestDownload_LocatesFile(t *testing.T) {
	service := NewService(t.TempDir(), testOptions(), zaptest.NewLogger(t))
	seg := testSegment()

	var gotURL string
	service.run = func(ctx context.Context, cmd *ytdlp.Command, url string) error {
		gotURL = url
		return os.WriteFile(filepath.Join(service.OutputDir(), seg.BaseName()+".m4a"), []byte("audio"), 0o644)
	}

	path, err := service.Download(context.Background(), seg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(service.OutputDir(), "Y--PJHxphWEs_30_40.m4a"), path)
	assert.Equal(t, service.URL(seg.VideoID), gotURL)
}

func TestDownload_MissingOutputFile(t *testing.T) {
	service := NewService(t.TempDir(), testOptions(), zaptest.NewLogger(t))
	service.run = func(ctx context.Context, cmd *ytdlp.Command, url string) error {
		return nil
	}

	_, err := service.Download(context.Background(), testSegment())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownloadFailed)
}

func TestDownload_Retries(t *testing.T) {
	opts := testOptions()
	opts.Retries = 2
	service := NewService(t.TempDir(), opts, zaptest.NewLogger(t))
	seg := testSegment()

	attempts := 0
	service.run = func(ctx context.Context, cmd *ytdlp.Command, url string) error {
		attempts++
		if attempts < 3 {
			return errors.New("HTTP Error 503")
		}
		return os.WriteFile(filepath.Join(service.OutputDir(), seg.BaseName()+".m4a"), []byte("audio"), 0o644)
	}

	_, err := service.Download(context.Background(), seg)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDownload_NoRetryByDefault(t *testing.T) {
	service := NewService(t.TempDir(), testOptions(), zaptest.NewLogger(t))

	attempts := 0
	service.run = func(ctx context.Context, cmd *ytdlp.Command, url string) error {
		attempts++
		return errors.New("Video unavailable")
	}

	_, err := service.Download(context.Background(), testSegment())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownloadFailed)
	assert.Contains(t, err.Error(), "Video unavailable")
	assert.Equal(t, 1, attempts)
}

func TestDownload_CancelledDuringRetryDelay(t *testing.T) {
	opts := testOptions()
	opts.Retries = 5
	opts.RetryDelay = time.Hour
	service := NewService(t.TempDir(), opts, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	service.run = func(ctx context.Context, cmd *ytdlp.Command, url string) error {
		cancel()
		return errors.New("interrupted")
	}

	_, err := service.Download(ctx, testSegment())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrimDetail(t *testing.T) {
	assert.Equal(t, "ERROR: gone", trimDetail("  ERROR: gone\n"))

	long := make([]byte, MaxErrorDetailSize+100)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, trimDetail(string(long)), MaxErrorDetailSize)
}

func TestWithDetail(t *testing.T) {
	base := errors.New("exit status 1")

	err := withDetail(base, "ERROR: video unavailable\n")
	require.ErrorIs(t, err, base)
	assert.Equal(t, "exit status 1: ERROR: video unavailable", err.Error())

	// yt-dlp wrapper errors that already quote stderr are left alone
	quoted := errors.New("exit status 1\n\nERROR: video unavailable")
	err = withDetail(quoted, "ERROR: video unavailable")
	assert.Same(t, quoted, err)

	assert.Same(t, base, withDetail(base, "  \n"))
}

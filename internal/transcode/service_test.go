package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// writeLastArg copies the input argument to the last argument, like a
// transcoder that produces an output file.
const writeLastArgScript = `#!/bin/sh
for last; do :; done
printf '%s ' "$@" > "$last"
`

const failingScript = `#!/bin/sh
echo "Invalid data found when processing input" >&2
exit 1
`

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func testOptions() Options {
	return Options{NumChannels: 1, SampleRate: 44100, BitDepth: 16}
}

func TestNewService_Defaults(t *testing.T) {
	dir := t.TempDir()
	service := NewService(dir, testOptions(), nil)

	assert.Equal(t, filepath.Join(dir, ProcessedDir), service.OutputDir())
	assert.Equal(t, FFmpegCommand, service.opts.FFmpeg)
	assert.Equal(t, SoxCommand, service.opts.Sox)
	assert.Equal(t, FFprobeCommand, service.opts.FFprobe)
}

func TestGenerateTempPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/data/processed/Yabc_0_10.wav", "/data/processed/Yabc_0_10_temp.wav"},
		{"clip.wav", "clip_temp.wav"},
		{"/no/ext/file", "/no/ext/file_temp"},
	}

	for _, test := range tests {
		result := generateTempPath(test.input)
		if result != test.expected {
			t.Errorf("generateTempPath(%s) = %s, expected %s", test.input, result, test.expected)
		}
	}
}

func TestOutputPath(t *testing.T) {
	service := NewService("/data/eval", testOptions(), nil)
	got := service.OutputPath("/data/eval/downloaded/Yabc_0_10.m4a")
	assert.Equal(t, filepath.Join("/data/eval", ProcessedDir, "Yabc_0_10.wav"), got)
}

func TestBuildFFmpegArgs(t *testing.T) {
	service := NewService(t.TempDir(), Options{NumChannels: 2, SampleRate: 16000, BitDepth: 16}, nil)
	args := service.BuildFFmpegArgs("/input.m4a", "/output_temp.wav")

	expectedArgs := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", "/input.m4a",
		"-vn",
		"-ac", "2",
		"-ar", "16000",
		"/output_temp.wav",
	}
	assert.Equal(t, expectedArgs, args)
}

func TestBuildSoxArgs(t *testing.T) {
	service := NewService(t.TempDir(), Options{NumChannels: 1, SampleRate: 44100, BitDepth: 24}, nil)
	args := service.BuildSoxArgs("/tmp_temp.wav", "/out.wav")

	expectedArgs := []string{
		"-G",
		"/tmp_temp.wav",
		"-e", "signed-integer",
		"-b", "24",
		"-r", "44100",
		"/out.wav",
	}
	assert.Equal(t, expectedArgs, args)
}

func TestTranscode_NonExistentFile(t *testing.T) {
	service := NewService(t.TempDir(), testOptions(), nil)

	_, err := service.Transcode(context.Background(), "/path/to/nonexistent/file.m4a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranscodeFailed)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestTranscode_Success(t *testing.T) {
	bin := t.TempDir()
	dataset := t.TempDir()
	opts := testOptions()
	opts.FFmpeg = writeStub(t, bin, "ffmpeg", writeLastArgScript)
	opts.Sox = writeStub(t, bin, "sox", writeLastArgScript)
	service := NewService(dataset, opts, zaptest.NewLogger(t))

	input := filepath.Join(dataset, "downloaded", "Yabc_0_10.m4a")
	require.NoError(t, os.MkdirAll(filepath.Dir(input), 0o755))
	require.NoError(t, os.WriteFile(input, []byte("audio"), 0o644))

	output, err := service.Transcode(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataset, ProcessedDir, "Yabc_0_10.wav"), output)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "-G "), "sox should have produced the output, got %q", content)
	assert.Contains(t, string(content), "-b 16")

	_, err = os.Stat(generateTempPath(output))
	assert.True(t, os.IsNotExist(err), "temp file should be removed")
}

func TestTranscode_FFmpegFailure(t *testing.T) {
	bin := t.TempDir()
	dataset := t.TempDir()
	opts := testOptions()
	opts.FFmpeg = writeStub(t, bin, "ffmpeg", failingScript)
	opts.Sox = writeStub(t, bin, "sox", writeLastArgScript)
	service := NewService(dataset, opts, zaptest.NewLogger(t))

	input := filepath.Join(dataset, "Yabc_0_10.m4a")
	require.NoError(t, os.WriteFile(input, []byte("audio"), 0o644))

	_, err := service.Transcode(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranscodeFailed))
	assert.Contains(t, err.Error(), "Invalid data found")

	_, statErr := os.Stat(service.OutputPath(input))
	assert.True(t, os.IsNotExist(statErr))
}

func TestTranscode_SoxFailureRemovesPartialOutput(t *testing.T) {
	bin := t.TempDir()
	dataset := t.TempDir()
	opts := testOptions()
	opts.FFmpeg = writeStub(t, bin, "ffmpeg", writeLastArgScript)
	opts.Sox = writeStub(t, bin, "sox", "#!/bin/sh\nfor last; do :; done\nprintf partial > \"$last\"\nexit 2\n")
	service := NewService(dataset, opts, zaptest.NewLogger(t))

	input := filepath.Join(dataset, "Yabc_0_10.m4a")
	require.NoError(t, os.WriteFile(input, []byte("audio"), 0o644))

	_, err := service.Transcode(context.Background(), input)
	require.ErrorIs(t, err, ErrTranscodeFailed)

	output := service.OutputPath(input)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "partial output should be removed")
	_, statErr = os.Stat(generateTempPath(output))
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed")
}

func TestProbeDuration(t *testing.T) {
	bin := t.TempDir()
	opts := testOptions()
	opts.FFprobe = writeStub(t, bin, "ffprobe", "#!/bin/sh\necho 9.984000\n")
	service := NewService(t.TempDir(), opts, nil)

	duration, err := service.ProbeDuration(context.Background(), "/any.wav")
	require.NoError(t, err)
	assert.InDelta(t, 9.984, duration, 1e-9)

	opts.FFprobe = writeStub(t, bin, "ffprobe-bad", "#!/bin/sh\necho N/A\n")
	service = NewService(t.TempDir(), opts, nil)
	_, err = service.ProbeDuration(context.Background(), "/any.wav")
	assert.Error(t, err)
}

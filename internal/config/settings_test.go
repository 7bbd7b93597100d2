package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	settings := Default()

	assert.Equal(t, DefaultWorkers, settings.Workers)
	assert.Equal(t, DefaultURL, settings.Download.DefaultURL)
	assert.Equal(t, DefaultPrefType, settings.Download.PrefType)
	assert.Equal(t, 1, settings.Audio.NumChannels)
	assert.Equal(t, 44100, settings.Audio.SampleRate)
	assert.Equal(t, 16, settings.Audio.BitDepth)
	assert.True(t, settings.Manifest.Create)
	assert.Equal(t, "manifest.json", settings.Manifest.Filename)
	assert.True(t, settings.DateSuffix)
	require.NoError(t, settings.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), settings)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audioset.toml")
	content := `
workers = 4
skip_existing = true

[download]
preftype = "opus"
retries = 2

[audio]
sample_rate = 16000

[manifest]
filename = "train.jsonl"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, settings.Workers)
	assert.True(t, settings.SkipExisting)
	assert.Equal(t, "opus", settings.Download.PrefType)
	assert.Equal(t, 2, settings.Download.Retries)
	assert.Equal(t, 16000, settings.Audio.SampleRate)
	assert.Equal(t, "train.jsonl", settings.Manifest.Filename)
	// untouched keys keep defaults
	assert.Equal(t, 16, settings.Audio.BitDepth)
	assert.Equal(t, DefaultURL, settings.Download.DefaultURL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = [oops"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestNormalize_Clamps(t *testing.T) {
	settings := Settings{
		Workers:   0,
		SkipLines: -3,
		Download:  Download{PrefType: ".wav", Retries: -1},
		Audio:     Audio{NumChannels: 20},
	}
	settings.Normalize()

	assert.Equal(t, MinWorkers, settings.Workers)
	assert.Equal(t, 0, settings.SkipLines)
	assert.Equal(t, "wav", settings.Download.PrefType)
	assert.Equal(t, 0, settings.Download.Retries)
	assert.Equal(t, MaxNumChannels, settings.Audio.NumChannels)
	assert.Equal(t, DefaultSampleRate, settings.Audio.SampleRate)
	assert.Equal(t, DefaultBitDepth, settings.Audio.BitDepth)
	assert.Equal(t, DefaultYTDLPPath, settings.Tools.YTDLP)
	assert.Equal(t, DefaultManifestFilename, settings.Manifest.Filename)

	settings.Workers = 500
	settings.Normalize()
	assert.Equal(t, MaxWorkers, settings.Workers)
}

func TestValidate(t *testing.T) {
	settings := Default()
	settings.Audio.BitDepth = 12
	settings.Download.RetryDelay = "soon"
	settings.Manifest.Filename = "../escape.json"
	settings.Logging.Format = "xml"

	err := settings.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bit_depth")
	assert.Contains(t, err.Error(), "retry_delay")
	assert.Contains(t, err.Error(), "manifest.filename")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestDatasetDir(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	settings := Default()

	dir := settings.DatasetDir("/data/audioset", "/lists/balanced_train_segments.csv", now)
	assert.Equal(t, filepath.Join("/data/audioset-2024-03-09", "balanced_train_segments"), dir)

	settings.DateSuffix = false
	dir = settings.DatasetDir("/data/audioset/", "eval.csv", now)
	assert.Equal(t, filepath.Join("/data/audioset", "eval"), dir)

	assert.Equal(t, filepath.Join(dir, "manifest.json"), settings.ManifestPath(dir))
}

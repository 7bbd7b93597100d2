// Package config holds run settings: defaults, an optional TOML file, clamping
// and validation. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default values
const (
	DefaultURL              = "https://www.youtube.com/watch?v="
	DefaultPrefType         = "m4a"
	DefaultNumChannels      = 1
	DefaultSampleRate       = 44100
	DefaultBitDepth         = 16
	DefaultManifestFilename = "manifest.json"
	DefaultWorkers          = 1
	DefaultRetryDelay       = 2 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"

	DefaultYTDLPPath   = "yt-dlp"
	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"
	DefaultSoxPath     = "sox"
)

// Limits
const (
	MinWorkers     = 1
	MaxWorkers     = 64
	MinNumChannels = 1
	MaxNumChannels = 8
)

// DatasetDateLayout is appended to the output directory for version tracking.
const DatasetDateLayout = "2006-01-02"

var validBitDepths = map[int]bool{8: true, 16: true, 24: true, 32: true}

// Tools lists external executables.
type Tools struct {
	YTDLP   string `toml:"ytdlp"`
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	Sox     string `toml:"sox"`
}

// Download contains yt-dlp options.
type Download struct {
	DefaultURL      string `toml:"default_url"`
	PrefType        string `toml:"preftype"`
	Retries         int    `toml:"retries"`
	RetryDelay      string `toml:"retry_delay"`
	RemoveDownloads bool   `toml:"remove_downloads"`
}

// Audio describes the normalised output format.
type Audio struct {
	NumChannels   int  `toml:"num_channels"`
	SampleRate    int  `toml:"sample_rate"`
	BitDepth      int  `toml:"bit_depth"`
	ProbeDuration bool `toml:"probe_duration"`
}

// Manifest controls the JSON-lines manifest.
type Manifest struct {
	Create   bool   `toml:"create"`
	Filename string `toml:"filename"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Settings encapsulates all configuration values for a run.
type Settings struct {
	Workers      int  `toml:"workers"`
	SkipLines    int  `toml:"skip_lines"`
	SkipExisting bool `toml:"skip_existing"`
	DateSuffix   bool `toml:"date_suffix"`
	Strict       bool `toml:"strict"`

	Tools    Tools    `toml:"tools"`
	Download Download `toml:"download"`
	Audio    Audio    `toml:"audio"`
	Manifest Manifest `toml:"manifest"`
	Logging  Logging  `toml:"logging"`
}

// Default returns Settings populated with defaults.
func Default() Settings {
	return Settings{
		Workers:    DefaultWorkers,
		DateSuffix: true,
		Tools: Tools{
			YTDLP:   DefaultYTDLPPath,
			FFmpeg:  DefaultFFmpegPath,
			FFprobe: DefaultFFprobePath,
			Sox:     DefaultSoxPath,
		},
		Download: Download{
			DefaultURL: DefaultURL,
			PrefType:   DefaultPrefType,
			RetryDelay: DefaultRetryDelay.String(),
		},
		Audio: Audio{
			NumChannels: DefaultNumChannels,
			SampleRate:  DefaultSampleRate,
			BitDepth:    DefaultBitDepth,
		},
		Manifest: Manifest{
			Create:   true,
			Filename: DefaultManifestFilename,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns defaults.
func Load(path string) (Settings, error) {
	settings := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return settings, nil
}

// Normalize trims strings, fills empty values with defaults and clamps ranges.
func (s *Settings) Normalize() {
	def := Default()

	s.Workers = clamp(s.Workers, MinWorkers, MaxWorkers)
	if s.SkipLines < 0 {
		s.SkipLines = 0
	}

	s.Tools.YTDLP = orDefault(s.Tools.YTDLP, def.Tools.YTDLP)
	s.Tools.FFmpeg = orDefault(s.Tools.FFmpeg, def.Tools.FFmpeg)
	s.Tools.FFprobe = orDefault(s.Tools.FFprobe, def.Tools.FFprobe)
	s.Tools.Sox = orDefault(s.Tools.Sox, def.Tools.Sox)

	s.Download.DefaultURL = orDefault(s.Download.DefaultURL, def.Download.DefaultURL)
	s.Download.PrefType = strings.TrimPrefix(orDefault(s.Download.PrefType, def.Download.PrefType), ".")
	s.Download.RetryDelay = orDefault(s.Download.RetryDelay, def.Download.RetryDelay)
	if s.Download.Retries < 0 {
		s.Download.Retries = 0
	}

	s.Audio.NumChannels = clamp(s.Audio.NumChannels, MinNumChannels, MaxNumChannels)
	if s.Audio.SampleRate <= 0 {
		s.Audio.SampleRate = def.Audio.SampleRate
	}
	if s.Audio.BitDepth <= 0 {
		s.Audio.BitDepth = def.Audio.BitDepth
	}

	s.Manifest.Filename = orDefault(s.Manifest.Filename, def.Manifest.Filename)
	s.Logging.Level = strings.ToLower(orDefault(s.Logging.Level, def.Logging.Level))
	s.Logging.Format = strings.ToLower(orDefault(s.Logging.Format, def.Logging.Format))
}

// Validate reports settings that cannot be used.
func (s Settings) Validate() error {
	var errs []error
	if !validBitDepths[s.Audio.BitDepth] {
		errs = append(errs, fmt.Errorf("audio.bit_depth must be one of 8, 16, 24, 32 (got %d)", s.Audio.BitDepth))
	}
	if _, err := s.RetryDelay(); err != nil {
		errs = append(errs, fmt.Errorf("download.retry_delay: %w", err))
	}
	if strings.ContainsAny(s.Manifest.Filename, `/\`) {
		errs = append(errs, fmt.Errorf("manifest.filename must be a bare file name (got %q)", s.Manifest.Filename))
	}
	switch s.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json (got %q)", s.Logging.Format))
	}
	return errors.Join(errs...)
}

// RetryDelay parses the configured delay between download attempts.
func (s Settings) RetryDelay() (time.Duration, error) {
	d, err := time.ParseDuration(s.Download.RetryDelay)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// DatasetDir returns the directory a CSV is materialised into:
// <outputDir>[-<date>]/<csv basename without extension>.
func (s Settings) DatasetDir(outputDir, csvPath string, now time.Time) string {
	root := filepath.Clean(outputDir)
	if s.DateSuffix {
		root = root + "-" + now.Format(DatasetDateLayout)
	}
	name := filepath.Base(csvPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(root, name)
}

// ManifestPath returns the manifest location inside datasetDir.
func (s Settings) ManifestPath(datasetDir string) string {
	return filepath.Join(datasetDir, s.Manifest.Filename)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

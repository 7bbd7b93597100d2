package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ytget/audioset-dl/internal/config"
)

// Flag names
const (
	flagConfig           = "config"
	flagNumThreads       = "num-threads"
	flagDefaultURL       = "default-url"
	flagPrefType         = "preftype"
	flagNumChannels      = "num-channels"
	flagSampleRate       = "sample-rate"
	flagBitRate          = "bit-rate"
	flagCreateManifest   = "create-manifest"
	flagNoCreateManifest = "no-create-manifest"
	flagManifestFilename = "manifest-filename"
	flagRemoveDownloads  = "remove-downloads"
	flagSkipExisting     = "skip-existing"
	flagProbeDuration    = "probe-duration"
	flagNoDateSuffix     = "no-date-suffix"
	flagSkipLines        = "skip-lines"
	flagRetries          = "retries"
	flagStrict           = "strict"
	flagNoProgress       = "no-progress"
	flagYTDLPPath        = "ytdlp-path"
	flagFFmpegPath       = "ffmpeg-path"
	flagFFprobePath      = "ffprobe-path"
	flagSoxPath          = "sox-path"
	flagLogLevel         = "log-level"
	flagLogFormat        = "log-format"
)

// rootOptions holds raw flag values; only flags the user set override the config file.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	ytdlpPath   string
	ffmpegPath  string
	ffprobePath string
	soxPath     string

	workers          int
	defaultURL       string
	prefType         string
	numChannels      int
	sampleRate       int
	bitDepth         int
	createManifest   bool
	noCreateManifest bool
	manifestFilename string
	removeDownloads  bool
	skipExisting     bool
	probeDuration    bool
	noDateSuffix     bool
	skipLines        int
	retries          int
	strict           bool
	noProgress       bool
}

func bindPersistentFlags(flags *pflag.FlagSet, o *rootOptions) {
	def := config.Default()
	flags.StringVarP(&o.configPath, flagConfig, "c", "", "TOML configuration file")
	flags.StringVar(&o.logLevel, flagLogLevel, def.Logging.Level, "Log level (debug, info, warn, error)")
	flags.StringVar(&o.logFormat, flagLogFormat, def.Logging.Format, "Log format (console, json)")
	flags.StringVar(&o.ytdlpPath, flagYTDLPPath, def.Tools.YTDLP, "yt-dlp executable")
	flags.StringVar(&o.ffmpegPath, flagFFmpegPath, def.Tools.FFmpeg, "ffmpeg executable")
	flags.StringVar(&o.ffprobePath, flagFFprobePath, def.Tools.FFprobe, "ffprobe executable")
	flags.StringVar(&o.soxPath, flagSoxPath, def.Tools.Sox, "sox executable")
}

func bindFetchFlags(flags *pflag.FlagSet, o *rootOptions) {
	def := config.Default()
	flags.IntVarP(&o.workers, flagNumThreads, "j", def.Workers, "Number of clips to download and process at once")
	// youtube preproc
	flags.StringVar(&o.defaultURL, flagDefaultURL, def.Download.DefaultURL, "Prefix prepended to every video id")
	flags.StringVar(&o.prefType, flagPrefType, def.Download.PrefType, "Preferred audio type for downloads")
	flags.IntVar(&o.retries, flagRetries, def.Download.Retries, "Extra download attempts per clip")
	flags.BoolVar(&o.removeDownloads, flagRemoveDownloads, false, "Delete downloaded files once processed")
	// ffmpeg/sox processing
	flags.IntVar(&o.numChannels, flagNumChannels, def.Audio.NumChannels, "Number of audio channels to process to")
	flags.IntVar(&o.sampleRate, flagSampleRate, def.Audio.SampleRate, "Sample rate to process to")
	flags.IntVar(&o.bitDepth, flagBitRate, def.Audio.BitDepth, "Bits per sample of the processed audio")
	flags.BoolVar(&o.probeDuration, flagProbeDuration, false, "Record the probed duration instead of the section length")
	// manifest generation
	flags.BoolVar(&o.createManifest, flagCreateManifest, true, "Generate the manifest file")
	flags.BoolVar(&o.noCreateManifest, flagNoCreateManifest, false, "Do not generate the manifest file")
	flags.StringVar(&o.manifestFilename, flagManifestFilename, def.Manifest.Filename, "Filename of the manifest file")
	// run control
	flags.BoolVar(&o.skipExisting, flagSkipExisting, false, "Reuse processed files from an earlier run")
	flags.BoolVar(&o.noDateSuffix, flagNoDateSuffix, false, "Do not append the current date to the output directory")
	flags.IntVar(&o.skipLines, flagSkipLines, def.SkipLines, "Raw lines to skip at the top of the CSV")
	flags.BoolVar(&o.strict, flagStrict, false, "Exit non-zero when any clip fails")
	flags.BoolVar(&o.noProgress, flagNoProgress, false, "Disable the progress bar")
}

// normalizeFlagName lets --num_channels and friends work as in older scripts.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// resolveSettings layers explicitly set flags over the config file.
func resolveSettings(cmd *cobra.Command, o *rootOptions) (config.Settings, error) {
	settings, err := config.Load(o.configPath)
	if err != nil {
		return config.Settings{}, err
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed(flagLogLevel) {
		settings.Logging.Level = o.logLevel
	}
	if changed(flagLogFormat) {
		settings.Logging.Format = o.logFormat
	}
	if changed(flagYTDLPPath) {
		settings.Tools.YTDLP = o.ytdlpPath
	}
	if changed(flagFFmpegPath) {
		settings.Tools.FFmpeg = o.ffmpegPath
	}
	if changed(flagFFprobePath) {
		settings.Tools.FFprobe = o.ffprobePath
	}
	if changed(flagSoxPath) {
		settings.Tools.Sox = o.soxPath
	}
	if changed(flagNumThreads) {
		settings.Workers = o.workers
	}
	if changed(flagDefaultURL) {
		settings.Download.DefaultURL = o.defaultURL
	}
	if changed(flagPrefType) {
		settings.Download.PrefType = o.prefType
	}
	if changed(flagRetries) {
		settings.Download.Retries = o.retries
	}
	if changed(flagRemoveDownloads) {
		settings.Download.RemoveDownloads = o.removeDownloads
	}
	if changed(flagNumChannels) {
		settings.Audio.NumChannels = o.numChannels
	}
	if changed(flagSampleRate) {
		settings.Audio.SampleRate = o.sampleRate
	}
	if changed(flagBitRate) {
		settings.Audio.BitDepth = o.bitDepth
	}
	if changed(flagProbeDuration) {
		settings.Audio.ProbeDuration = o.probeDuration
	}
	if changed(flagCreateManifest) {
		settings.Manifest.Create = o.createManifest
	}
	if changed(flagNoCreateManifest) && o.noCreateManifest {
		settings.Manifest.Create = false
	}
	if changed(flagManifestFilename) {
		settings.Manifest.Filename = o.manifestFilename
	}
	if changed(flagSkipExisting) {
		settings.SkipExisting = o.skipExisting
	}
	if changed(flagNoDateSuffix) && o.noDateSuffix {
		settings.DateSuffix = false
	}
	if changed(flagSkipLines) {
		settings.SkipLines = o.skipLines
	}
	if changed(flagStrict) {
		settings.Strict = o.strict
	}

	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

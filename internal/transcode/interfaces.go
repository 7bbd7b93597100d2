package transcode

import "context"

// Transcoder defines the interface for the audio normalisation service.
type Transcoder interface {
	// Transcode converts inputPath to the normalised wav and returns its path.
	Transcode(ctx context.Context, inputPath string) (string, error)
	// ProbeDuration returns the duration of path in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

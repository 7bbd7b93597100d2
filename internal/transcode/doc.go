// Package transcode normalises downloaded sections to signed PCM wav: ffmpeg
// resamples and downmixes, then sox requantizes to the target bit depth.
package transcode

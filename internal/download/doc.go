// Package download fetches the audio section of a single segment with yt-dlp
// (via github.com/lrstanley/go-ytdlp). Only the requested time range is
// downloaded and the audio is extracted to the preferred codec.
package download

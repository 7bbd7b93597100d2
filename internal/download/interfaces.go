package download

import (
	"context"

	"github.com/ytget/audioset-dl/internal/model"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	// Download fetches the segment's section and returns the local file path.
	Download(ctx context.Context, seg model.Segment) (string, error)
}

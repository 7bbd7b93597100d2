package model

import (
	"fmt"
	"strings"
)

// Segment is one row of an AudioSet-style CSV: a video id, the clip section
// in seconds and its label ids.
type Segment struct {
	VideoID      string
	StartSeconds float64
	EndSeconds   float64
	Labels       []string
	Line         int // 1-based line in the source CSV
}

// Start returns the section start truncated to whole seconds.
func (s Segment) Start() int {
	return int(s.StartSeconds)
}

// End returns the section end truncated to whole seconds.
func (s Segment) End() int {
	return int(s.EndSeconds)
}

// Duration is the clip length in whole seconds.
func (s Segment) Duration() int {
	return s.End() - s.Start()
}

// BaseName returns the file stem shared by the downloaded and processed files.
func (s Segment) BaseName() string {
	return fmt.Sprintf("Y%s_%d_%d", s.VideoID, s.Start(), s.End())
}

// Section renders the clip range the way yt-dlp expects it in --download-sections.
func (s Segment) Section() string {
	return fmt.Sprintf("*%d-%d", s.Start(), s.End())
}

// Validate reports why a segment cannot be processed.
func (s Segment) Validate() error {
	if strings.TrimSpace(s.VideoID) == "" {
		return fmt.Errorf("empty video id")
	}
	if s.Start() < 0 {
		return fmt.Errorf("negative start %v", s.StartSeconds)
	}
	if s.End() <= s.Start() {
		return fmt.Errorf("end %v is not after start %v", s.EndSeconds, s.StartSeconds)
	}
	return nil
}

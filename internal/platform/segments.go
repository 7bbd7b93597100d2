package platform

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ytget/audioset-dl/internal/model"
)

// CSV layout
const (
	CommentChar      = '#'
	HeaderVideoID    = "YTID"
	MinSegmentFields = 4
	LabelSeparator   = ","
	MaxLineSize      = 1024 * 1024
)

// SegmentOptions controls how a segment CSV is read.
type SegmentOptions struct {
	// SkipLines drops raw leading lines before parsing starts.
	SkipLines int
}

// RowError describes a CSV row that was skipped.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ReadSegmentsFile opens path and parses it with ReadSegments.
func ReadSegmentsFile(path string, opts SegmentOptions) ([]model.Segment, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open segments %s: %w", path, err)
	}
	defer f.Close()
	return ReadSegments(f, opts)
}

// ReadSegments parses AudioSet-style rows: YTID, start_seconds, end_seconds,
// positive_labels. Each line is one record, so a broken quote cannot swallow
// the rows after it. Malformed rows are returned as RowErrors and skipped; the
// error result is reserved for read failures.
func ReadSegments(r io.Reader, opts SegmentOptions) ([]model.Segment, []RowError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	var (
		segments []model.Segment
		rowErrs  []RowError
		line     int
	)
	for scanner.Scan() {
		line++
		if line <= opts.SkipLines {
			continue
		}
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, string(CommentChar)) {
			continue
		}

		seg, skip, reason := parseLine(text)
		if skip {
			continue
		}
		if reason != "" {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: reason})
			continue
		}
		seg.Line = line
		segments = append(segments, seg)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read segments: %w", err)
	}
	return segments, rowErrs, nil
}

// parseLine reports skip for lines that are neither data nor errors, such as
// a header row.
func parseLine(text string) (seg model.Segment, skip bool, reason string) {
	if strings.Count(text, `"`)%2 != 0 {
		return model.Segment{}, false, "unterminated quoted field"
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	record, err := reader.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return model.Segment{}, false, parseErr.Err.Error()
		}
		return model.Segment{}, false, err.Error()
	}
	if isBlankRecord(record) || strings.EqualFold(strings.TrimSpace(record[0]), HeaderVideoID) {
		return model.Segment{}, true, ""
	}
	seg, reason = parseSegment(record)
	return seg, false, reason
}

func parseSegment(record []string) (model.Segment, string) {
	if len(record) < MinSegmentFields {
		return model.Segment{}, fmt.Sprintf("expected %d fields, got %d", MinSegmentFields, len(record))
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return model.Segment{}, fmt.Sprintf("invalid start %q", record[1])
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return model.Segment{}, fmt.Sprintf("invalid end %q", record[2])
	}

	// unquoted label lists spill over into extra fields
	seg := model.Segment{
		VideoID:      strings.TrimSpace(record[0]),
		StartSeconds: start,
		EndSeconds:   end,
		Labels:       ParseLabels(strings.Join(record[3:], LabelSeparator)),
	}
	if err := seg.Validate(); err != nil {
		return model.Segment{}, err.Error()
	}
	return seg, ""
}

// ParseLabels strips quotes and newlines and splits a comma separated label list.
func ParseLabels(raw string) []string {
	raw = strings.NewReplacer(`"`, "", "\n", "", "\r", "").Replace(raw)
	parts := strings.Split(raw, LabelSeparator)
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

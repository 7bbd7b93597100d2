package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/audioset-dl/internal/model"
	"github.com/ytget/audioset-dl/internal/pipeline"
)

func renderSummary(datasetDir string, summary *pipeline.Summary, rowErrors int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %s\n", datasetDir)

	rows := make([][]string, 0, len(model.AllStatuses)+2)
	for _, status := range model.AllStatuses {
		count := summary.Counts[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{status.String(), strconv.Itoa(count)})
	}
	if rowErrors > 0 {
		rows = append(rows, []string{"Invalid rows", strconv.Itoa(rowErrors)})
	}
	if summary.Duplicates > 0 {
		rows = append(rows, []string{"Duplicate rows", strconv.Itoa(summary.Duplicates)})
	}
	rows = append(rows, []string{"Manifest entries", strconv.Itoa(summary.ManifestEntries)})
	b.WriteString(renderTable([]string{"Result", "Clips"}, rows, 1))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Processed %d clips in %s\n", summary.Total, summary.Elapsed.Round(time.Millisecond))

	if len(summary.Failed) == 0 {
		return b.String()
	}

	failed := summary.Failed
	if len(failed) > MaxListedFailures {
		failed = failed[:MaxListedFailures]
	}
	failRows := make([][]string, 0, len(failed))
	for _, task := range failed {
		failRows = append(failRows, []string{
			strconv.Itoa(task.Segment.Line),
			task.Segment.VideoID,
			task.Segment.Section(),
			firstLine(task.LastError),
		})
	}
	b.WriteString(renderTable([]string{"Line", "Video", "Section", "Error"}, failRows, 0))
	b.WriteString("\n")
	if more := len(summary.Failed) - len(failed); more > 0 {
		fmt.Fprintf(&b, "... and %d more failures (see log)\n", more)
	}
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

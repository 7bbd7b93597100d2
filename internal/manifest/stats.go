package manifest

import "sort"

// LabelCount is the number of entries carrying a label.
type LabelCount struct {
	Label string
	Count int
}

// Stats summarises a manifest.
type Stats struct {
	Entries       int
	TotalDuration float64
	Labels        []LabelCount // most frequent first
}

// Summarize computes entry, duration and label totals.
func Summarize(entries []Entry) Stats {
	stats := Stats{Entries: len(entries)}
	counts := make(map[string]int)
	for _, entry := range entries {
		stats.TotalDuration += entry.Duration
		for _, label := range entry.Labels {
			counts[label]++
		}
	}

	stats.Labels = make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		stats.Labels = append(stats.Labels, LabelCount{Label: label, Count: count})
	}
	sort.Slice(stats.Labels, func(i, j int) bool {
		if stats.Labels[i].Count != stats.Labels[j].Count {
			return stats.Labels[i].Count > stats.Labels[j].Count
		}
		return stats.Labels[i].Label < stats.Labels[j].Label
	})
	return stats
}

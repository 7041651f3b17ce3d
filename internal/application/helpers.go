package application

import (
	"fmt"
	"sort"
	"strings"
)

func ratio(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total)
}

func percent(part, total int) float64 {
	return ratio(part, total) * 100
}

// topN returns up to n keys of counts ordered by count, then name.
func topN(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k, v := range counts {
		if k != "" && v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func formatCounts(counts map[string]int, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return strings.TrimSpace(string(r[:limit])) + "…"
}

// clockLabel turns an elapsed minute into the match clock minute.
func clockLabel(minute int) string {
	return fmt.Sprintf("%d'", minute+1)
}

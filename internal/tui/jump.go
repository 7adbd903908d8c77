package tui

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/tabsync/internal/engine"
)

// closestTab returns the index of the container whose title (or served id)
// is nearest to query. Prefix matches beat edit distance.
func closestTab(containers []engine.Container, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1
	}
	best, bestScore := -1, 0
	for i, c := range containers {
		for _, candidate := range []string{c.Title, c.ServedID} {
			s := strings.ToLower(candidate)
			if s == "" {
				continue
			}
			score := levenshtein.ComputeDistance(q, s)
			if strings.HasPrefix(s, q) {
				score = 0
			}
			if best < 0 || score < bestScore {
				best, bestScore = i, score
			}
		}
	}
	return best
}

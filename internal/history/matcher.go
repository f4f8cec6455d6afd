package history

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/radar-coach/internal/model"
)

// normalize trims and case-folds a name for comparison. Unicode case
// folding handles names beyond plain ASCII the way a lowercase call won't.
func normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Find returns all prior radar appearances matching the given name,
// sorted by volume ascending. An exact (normalized) match short-circuits:
// when any entry name matches exactly, partial matching is skipped
// entirely so "Docker" never drags in "Docker Swarm". With no exact match
// it falls back to bidirectional substring matching. An empty query
// returns nil without scanning the corpus. The entries slice is never
// mutated.
func Find(entries []model.HistoricalBlip, name string) []model.HistoricalBlip {
	query := normalize(name)
	if query == "" {
		return nil
	}

	var exact []model.HistoricalBlip
	for _, e := range entries {
		if normalize(e.Name) == query {
			exact = append(exact, e)
		}
	}
	if len(exact) > 0 {
		sortByVolume(exact)
		return exact
	}

	var partial []model.HistoricalBlip
	for _, e := range entries {
		n := normalize(e.Name)
		if n == "" {
			continue
		}
		if strings.Contains(n, query) || strings.Contains(query, n) {
			partial = append(partial, e)
		}
	}
	sortByVolume(partial)
	return partial
}

func sortByVolume(blips []model.HistoricalBlip) {
	sort.SliceStable(blips, func(i, j int) bool {
		return blips[i].Volume < blips[j].Volume
	})
}

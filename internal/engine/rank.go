package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/keepsake-ai/keepsake/internal/model"
)

// maxSearchResults caps the ranked table handed to the reply composer.
const maxSearchResults = 10

// buildTable normalizes raw search hits into ranked-table rows. Hits
// missing an id get a locally generated fallback id; ids issued by the
// store never carry the fallback prefix, so collisions are impossible.
func buildTable(hits []model.FactHit) []model.RankedFact {
	if len(hits) == 0 {
		return nil
	}
	rows := make([]model.RankedFact, 0, len(hits))
	for _, h := range hits {
		id := h.ID
		if id == "" {
			id = "legacy-" + uuid.NewString()
		}
		mc := h.MatchCount
		if mc < 0 {
			mc = 0
		}
		rows = append(rows, model.RankedFact{
			ID:            id,
			Text:          h.Text,
			CreatedAt:     h.CreatedAt,
			MemoryDate:    h.MemoryDate,
			FormattedDate: formatDate(h.MemoryDate),
			Column:        h.Column,
			RowID:         h.RowID,
			MatchCount:    mc,
		})
	}
	return rows
}

// adaptiveThreshold picks the minimum match count from the best score:
// strong top matches make the cutoff selective, weak ones permissive.
func adaptiveThreshold(best int) int {
	switch {
	case best > 10:
		return 3
	case best > 5:
		return 2
	default:
		return 1
	}
}

// sortAndFilter sorts rows descending by match count (stable, so ties
// keep store order) and applies the minimum threshold. The filter only
// engages when there are more than 3 rows and the best row already
// meets the threshold; otherwise the full sorted list is kept to avoid
// over-filtering sparse or uniformly weak result sets.
func sortAndFilter(rows []model.RankedFact, minMatch int) []model.RankedFact {
	if len(rows) == 0 {
		return nil
	}
	sorted := make([]model.RankedFact, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MatchCount > sorted[j].MatchCount
	})

	if len(sorted) > 3 && sorted[0].MatchCount >= minMatch {
		kept := sorted[:0]
		for _, r := range sorted {
			if r.MatchCount >= minMatch {
				kept = append(kept, r)
			}
		}
		return kept
	}
	return sorted
}

// rankForSearch applies the adaptive threshold and the result cap.
func rankForSearch(rows []model.RankedFact) []model.RankedFact {
	if len(rows) == 0 {
		return nil
	}
	sorted := sortAndFilter(rows, 0)
	out := sortAndFilter(sorted, adaptiveThreshold(sorted[0].MatchCount))
	if len(out) > maxSearchResults {
		out = out[:maxSearchResults]
	}
	return out
}

// rankForMutation sorts without filtering: mutation proposals must show
// every plausible match so the user can choose, not just the top-ranked
// ones.
func rankForMutation(rows []model.RankedFact) []model.RankedFact {
	return sortAndFilter(rows, 0)
}

// formatDate renders a memory date for display. The underlying value
// stays opaque: anything that does not parse as a plain date or
// RFC 3339 timestamp is passed through unchanged.
func formatDate(memoryDate string) string {
	if memoryDate == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, memoryDate); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return memoryDate
}

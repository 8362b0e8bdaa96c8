// Package sorting orders event lists for display.
package sorting

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/gestor-eventos/eventctl/internal/models"
)

// collator compares titles and locations the way the UI presents them:
// locale-aware, case- and accent-insensitive.
var collator = collate.New(language.Spanish, collate.Loose)

// Sort returns a new slice ordered by the given spec. The input is never
// mutated. The sort is stable, so repeated sorts with equal keys preserve
// the prior relative order.
func Sort(events []models.Event, spec models.SortSpec) []models.Event {
	out := make([]models.Event, len(events))
	copy(out, events)

	modifier := 1
	if spec.Order == models.SortDesc {
		modifier = -1
	}

	sort.SliceStable(out, func(i, j int) bool {
		return compare(out[i], out[j], spec.Key)*modifier < 0
	})
	return out
}

func compare(a, b models.Event, key models.SortKey) int {
	switch key {
	case models.SortByTitle:
		return collator.CompareString(a.Title, b.Title)
	case models.SortByLocation:
		return collator.CompareString(a.Location, b.Location)
	case models.SortByDate:
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

package calendar

import (
	"sort"
)

// Day is one day of the agenda list
type Day struct {
	Date  string // YYYY-MM-DD
	Items []Item
}

// GroupByDay groups items by the day they start on, days in order.
// Within a day all-day items come first, then by start and title.
func GroupByDay(items []Item) []Day {
	groups := make(map[string][]Item)
	for _, it := range items {
		date := it.Start.DateString()
		groups[date] = append(groups[date], it)
	}

	var dates []string
	for date := range groups {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	result := make([]Day, 0, len(dates))
	for _, date := range dates {
		result = append(result, Day{Date: date, Items: sortItems(groups[date])})
	}
	return result
}

func sortItems(items []Item) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.AllDay != b.AllDay {
			return a.AllDay
		}
		if !a.Start.Equal(b.Start.Time) {
			return a.Start.Before(b.Start.Time)
		}
		return a.Title < b.Title
	})
	return sorted
}

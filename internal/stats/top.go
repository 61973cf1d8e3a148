package stats

import "sort"

// TopCharsByFrequency returns the top N characters by number of attempts.
func TopCharsByFrequency(chars []CharStat, n int) []string {
	if n <= 0 || len(chars) == 0 {
		return nil
	}
	items := make([]CharStat, len(chars))
	copy(items, chars)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Attempts == items[j].Attempts {
			return items[i].Char < items[j].Char
		}
		return items[i].Attempts > items[j].Attempts
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].Char)
	}
	return out
}

package models

import "sort"

// Catalog maps a publish date ("YYYY-MM-DD") to the articles listed for that day.
// It only lives for the duration of one run.
type Catalog map[string][]ArticleMeta

// Dates returns every date key in ascending order.
func (c Catalog) Dates() []string {
	dates := make([]string, 0, len(c))
	for d := range c {
		dates = append(dates, d)
	}

	sort.Strings(dates)

	return dates
}

// InRange returns the sorted date keys between start and end, both inclusive.
// Keys are compared lexically, which matches calendar order for YYYY-MM-DD.
func (c Catalog) InRange(start, end string) []string {
	var dates []string

	for _, d := range c.Dates() {
		if d >= start && d <= end {
			dates = append(dates, d)
		}
	}

	return dates
}

// ArticleCount returns the number of articles listed across the given dates.
func (c Catalog) ArticleCount(dates []string) int {
	n := 0
	for _, d := range dates {
		n += len(c[d])
	}

	return n
}

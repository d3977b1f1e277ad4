package models

import (
	"fmt"
	"slices"
	"strings"
)

// SortOrder orders a listing page
type SortOrder string

const (
	SortPopularity SortOrder = "popularity.desc"
	SortRating     SortOrder = "vote_average.desc"
	SortNewest     SortOrder = "release_date.desc"
	SortTitle      SortOrder = "title.asc"
)

// ParseSortOrder accepts the TMDB style names and their short forms. An
// empty string keeps the upstream order.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case string(SortPopularity), "popularity":
		return SortPopularity, nil
	case string(SortRating), "rating":
		return SortRating, nil
	case string(SortNewest), "date", "newest":
		return SortNewest, nil
	case string(SortTitle), "title":
		return SortTitle, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// ListFilter narrows and orders one page of a listing
type ListFilter struct {
	// GenreIDs keeps items tagged with any of these genres
	GenreIDs  []int64
	MinRating float64
	Sort      SortOrder
}

// IsZero reports whether the filter leaves a page untouched
func (f *ListFilter) IsZero() bool {
	return f == nil || (len(f.GenreIDs) == 0 && f.MinRating <= 0 && f.Sort == "")
}

// Apply returns the matching items in the requested order. items is not
// modified.
func (f *ListFilter) Apply(items []MediaItem) []MediaItem {
	if f.IsZero() {
		return items
	}

	kept := make([]MediaItem, 0, len(items))
	for _, item := range items {
		if len(f.GenreIDs) > 0 && !hasAnyGenre(item.GenreIDs, f.GenreIDs) {
			continue
		}
		if f.MinRating > 0 && item.Rating < f.MinRating {
			continue
		}
		kept = append(kept, item)
	}

	if cmp := compareFor(f.Sort); cmp != nil {
		slices.SortStableFunc(kept, cmp)
	}
	return kept
}

func hasAnyGenre(ids, wanted []int64) bool {
	for _, id := range ids {
		if slices.Contains(wanted, id) {
			return true
		}
	}
	return false
}

func compareFor(order SortOrder) func(a, b MediaItem) int {
	switch order {
	case SortPopularity:
		return func(a, b MediaItem) int { return compareDesc(a.Popularity, b.Popularity) }
	case SortRating:
		return func(a, b MediaItem) int { return compareDesc(a.Rating, b.Rating) }
	case SortNewest:
		// ISO dates order lexically; undated items go last
		return func(a, b MediaItem) int {
			switch {
			case a.Date == b.Date:
				return 0
			case a.Date == "":
				return 1
			case b.Date == "":
				return -1
			}
			return strings.Compare(b.Date, a.Date)
		}
	case SortTitle:
		return func(a, b MediaItem) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	default:
		return nil
	}
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

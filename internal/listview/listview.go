// Package listview filters and paginates cached post snapshots for the
// list browsing surface.
package listview

import (
	"strings"

	"github.com/mataroa-tools/matabot/internal/model"
)

// Filter selects which posts are visible in the list view.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPublished Filter = "published"
	FilterDrafts    Filter = "drafts"
)

// ParseFilter maps user input to a Filter, defaulting to all.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterPublished:
		return FilterPublished
	case FilterDrafts:
		return FilterDrafts
	default:
		return FilterAll
	}
}

// State is the per-user ephemeral list view state.
type State struct {
	Filter Filter
	Page   int
	Query  string
}

func NewState() State {
	return State{Filter: FilterAll, Page: 1}
}

// SetFilter switches the filter and resets paging to the first page.
func (s *State) SetFilter(f Filter) {
	s.Filter = f
	s.Page = 1
}

// Page is one rendered page of the filtered snapshot.
type Page struct {
	Items      []model.Post
	Total      int // filtered count across all pages
	Number     int // clamped page number, >= 1
	TotalPages int // >= 1 even for an empty filtered set
}

// Paginate filters posts by publish status and query, then slices out
// the requested page. The page number is clamped into the valid range
// before slicing; callers must write Page.Number back to their state
// so repeated "next" activations cannot overrun.
func Paginate(posts []model.Post, st State, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 1
	}
	filtered := make([]model.Post, 0, len(posts))
	q := strings.ToLower(st.Query)
	for _, p := range posts {
		switch st.Filter {
		case FilterPublished:
			if !p.Published() {
				continue
			}
		case FilterDrafts:
			if p.Published() {
				continue
			}
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Title+" "+p.Body), q) {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	page := st.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:      filtered[start:end],
		Total:      total,
		Number:     page,
		TotalPages: totalPages,
	}
}

// Package query filters, searches, sorts and paginates collections that
// were fetched in full, such as timesheets and admin lists.
package query

import (
	"cmp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Predicate keeps an item when it returns true.
type Predicate[T any] func(T) bool

// SortKey orders items by one attribute.
type SortKey[T any] struct {
	Name    string
	Compare func(a, b T) int
	Desc    bool
}

// Reverse flips the direction.
func (k SortKey[T]) Reverse() SortKey[T] {
	k.Desc = !k.Desc
	return k
}

// By builds an ascending key from an ordered attribute.
func By[T any, K cmp.Ordered](name string, get func(T) K) SortKey[T] {
	return SortKey[T]{Name: name, Compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) }}
}

// ByTime builds an ascending key from a time attribute.
func ByTime[T any](name string, get func(T) time.Time) SortKey[T] {
	return SortKey[T]{Name: name, Compare: func(a, b T) int { return get(a).Compare(get(b)) }}
}

// ByText builds a case-insensitive ascending key.
func ByText[T any](name string, get func(T) string) SortKey[T] {
	fold := cases.Fold()
	return SortKey[T]{Name: name, Compare: func(a, b T) int {
		return strings.Compare(fold.String(get(a)), fold.String(get(b)))
	}}
}

// Options describes one query. Zero values mean no filtering, no sorting
// and a single page holding everything.
type Options[T any] struct {
	Filters  []Predicate[T]
	Search   string
	Haystack func(T) string
	Sort     []SortKey[T]
	Page     int
	PageSize int
}

// Page is one slice of the result.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Pages    int `json:"pages"`
}

// Apply runs the query. Items are never mutated; the result is a new slice.
// Search matches case-insensitively on every whitespace separated term.
// Sorting is stable so equal items keep their fetch order. Pages are
// 1-based; a page past the end is empty and a page size <= 0 returns
// everything.
func Apply[T any](items []T, opts Options[T]) Page[T] {
	matched := make([]T, 0, len(items))
	terms := searchTerms(opts.Search)
	fold := cases.Fold()

	for _, item := range items {
		if !matchAll(item, opts.Filters) {
			continue
		}
		if len(terms) > 0 && opts.Haystack != nil {
			hay := fold.String(opts.Haystack(item))
			if !containsAll(hay, terms) {
				continue
			}
		}
		matched = append(matched, item)
	}

	if len(opts.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, key := range opts.Sort {
				if key.Compare == nil {
					continue
				}
				c := key.Compare(matched[i], matched[j])
				if key.Desc {
					c = -c
				}
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}

	total := len(matched)
	if opts.PageSize <= 0 {
		return Page[T]{Items: matched, Total: total, Page: 1, PageSize: total, Pages: 1}
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pages := (total + opts.PageSize - 1) / opts.PageSize
	out := Page[T]{Total: total, Page: page, PageSize: opts.PageSize, Pages: pages, Items: []T{}}
	start := (page - 1) * opts.PageSize
	if start >= total {
		return out
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	out.Items = append(out.Items, matched[start:end]...)
	return out
}

func matchAll[T any](item T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if p != nil && !p(item) {
			return false
		}
	}
	return true
}

func searchTerms(search string) []string {
	fold := cases.Fold()
	var out []string
	for _, f := range strings.Fields(search) {
		out = append(out, fold.String(f))
	}
	return out
}

func containsAll(hay string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}

// Equal keeps items whose attribute equals want. An empty want keeps all.
func Equal[T any, K comparable](get func(T) K, want K) Predicate[T] {
	var zero K
	if want == zero {
		return nil
	}
	return func(item T) bool { return get(item) == want }
}

// Between keeps items whose time falls in [from, to]. Zero bounds are open.
func Between[T any](get func(T) time.Time, from, to time.Time) Predicate[T] {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	return func(item T) bool {
		t := get(item)
		if !from.IsZero() && t.Before(from) {
			return false
		}
		if !to.IsZero() && t.After(to) {
			return false
		}
		return true
	}
}

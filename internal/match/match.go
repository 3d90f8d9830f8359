// Package match provides ready-made predicates for the search coordinator.
package match

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Substring returns a case-insensitive substring predicate. key extracts
// the searchable text from an item. An empty query matches everything.
func Substring[T any](key func(T) string) func(T, string) bool {
	return func(item T, query string) bool {
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(key(item)), strings.ToLower(query))
	}
}

// Fuzzy returns a predicate that accepts an item when the query characters
// appear in order in the item's text (subsequence match), case-insensitive.
// An empty query matches everything.
func Fuzzy[T any](key func(T) string) func(T, string) bool {
	return func(item T, query string) bool {
		if query == "" {
			return true
		}
		matches := fuzzy.Find(strings.ToLower(query), []string{strings.ToLower(key(item))})
		return len(matches) > 0
	}
}

// Any combines predicates; the item matches when any of them does.
func Any[T any](preds ...func(T, string) bool) func(T, string) bool {
	return func(item T, query string) bool {
		for _, p := range preds {
			if p(item, query) {
				return true
			}
		}
		return false
	}
}

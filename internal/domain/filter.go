package domain

import (
	"strings"
	"time"
)

// ValueSet is an enumerated filter parameter that remembers whether the caller
// supplied it at all. A supplied but empty set is different from an absent one.
type ValueSet[T ~string] struct {
	values   []T
	supplied bool
}

// Supplied returns a set the caller explicitly provided, possibly empty.
func Supplied[T ~string](values ...T) ValueSet[T] {
	return ValueSet[T]{values: values, supplied: true}
}

// Absent returns a set the caller did not provide.
func Absent[T ~string]() ValueSet[T] {
	return ValueSet[T]{}
}

func (v ValueSet[T]) IsSupplied() bool { return v.supplied }

func (v ValueSet[T]) Values() []T { return v.values }

// Restricts reports whether the set narrows results: only non-empty sets do.
func (v ValueSet[T]) Restricts() bool { return len(v.values) > 0 }

var deadlineLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDeadline parses an ISO-8601 date or date-time. Empty or malformed input
// yields nil: an unparseable deadline means "no deadline".
func ParseDeadline(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}
	return nil
}

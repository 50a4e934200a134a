package catalog

import "strings"

// All is the category value that places no restriction on a list.
const All = "all"

// FilterState is the search text and category selection driving a list.
type FilterState struct {
	Query    string
	Category string
}

// ParseState builds a FilterState from raw request values. An empty category
// selects everything; the query is kept as typed.
func ParseState(query, category string) FilterState {
	category = strings.TrimSpace(category)
	if category == "" {
		category = All
	}
	return FilterState{Query: query, Category: category}
}

// Unrestricted reports whether the state selects every record.
func (s FilterState) Unrestricted() bool {
	return s.Query == "" && isAll(s.Category)
}

// Spec describes how a record type is filtered: which category keys a record
// carries and which of its text fields are searched.
type Spec[T any] struct {
	Categories func(T) []string
	Fields     func(T) []string
}

// ChallengeSpec filters challenges by difficulty and searches title and
// description.
var ChallengeSpec = Spec[Challenge]{
	Categories: func(c Challenge) []string { return []string{c.Difficulty} },
	Fields:     func(c Challenge) []string { return []string{c.Title, c.Description} },
}

// ProjectSpec filters projects by tag membership.
var ProjectSpec = Spec[Project]{
	Categories: func(p Project) []string { return p.Tags },
	Fields:     func(p Project) []string { return []string{p.Title, p.Description} },
}

// LessonSpec filters lessons by track.
var LessonSpec = Spec[Lesson]{
	Categories: func(l Lesson) []string { return []string{l.Track} },
	Fields:     func(l Lesson) []string { return []string{l.Title, l.Description} },
}

// Filter returns the records matching state, in their original order.
// The input slice is never modified.
func Filter[T any](records []T, state FilterState, spec Spec[T]) []T {
	out := make([]T, 0, len(records))
	query := strings.ToLower(state.Query)
	for _, r := range records {
		if matches(r, query, state.Category, spec) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record is visible under state.
func Matches[T any](record T, state FilterState, spec Spec[T]) bool {
	return matches(record, strings.ToLower(state.Query), state.Category, spec)
}

func matches[T any](record T, query, category string, spec Spec[T]) bool {
	return inCategory(record, category, spec) && containsText(record, query, spec)
}

// Category keys compare case-insensitively so a lower-case selector such as
// "hard" matches the stored "Hard".
func inCategory[T any](record T, category string, spec Spec[T]) bool {
	if isAll(category) {
		return true
	}
	if spec.Categories == nil {
		return false
	}
	for _, c := range spec.Categories(record) {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

func containsText[T any](record T, query string, spec Spec[T]) bool {
	if query == "" {
		return true
	}
	if spec.Fields == nil {
		return false
	}
	for _, f := range spec.Fields(record) {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func isAll(category string) bool {
	return category == "" || category == All
}

package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleChallenges() []Challenge {
	return []Challenge{
		{Slug: "loop-error", Title: "loop_error.py", Description: "Off-by-one loop", Difficulty: "Easy"},
		{Slug: "array-bounds", Title: "array_bounds.py", Description: "IndexError past the end", Difficulty: "Easy"},
		{Slug: "memory-leak", Title: "memory_leak.py", Description: "Garbage collection tuning", Difficulty: "Hard"},
	}
}

func titles(cs []Challenge) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Title)
	}
	return out
}

func TestFilterAllAndEmptyQueryReturnsEverything(t *testing.T) {
	in := sampleChallenges()
	got := Filter(in, FilterState{Query: "", Category: All}, ChallengeSpec)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterExamples(t *testing.T) {
	tests := []struct {
		name  string
		state FilterState
		want  []string
	}{
		{"query array", FilterState{Query: "array", Category: All}, []string{"array_bounds.py"}},
		{"category Hard", FilterState{Query: "", Category: "Hard"}, []string{"memory_leak.py"}},
		{"lower-case selector", FilterState{Query: "", Category: "easy"}, []string{"loop_error.py", "array_bounds.py"}},
		{"query matches description", FilterState{Query: "GARBAGE", Category: All}, []string{"memory_leak.py"}},
		{"category and query", FilterState{Query: ".py", Category: "easy"}, []string{"loop_error.py", "array_bounds.py"}},
		{"no match", FilterState{Query: "segfault", Category: All}, []string{}},
		{"unknown category", FilterState{Query: "", Category: "expert"}, []string{}},
		{"empty category means all", FilterState{Query: "loop", Category: ""}, []string{"loop_error.py"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(Filter(sampleChallenges(), tt.state, ChallengeSpec))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter(%+v) mismatch (-want +got):\n%s", tt.state, diff)
			}
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	states := []FilterState{
		{Query: "", Category: All},
		{Query: "a", Category: All},
		{Query: "bounds", Category: "Easy"},
		{Query: "py", Category: "hard"},
		{Query: "zzz", Category: "Easy"},
	}
	for _, s := range states {
		once := Filter(sampleChallenges(), s, ChallengeSpec)
		twice := Filter(once, s, ChallengeSpec)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("Filter not idempotent for %+v (-once +twice):\n%s", s, diff)
		}
	}
}

func TestFilterTruthTable(t *testing.T) {
	rec := Challenge{Title: "loop_error.py", Description: "Off-by-one loop", Difficulty: "Easy"}
	tests := []struct {
		categoryMatch bool
		textMatch     bool
	}{
		{true, true},
		{true, false},
		{false, true},
		{false, false},
	}
	for _, tt := range tests {
		state := FilterState{Category: "Hard", Query: "nothing-here"}
		if tt.categoryMatch {
			state.Category = "Easy"
		}
		if tt.textMatch {
			state.Query = "LOOP"
		}
		got := Filter([]Challenge{rec}, state, ChallengeSpec)
		want := tt.categoryMatch && tt.textMatch
		if (len(got) == 1) != want {
			t.Errorf("category=%v text=%v: visible=%v, want %v", tt.categoryMatch, tt.textMatch, len(got) == 1, want)
		}
		if Matches(rec, state, ChallengeSpec) != want {
			t.Errorf("Matches disagrees with Filter for %+v", state)
		}
	}
}

func TestFilterPreservesOrderAndInput(t *testing.T) {
	in := []Challenge{
		{Title: "c.py", Difficulty: "Easy"},
		{Title: "a.py", Difficulty: "Hard"},
		{Title: "b.py", Difficulty: "Easy"},
	}
	snapshot := append([]Challenge(nil), in...)
	got := titles(Filter(in, FilterState{Category: "Easy"}, ChallengeSpec))
	if diff := cmp.Diff([]string{"c.py", "b.py"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, in); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestFilterProjectsByTagMembership(t *testing.T) {
	projects := []Project{
		{Title: "Todo List App", Tags: []string{"Frontend", "JavaScript"}},
		{Title: "Chat Application", Tags: []string{"Backend", "WebSocket"}},
		{Title: "Blog Platform", Tags: []string{"Frontend", "Backend"}},
	}
	got := Filter(projects, FilterState{Category: "Backend"}, ProjectSpec)
	var names []string
	for _, p := range got {
		names = append(names, p.Title)
	}
	if diff := cmp.Diff([]string{"Chat Application", "Blog Platform"}, names); diff != "" {
		t.Errorf("tag filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterLessonsByTrack(t *testing.T) {
	lessons := []Lesson{
		{Title: "lambda_functions.py", Track: "python"},
		{Title: "semantic_html.html", Track: "html"},
		{Title: "exception_handling.py", Track: "python"},
	}
	got := Filter(lessons, FilterState{Query: "exception", Category: "python"}, LessonSpec)
	if len(got) != 1 || got[0].Title != "exception_handling.py" {
		t.Errorf("lesson filter = %v", got)
	}
}

func TestFilterNilSpecFuncs(t *testing.T) {
	in := sampleChallenges()
	var spec Spec[Challenge]
	if got := Filter(in, FilterState{Category: All}, spec); len(got) != len(in) {
		t.Errorf("unrestricted state with empty spec returned %d records, want %d", len(got), len(in))
	}
	if got := Filter(in, FilterState{Query: "loop", Category: All}, spec); len(got) != 0 {
		t.Errorf("query with no searchable fields returned %d records, want 0", len(got))
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		query, category string
		want            FilterState
	}{
		{"", "", FilterState{Query: "", Category: All}},
		{"loop", "  ", FilterState{Query: "loop", Category: All}},
		{" spaced ", "hard", FilterState{Query: " spaced ", Category: "hard"}},
	}
	for _, tt := range tests {
		if got := ParseState(tt.query, tt.category); got != tt.want {
			t.Errorf("ParseState(%q, %q) = %+v, want %+v", tt.query, tt.category, got, tt.want)
		}
	}
	if !ParseState("", "").Unrestricted() {
		t.Error("empty state should be unrestricted")
	}
}

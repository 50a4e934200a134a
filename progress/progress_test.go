package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/codebuddy/catalog"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.Add(12 * time.Hour)
}

func TestStreak(t *testing.T) {
	now := day("2026-03-10")
	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"none", nil, 0},
		{"today only", []time.Time{day("2026-03-10")}, 1},
		{"ending yesterday", []time.Time{day("2026-03-09"), day("2026-03-08")}, 2},
		{"gap breaks run", []time.Time{day("2026-03-10"), day("2026-03-09"), day("2026-03-07")}, 2},
		{"stale", []time.Time{day("2026-03-05")}, 0},
		{"duplicates", []time.Time{day("2026-03-10"), day("2026-03-10"), day("2026-03-09")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.days, now); got != tt.want {
				t.Errorf("Streak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShares(t *testing.T) {
	got := shares(map[string]int{"Python": 2, "CSS": 1, "HTML": 1})
	want := []Share{
		{Name: "Python", Count: 2, Percent: 50},
		{Name: "CSS", Count: 1, Percent: 25},
		{Name: "HTML", Count: 1, Percent: 25},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shares mismatch (-want +got):\n%s", diff)
	}
	if got := shares(nil); len(got) != 0 || got == nil {
		t.Errorf("shares(nil) = %#v, want empty non-nil", got)
	}
}

func TestGoalPercent(t *testing.T) {
	tests := []struct {
		goal Goal
		want int
	}{
		{Goal{Current: 0, Target: 0}, 0},
		{Goal{Current: 1, Target: 4}, 25},
		{Goal{Current: 9, Target: 3}, 100},
	}
	for _, tt := range tests {
		if got := tt.goal.Percent(); got != tt.want {
			t.Errorf("%+v.Percent() = %d, want %d", tt.goal, got, tt.want)
		}
	}
}

func TestRecordOnce(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	e := Event{UserID: "u1", Kind: KindChallenge, Ref: "loop-error", XP: 50, At: day("2026-03-10")}

	ok, err := s.Record(ctx, e)
	if err != nil || !ok {
		t.Fatalf("first Record = %v, %v; want true, nil", ok, err)
	}
	ok, err = s.Record(ctx, e)
	if err != nil || ok {
		t.Fatalf("second Record = %v, %v; want false, nil", ok, err)
	}

	done, err := s.Completed(ctx, "u1", KindChallenge)
	if err != nil {
		t.Fatalf("Completed: %v", err)
	}
	if diff := cmp.Diff(map[string]bool{"loop-error": true}, done); diff != "" {
		t.Errorf("Completed mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRejectsBadEvents(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for _, e := range []Event{
		{Kind: KindLesson, Ref: "x"},
		{UserID: "u1", Kind: KindLesson},
		{UserID: "u1", Kind: "quiz", Ref: "x"},
	} {
		if _, err := s.Record(ctx, e); err == nil {
			t.Errorf("Record(%+v) = nil error, want error", e)
		}
	}
}

func TestSummary(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := day("2026-03-10")

	events := []Event{
		{UserID: "u1", Kind: KindLesson, Ref: "lambda-functions", Topic: "Python", XP: 50, At: day("2026-03-08")},
		{UserID: "u1", Kind: KindChallenge, Ref: "loop-error", Topic: "Python", XP: 50, At: day("2026-03-09")},
		{UserID: "u1", Kind: KindChallenge, Ref: "flexbox-layout", Topic: "CSS", XP: 75, At: day("2026-03-10")},
		{UserID: "u1", Kind: KindProject, Ref: "todo-app", Topic: "JavaScript", XP: 300, At: day("2026-03-10").Add(time.Hour)},
		{UserID: "u2", Kind: KindChallenge, Ref: "loop-error", Topic: "Python", XP: 50, At: day("2026-03-10")},
		{UserID: "u1", Kind: KindLesson, Ref: "semantic-html", Topic: "HTML", XP: 40, At: day("2026-02-01")},
	}
	for _, e := range events {
		if _, err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	d, err := s.Summary(ctx, "u1", now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if d.Streak != 3 {
		t.Errorf("Streak = %d, want 3", d.Streak)
	}
	if d.TotalXP != 515 {
		t.Errorf("TotalXP = %d, want 515", d.TotalXP)
	}
	if d.LessonsCompleted != 2 || d.ChallengesSolved != 2 || d.ProjectsBuilt != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/2/1", d.LessonsCompleted, d.ChallengesSolved, d.ProjectsBuilt)
	}

	if len(d.Week) != 7 {
		t.Fatalf("len(Week) = %d, want 7", len(d.Week))
	}
	last := d.Week[6]
	if last.Label() != "Tue" || last.Challenges != 1 || last.Projects != 1 || last.Total() != 2 {
		t.Errorf("today = %+v (%s), want Tue with 1 challenge and 1 project", last, last.Label())
	}
	if d.Week[4].Lessons != 1 {
		t.Errorf("Week[4].Lessons = %d, want 1", d.Week[4].Lessons)
	}

	if len(d.Recent) != 5 || d.Recent[0].Ref != "todo-app" {
		t.Errorf("Recent = %+v, want 5 events starting with todo-app", d.Recent)
	}
	if d.Skills[0].Name != "Python" || d.Skills[0].Percent != 40 {
		t.Errorf("Skills[0] = %+v, want Python 40%%", d.Skills[0])
	}
	if !d.Done(KindLesson, "lambda-functions") || d.Done(KindLesson, "flexbox-grid") {
		t.Errorf("Done lookups wrong: %+v", d.Completed)
	}
}

func TestSummaryEmpty(t *testing.T) {
	s := testStore(t)
	d, err := s.Summary(context.Background(), "nobody", day("2026-03-10"))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if d.Streak != 0 || d.TotalXP != 0 || len(d.Recent) != 0 || len(d.Skills) != 0 || len(d.Week) != 7 {
		t.Errorf("Summary for new user = %+v, want zero values", d)
	}
}

func TestAchievementsAndGoals(t *testing.T) {
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	python := map[string]bool{}
	for _, l := range c.LessonsFor("python") {
		python[l.Slug] = true
	}
	d := Dashboard{
		Streak:           7,
		ChallengesSolved: 3,
		ProjectsBuilt:    1,
		Completed:        map[Kind]map[string]bool{KindLesson: python},
	}

	got := map[string]bool{}
	for _, a := range Achievements(d, c) {
		got[a.Title] = a.Earned
	}
	want := map[string]bool{"Python Master": true, "Debug Detective": false, "Streak Warrior": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Achievements mismatch (-want +got):\n%s", diff)
	}

	goals := Goals(d, c)
	if len(goals) != 3 {
		t.Fatalf("len(Goals) = %d, want 3", len(goals))
	}
	if goals[0].Percent() != 100 {
		t.Errorf("python goal = %d%%, want 100%%", goals[0].Percent())
	}
	if goals[1].Current != 3 || goals[1].Target != 50 {
		t.Errorf("challenge goal = %+v", goals[1])
	}
	if goals[2].Percent() != 33 {
		t.Errorf("project goal = %d%%, want 33%%", goals[2].Percent())
	}
}

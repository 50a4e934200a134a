// Package progress records learner activity (lessons finished, challenges
// solved, projects built) and aggregates it for the dashboard.
package progress

import (
	"sort"
	"time"

	"github.com/eringen/codebuddy/catalog"
)

// Kind is the type of activity an event records.
type Kind string

const (
	KindLesson    Kind = "lesson"
	KindChallenge Kind = "challenge"
	KindProject   Kind = "project"
)

// Event is one completed piece of work.
type Event struct {
	ID     string    `json:"id"`
	UserID string    `json:"-"`
	Kind   Kind      `json:"kind"`
	Ref    string    `json:"ref"`   // catalog slug
	Topic  string    `json:"topic"` // language or track, for the skills split
	XP     int       `json:"xp"`
	At     time.Time `json:"at"`
}

// DayActivity counts events for one calendar day.
type DayActivity struct {
	Day        time.Time
	Lessons    int
	Challenges int
	Projects   int
}

// Label is the short weekday name, e.g. "Mon".
func (d DayActivity) Label() string { return d.Day.Format("Mon") }

// Total is the number of events on the day.
func (d DayActivity) Total() int { return d.Lessons + d.Challenges + d.Projects }

// Share is one slice of the skills breakdown.
type Share struct {
	Name    string
	Count   int
	Percent int
}

// Dashboard is the aggregated view of a learner's activity.
type Dashboard struct {
	Streak           int
	TotalXP          int
	LessonsCompleted int
	ChallengesSolved int
	ProjectsBuilt    int
	Week             []DayActivity // oldest first, ending today
	Skills           []Share
	Recent           []Event
	Completed        map[Kind]map[string]bool
}

// Done reports whether the learner completed ref.
func (d Dashboard) Done(kind Kind, ref string) bool {
	return d.Completed[kind][ref]
}

// dayKey is the UTC calendar day an event is grouped under.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Streak counts consecutive active days ending today, or ending yesterday
// when nothing has been done yet today.
func Streak(days []time.Time, now time.Time) int {
	active := make(map[string]struct{}, len(days))
	for _, d := range days {
		active[dayKey(d)] = struct{}{}
	}
	day := now.UTC()
	if _, ok := active[dayKey(day)]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for {
		if _, ok := active[dayKey(day)]; !ok {
			return n
		}
		n++
		day = day.AddDate(0, 0, -1)
	}
}

// shares turns raw topic counts into percentages, largest first. Percentages
// are rounded down, so they may sum to slightly less than 100.
func shares(counts map[string]int) []Share {
	total := 0
	for _, n := range counts {
		total += n
	}
	out := make([]Share, 0, len(counts))
	if total == 0 {
		return out
	}
	for name, n := range counts {
		out = append(out, Share{Name: name, Count: n, Percent: n * 100 / total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Achievement is a badge earned by reaching a milestone.
type Achievement struct {
	Title       string
	Description string
	XP          int
	Earned      bool
}

// Achievements evaluates the badge rules against a dashboard.
func Achievements(d Dashboard, c catalog.Catalog) []Achievement {
	python := c.LessonsFor("python")
	pythonDone := len(python) > 0
	for _, l := range python {
		if !d.Done(KindLesson, l.Slug) {
			pythonDone = false
			break
		}
	}
	return []Achievement{
		{
			Title:       "Python Master",
			Description: "Completed all Python fundamentals lessons",
			XP:          500,
			Earned:      pythonDone,
		},
		{
			Title:       "Debug Detective",
			Description: "Solved 10 debugging challenges",
			XP:          250,
			Earned:      d.ChallengesSolved >= 10,
		},
		{
			Title:       "Streak Warrior",
			Description: "Maintained a 7-day learning streak",
			XP:          200,
			Earned:      d.Streak >= 7,
		},
	}
}

// Goal is a target the learner is working towards.
type Goal struct {
	Title       string
	Description string
	Current     int
	Target      int
}

// Percent is progress towards the target, capped at 100.
func (g Goal) Percent() int {
	if g.Target <= 0 {
		return 0
	}
	p := g.Current * 100 / g.Target
	if p > 100 {
		p = 100
	}
	return p
}

// Goals builds the dashboard goals from the learner's counts.
func Goals(d Dashboard, c catalog.Catalog) []Goal {
	python := c.LessonsFor("python")
	done := 0
	for _, l := range python {
		if d.Done(KindLesson, l.Slug) {
			done++
		}
	}
	return []Goal{
		{Title: "Complete Python Track", Description: "Finish all Python lessons and projects", Current: done, Target: len(python)},
		{Title: "Solve 50 Challenges", Description: "Complete debugging and coding challenges", Current: d.ChallengesSolved, Target: 50},
		{Title: "Build 3 Projects", Description: "Complete portfolio-worthy projects", Current: d.ProjectsBuilt, Target: 3},
	}
}

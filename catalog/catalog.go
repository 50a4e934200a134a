// Package catalog holds the browsable learning content (debugging challenges,
// projects, tracks, lessons and roadmaps) and the filter that derives the
// visible subset of a list from the current search state.
package catalog

// Challenge is a debugging exercise shown on the practice page.
type Challenge struct {
	ID          int    `yaml:"id" json:"id"`
	Slug        string `yaml:"slug" json:"slug"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Difficulty  string `yaml:"difficulty" json:"difficulty"` // Easy, Intermediate, Hard
	Language    string `yaml:"language" json:"language"`
	TimeLimit   string `yaml:"time_limit" json:"time_limit"`
	XP          int    `yaml:"xp" json:"xp"`
	Attempts    int    `yaml:"attempts" json:"attempts"`
	SuccessRate int    `yaml:"success_rate" json:"success_rate"`
	Completed   bool   `yaml:"completed" json:"completed"`
	Locked      bool   `yaml:"locked" json:"locked"`
}

// Project is a portfolio build shown on the projects page.
type Project struct {
	ID          int      `yaml:"id" json:"id"`
	Slug        string   `yaml:"slug" json:"slug"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Difficulty  string   `yaml:"difficulty" json:"difficulty"`
	Duration    string   `yaml:"duration" json:"duration"`
	Rating      string   `yaml:"rating" json:"rating"`
	Tags        []string `yaml:"tags" json:"tags"`
	Progress    int      `yaml:"progress" json:"progress"`
	XP          int      `yaml:"xp" json:"xp"`
}

// Track is a language learning path.
type Track struct {
	Slug        string `yaml:"slug" json:"slug"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Progress    int    `yaml:"progress" json:"progress"`
	Completed   int    `yaml:"completed" json:"completed"`
	Total       int    `yaml:"total" json:"total"`
	Duration    string `yaml:"duration" json:"duration"`
}

// CodeSample is an illustrative snippet attached to a lesson.
type CodeSample struct {
	Language string `yaml:"language" json:"language"`
	Source   string `yaml:"source" json:"source"`
}

// Lesson is a single unit of a track.
type Lesson struct {
	ID          int         `yaml:"id" json:"id"`
	Slug        string      `yaml:"slug" json:"slug"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description" json:"description"`
	Track       string      `yaml:"track" json:"track"` // track slug
	Difficulty  string      `yaml:"difficulty" json:"difficulty"`
	Duration    string      `yaml:"duration" json:"duration"`
	Completed   bool        `yaml:"completed" json:"completed"`
	XP          int         `yaml:"xp" json:"xp"`
	Body        string      `yaml:"body" json:"body"` // markdown
	Sample      *CodeSample `yaml:"sample,omitempty" json:"sample,omitempty"`
}

// Step statuses for roadmap steps.
const (
	StatusCompleted = "completed"
	StatusCurrent   = "current"
	StatusAvailable = "available"
	StatusLocked    = "locked"
)

// Step is one stage of a roadmap.
type Step struct {
	ID          int      `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Duration    string   `yaml:"duration" json:"duration"`
	Lessons     int      `yaml:"lessons" json:"lessons"`
	Skills      []string `yaml:"skills" json:"skills"`
	Status      string   `yaml:"status" json:"status"`
	Progress    int      `yaml:"progress" json:"progress"`
}

// Roadmap is a career path made of ordered steps.
type Roadmap struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Progress    int    `yaml:"progress" json:"progress"`
	Completed   int    `yaml:"completed" json:"completed"`
	Total       int    `yaml:"total" json:"total"`
	Duration    string `yaml:"duration" json:"duration"`
	Difficulty  string `yaml:"difficulty" json:"difficulty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// Catalog is the full set of browsable content.
type Catalog struct {
	Challenges []Challenge `yaml:"challenges"`
	Projects   []Project   `yaml:"projects"`
	Tracks     []Track     `yaml:"tracks"`
	Lessons    []Lesson    `yaml:"lessons"`
	Roadmaps   []Roadmap   `yaml:"roadmaps"`
}

// Roadmap returns the roadmap with the given id, or the first roadmap when
// no id matches. ok reports whether the id was found.
func (c Catalog) Roadmap(id string) (r Roadmap, ok bool) {
	for _, rm := range c.Roadmaps {
		if rm.ID == id {
			return rm, true
		}
	}
	if len(c.Roadmaps) > 0 {
		return c.Roadmaps[0], false
	}
	return Roadmap{}, false
}

// Challenge looks up a challenge by slug.
func (c Catalog) Challenge(slug string) (Challenge, bool) {
	for _, ch := range c.Challenges {
		if ch.Slug == slug {
			return ch, true
		}
	}
	return Challenge{}, false
}

// Project looks up a project by slug.
func (c Catalog) Project(slug string) (Project, bool) {
	for _, p := range c.Projects {
		if p.Slug == slug {
			return p, true
		}
	}
	return Project{}, false
}

// Lesson looks up a lesson by slug.
func (c Catalog) Lesson(slug string) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Slug == slug {
			return l, true
		}
	}
	return Lesson{}, false
}

// Track looks up a track by slug.
func (c Catalog) Track(slug string) (Track, bool) {
	for _, t := range c.Tracks {
		if t.Slug == slug {
			return t, true
		}
	}
	return Track{}, false
}

// LessonsFor returns the lessons of a track in catalog order.
func (c Catalog) LessonsFor(track string) []Lesson {
	var out []Lesson
	for _, l := range c.Lessons {
		if l.Track == track {
			out = append(out, l)
		}
	}
	return out
}

package codebuddy

import (
	"github.com/a-h/templ"

	"github.com/eringen/codebuddy/catalog"
	"github.com/eringen/codebuddy/forms"
	"github.com/eringen/codebuddy/identity"
	"github.com/eringen/codebuddy/progress"
)

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Page is the data every full page needs for its layout.
type Page struct {
	Site string
	Meta PageMeta
	Path string         // request path, for active nav links
	User *identity.User // nil when signed out
	CSRF string
}

// SignedIn reports whether a learner is signed in.
func (p Page) SignedIn() bool { return p.User != nil }

// LandingPage is the home page.
type LandingPage struct {
	Page
	Featured []catalog.Challenge
	Tracks   []catalog.Track
	Roadmaps []catalog.Roadmap
}

// PracticePage lists debugging challenges.
type PracticePage struct {
	Page
	State      catalog.FilterState
	Levels     []catalog.Option
	Challenges []catalog.Challenge
	Total      int
	Solved     map[string]bool
}

// ProjectsPage lists portfolio projects.
type ProjectsPage struct {
	Page
	State    catalog.FilterState
	Tags     []catalog.Option
	Projects []catalog.Project
	Total    int
}

// LearnPage lists tracks and their lessons.
type LearnPage struct {
	Page
	State   catalog.FilterState
	Options []catalog.Option
	Tracks  []catalog.Track
	Lessons []catalog.Lesson
	Total   int
	Done    map[string]bool
}

// LessonPage shows one lesson.
type LessonPage struct {
	Page
	Lesson catalog.Lesson
	Track  catalog.Track
	Done   bool
	Next   *catalog.Lesson
}

// RoadmapPage shows one career roadmap and the list to switch between.
type RoadmapPage struct {
	Page
	Roadmaps []catalog.Roadmap
	Selected catalog.Roadmap
}

// DashboardPage is the signed-in learner's overview.
type DashboardPage struct {
	Page
	Summary      progress.Dashboard
	Achievements []progress.Achievement
	Goals        []progress.Goal
	Continue     []catalog.Lesson // next unfinished lessons
	Message      string
}

// LoginPage renders the email and phone sign-in forms.
type LoginPage struct {
	Page
	Email       forms.Login
	EmailErrors forms.Errors
	Phone       forms.OTPVerify
	PhoneErrors forms.Errors
	OTPSent     bool
	ResendIn    int    // seconds until a new code may be requested
	Error       string // single inline message for failed sign-in
	Providers   []string
	Next        string
}

// SignupPage renders the account creation form.
type SignupPage struct {
	Page
	Form      forms.Signup
	Errors    forms.Errors
	Roles     []string
	Error     string
	Providers []string
}

// ContactPage renders the contact form.
type ContactPage struct {
	Page
	Form   forms.Contact
	Errors forms.Errors
	Sent   bool
}

// ViewFuncs holds the templ components the app calls when rendering pages.
// The views package provides the default set; embedders can swap any of
// them out.
type ViewFuncs struct {
	Landing      func(LandingPage) templ.Component
	Practice     func(PracticePage) templ.Component
	PracticeList func(PracticePage) templ.Component
	Projects     func(ProjectsPage) templ.Component
	ProjectList  func(ProjectsPage) templ.Component
	Learn        func(LearnPage) templ.Component
	LessonList   func(LearnPage) templ.Component
	Lesson       func(LessonPage) templ.Component
	Roadmap      func(RoadmapPage) templ.Component
	Dashboard    func(DashboardPage) templ.Component
	Login        func(LoginPage) templ.Component
	Signup       func(SignupPage) templ.Component
	Contact      func(ContactPage) templ.Component
	NotFound     func(Page) templ.Component
	ServerError  func(Page) templ.Component
}

package codebuddy

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/codebuddy/catalog"
	"github.com/eringen/codebuddy/forms"
	"github.com/eringen/codebuddy/progress"
)

func (a *App) handleLanding(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	featured := make([]catalog.Challenge, 0, 3)
	for _, ch := range cat.Challenges {
		if len(featured) == cap(featured) {
			break
		}
		if !ch.Locked {
			featured = append(featured, ch)
		}
	}
	return Render(c, a.Views.Landing(LandingPage{
		Page:     a.page(c, "", ""),
		Featured: featured,
		Tracks:   cat.Tracks,
		Roadmaps: cat.Roadmaps,
	}))
}

// completed returns the signed-in learner's finished refs of kind, or an
// empty set for visitors.
func (a *App) completed(c echo.Context, kind progress.Kind) (map[string]bool, error) {
	u := CurrentUser(c)
	if u == nil {
		return map[string]bool{}, nil
	}
	return a.Progress.Completed(c.Request().Context(), u.ID, kind)
}

func (a *App) handlePractice(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	solved, err := a.completed(c, progress.KindChallenge)
	if err != nil {
		return err
	}
	state := catalog.ParseState(c.QueryParam("q"), c.QueryParam("level"))
	data := PracticePage{
		Page:       a.page(c, "Practice", "Debug real code and earn XP.", "practice"),
		State:      state,
		Levels:     catalog.Levels,
		Challenges: catalog.Filter(cat.Challenges, state, catalog.ChallengeSpec),
		Total:      len(cat.Challenges),
		Solved:     solved,
	}
	if isPartial(c, "list") {
		return Render(c, a.Views.PracticeList(data))
	}
	return Render(c, a.Views.Practice(data))
}

func (a *App) handleProjects(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	state := catalog.ParseState(c.QueryParam("q"), c.QueryParam("tag"))
	data := ProjectsPage{
		Page:     a.page(c, "Projects", "Build portfolio projects step by step.", "projects"),
		State:    state,
		Tags:     catalog.ProjectTags,
		Projects: catalog.Filter(cat.Projects, state, catalog.ProjectSpec),
		Total:    len(cat.Projects),
	}
	if isPartial(c, "list") {
		return Render(c, a.Views.ProjectList(data))
	}
	return Render(c, a.Views.Projects(data))
}

func (a *App) handleLearn(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	done, err := a.completed(c, progress.KindLesson)
	if err != nil {
		return err
	}
	track := c.QueryParam("track")
	if !c.QueryParams().Has("track") && len(cat.Tracks) > 0 {
		// A fresh visit opens on the first track; "all" must be chosen explicitly.
		track = cat.Tracks[0].Slug
	}
	state := catalog.ParseState(c.QueryParam("q"), track)
	data := LearnPage{
		Page:    a.page(c, "Learn", "Structured tracks for Python, HTML and CSS.", "learn"),
		State:   state,
		Options: cat.TrackOptions(),
		Tracks:  cat.Tracks,
		Lessons: catalog.Filter(cat.Lessons, state, catalog.LessonSpec),
		Total:   len(cat.Lessons),
		Done:    done,
	}
	if isPartial(c, "list") {
		return Render(c, a.Views.LessonList(data))
	}
	return Render(c, a.Views.Learn(data))
}

func (a *App) handleLesson(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	lesson, ok := cat.Lesson(c.Param("slug"))
	if !ok {
		return echo.ErrNotFound
	}
	track, _ := cat.Track(lesson.Track)
	done, err := a.completed(c, progress.KindLesson)
	if err != nil {
		return err
	}

	var next *catalog.Lesson
	siblings := cat.LessonsFor(lesson.Track)
	for i, l := range siblings {
		if l.Slug == lesson.Slug && i+1 < len(siblings) {
			n := siblings[i+1]
			next = &n
			break
		}
	}

	return Render(c, a.Views.Lesson(LessonPage{
		Page:   a.page(c, lesson.Title, lesson.Description, "learn", "lessons", lesson.Slug),
		Lesson: lesson,
		Track:  track,
		Done:   done[lesson.Slug],
		Next:   next,
	}))
}

func (a *App) handleRoadmap(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	selected, _ := cat.Roadmap(c.QueryParam("id"))
	return Render(c, a.Views.Roadmap(RoadmapPage{
		Page:     a.page(c, "Roadmaps", "Career paths from first line of code to job-ready.", "roadmap"),
		Roadmaps: cat.Roadmaps,
		Selected: selected,
	}))
}

// record stores a completion for the signed-in learner and redirects back.
// Repeat completions are accepted without granting XP twice.
func (a *App) record(c echo.Context, e progress.Event, back string) error {
	u := CurrentUser(c)
	e.UserID = u.ID
	e.At = time.Now()
	added, err := a.Progress.Record(c.Request().Context(), e)
	if err != nil {
		return err
	}
	if added {
		a.Logger.Info("progress recorded",
			zap.String("user", u.ID), zap.String("kind", string(e.Kind)), zap.String("ref", e.Ref), zap.Int("xp", e.XP))
	}
	return c.Redirect(http.StatusSeeOther, back)
}

func (a *App) handleSolveChallenge(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	ch, ok := cat.Challenge(c.Param("slug"))
	if !ok {
		return echo.ErrNotFound
	}
	if ch.Locked {
		return echo.NewHTTPError(http.StatusForbidden, "challenge is locked")
	}
	return a.record(c, progress.Event{
		Kind: progress.KindChallenge, Ref: ch.Slug, Topic: ch.Language, XP: ch.XP,
	}, "/practice/")
}

func (a *App) handleCompleteProject(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	p, ok := cat.Project(c.Param("slug"))
	if !ok {
		return echo.ErrNotFound
	}
	topic := ""
	if len(p.Tags) > 0 {
		topic = p.Tags[0]
	}
	return a.record(c, progress.Event{
		Kind: progress.KindProject, Ref: p.Slug, Topic: topic, XP: p.XP,
	}, "/projects/")
}

func (a *App) handleCompleteLesson(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	l, ok := cat.Lesson(c.Param("slug"))
	if !ok {
		return echo.ErrNotFound
	}
	topic := l.Track
	if t, ok := cat.Track(l.Track); ok {
		topic = t.Title
	}
	return a.record(c, progress.Event{
		Kind: progress.KindLesson, Ref: l.Slug, Topic: topic, XP: l.XP,
	}, "/learn/lessons/"+PathEscape(l.Slug)+"/")
}

func (a *App) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	cat, err := a.Catalog.Get(ctx)
	if err != nil {
		return err
	}
	u := CurrentUser(c)
	summary, err := a.Progress.Summary(ctx, u.ID, time.Now())
	if err != nil {
		return err
	}

	next := make([]catalog.Lesson, 0, 3)
	for _, l := range cat.Lessons {
		if len(next) == cap(next) {
			break
		}
		if !summary.Done(progress.KindLesson, l.Slug) {
			next = append(next, l)
		}
	}

	var msg string
	if c.QueryParam("avatar") == "updated" {
		msg = "Profile photo updated."
	}
	return Render(c, a.Views.Dashboard(DashboardPage{
		Page:         a.page(c, "Dashboard", "", "dashboard"),
		Summary:      summary,
		Achievements: progress.Achievements(summary, cat),
		Goals:        progress.Goals(summary, cat),
		Continue:     next,
		Message:      msg,
	}))
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact(ContactPage{
		Page: a.page(c, "Contact", "Questions, feedback or partnership ideas.", "contact"),
		Sent: c.QueryParam("sent") == "1",
	}))
}

func (a *App) handleContactSubmit(c echo.Context) error {
	f := forms.Contact{
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Subject: c.FormValue("subject"),
		Message: c.FormValue("message"),
	}
	errs, err := forms.Submit(f, func() error {
		id, err := a.Store.SaveContact(c.Request().Context(), f)
		if err == nil {
			a.Logger.Info("contact message received", zap.String("id", id))
		}
		return err
	})
	if err != nil {
		return err
	}
	if errs.Any() {
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Contact(ContactPage{
			Page:   a.page(c, "Contact", "", "contact"),
			Form:   f,
			Errors: errs,
		}))
	}
	return c.Redirect(http.StatusSeeOther, "/contact/?sent=1")
}

func (a *App) handleRobots(c echo.Context) error {
	body := strings.Join([]string{
		"User-agent: *",
		"Disallow: /dashboard/",
		"Disallow: /auth/",
		"Disallow: /api/",
		"Sitemap: " + strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml",
		"",
	}, "\n")
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, "Not found", "")))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, "Error", "")))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

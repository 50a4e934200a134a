package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/eringen/codebuddy"
	"github.com/eringen/codebuddy/catalog"
	"github.com/eringen/codebuddy/content"
	"github.com/eringen/codebuddy/progress"
)

// optionLabel turns shouted selector labels such as "ALL_LEVELS" into
// "All Levels". Mixed-case labels are kept as written.
func optionLabel(label string) string {
	if label != strings.ToUpper(label) {
		return label
	}
	return title.String(strings.ToLower(strings.ReplaceAll(label, "_", " ")))
}

func xp(n int) string {
	return humanize.Comma(int64(n)) + " XP"
}

// filterForm writes the search box and category selector that drive the
// list with id target.
func (w *writer) filterForm(action, target, placeholder, param string, state catalog.FilterState, opts []catalog.Option) {
	w.open("form", "method", "get", "action", action, "class", "inline", "role", "search", "data-filter", target)
	w.open("input", "type", "search", "name", "q", "value", state.Query, "placeholder", placeholder, "aria-label", placeholder)
	w.open("select", "name", param, "aria-label", "Category")
	for _, o := range opts {
		w.option(o.ID, optionLabel(o.Label), strings.EqualFold(o.ID, state.Category))
	}
	w.close("select")
	w.elem("button", "Filter", "type", "submit")
	w.close("form")
}

func (w *writer) showing(state catalog.FilterState, n, total int, noun string) {
	label := "Showing " + strconv.Itoa(n) + " of " + strconv.Itoa(total) + " " + noun
	if state.Unrestricted() {
		label = "Showing all " + strconv.Itoa(total) + " " + noun
	}
	w.elem("p", label, "class", "muted")
}

// Landing renders the home page.
func Landing(d codebuddy.LandingPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.open("section", "class", "hero")
		w.elem("h1", "Level up your coding skills")
		w.elem("p", "Fix real bugs, build portfolio projects and follow a roadmap to your first developer job.")
		if d.SignedIn() {
			w.link("/dashboard/", "Continue learning", "class", "button")
		} else {
			w.link("/signup/", "Start for free", "class", "button")
		}
		w.link("/practice/", "Try a challenge")
		w.close("section")

		w.open("section")
		w.elem("h2", "Featured challenges")
		w.open("div", "class", "grid")
		for _, ch := range d.Featured {
			w.challengeCard(ch, false, false, "")
		}
		w.close("div")
		w.close("section")

		w.open("section")
		w.elem("h2", "Learning tracks")
		w.open("div", "class", "grid")
		for _, t := range d.Tracks {
			w.trackCard(t)
		}
		w.close("div")
		w.close("section")

		w.open("section")
		w.elem("h2", "Career roadmaps")
		w.open("ul")
		for _, r := range d.Roadmaps {
			w.open("li")
			w.link("/roadmap/?id="+r.ID, r.Title)
			w.text(" - " + r.Duration)
			w.close("li")
		}
		w.close("ul")
		w.close("section")
	})
}

func (w *writer) challengeCard(ch catalog.Challenge, solved, signedIn bool, csrf string) {
	class := "card"
	if ch.Locked {
		class += " locked"
	}
	w.open("article", "class", class)
	w.elem("h3", ch.Title)
	w.elem("span", ch.Difficulty, "class", difficultyClass(ch.Difficulty))
	w.elem("span", ch.Language, "class", "badge")
	w.elem("p", ch.Description)
	w.open("p", "class", "meta")
	w.text(ch.TimeLimit + " | " + xp(ch.XP) + " | " + strconv.Itoa(ch.SuccessRate) + "% success | " + humanize.Comma(int64(ch.Attempts)) + " attempts")
	w.close("p")
	switch {
	case ch.Locked:
		w.elem("p", "Locked", "class", "muted")
	case solved:
		w.elem("p", "Solved", "class", "notice")
	case signedIn:
		w.open("form", "method", "post", "action", "/practice/"+codebuddy.PathEscape(ch.Slug)+"/solve/")
		w.csrf(csrf)
		w.elem("button", "Mark as solved", "type", "submit")
		w.close("form")
	}
	w.close("article")
}

func (w *writer) trackCard(t catalog.Track) {
	w.open("article", "class", "card")
	w.open("h3")
	w.link("/learn/?track="+t.Slug, t.Title)
	w.close("h3")
	w.elem("p", t.Description)
	w.bar(t.Progress)
	w.elem("p", strconv.Itoa(t.Completed)+"/"+strconv.Itoa(t.Total)+" lessons | "+t.Duration, "class", "meta")
	w.close("article")
}

// Practice renders the challenge browser.
func Practice(d codebuddy.PracticePage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.elem("h1", "Debugging challenges")
		w.elem("p", "Find the bug, fix it, earn XP.")
		w.filterForm("/practice/", "challenge-list", "Search challenges...", "level", d.State, d.Levels)
		w.render(PracticeList(d))
	})
}

// PracticeList renders only the filtered challenge grid.
func PracticeList(d codebuddy.PracticePage) templ.Component {
	return component(func(w *writer) {
		w.open("div", "id", "challenge-list")
		w.showing(d.State, len(d.Challenges), d.Total, "challenges")
		if len(d.Challenges) == 0 {
			w.elem("p", "No challenges match your search.", "class", "empty")
		}
		w.open("div", "class", "grid")
		for _, ch := range d.Challenges {
			w.challengeCard(ch, d.Solved[ch.Slug], d.SignedIn(), d.CSRF)
		}
		w.close("div")
		w.close("div")
	})
}

// Projects renders the project browser.
func Projects(d codebuddy.ProjectsPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.elem("h1", "Projects")
		w.elem("p", "Build real applications for your portfolio.")
		w.filterForm("/projects/", "project-list", "Search projects...", "tag", d.State, d.Tags)
		w.render(ProjectList(d))
	})
}

// ProjectList renders only the filtered project grid.
func ProjectList(d codebuddy.ProjectsPage) templ.Component {
	return component(func(w *writer) {
		w.open("div", "id", "project-list")
		w.showing(d.State, len(d.Projects), d.Total, "projects")
		if len(d.Projects) == 0 {
			w.elem("p", "No projects match your search.", "class", "empty")
		}
		w.open("div", "class", "grid")
		for _, p := range d.Projects {
			w.open("article", "class", "card")
			w.elem("h3", p.Title)
			w.elem("span", p.Difficulty, "class", difficultyClass(p.Difficulty))
			for _, t := range p.Tags {
				w.elem("span", t, "class", "badge")
			}
			w.elem("p", p.Description)
			w.elem("p", p.Duration+" | rated "+p.Rating+" | "+xp(p.XP), "class", "meta")
			w.bar(p.Progress)
			if d.SignedIn() {
				w.open("form", "method", "post", "action", "/projects/"+codebuddy.PathEscape(p.Slug)+"/complete/")
				w.csrf(d.CSRF)
				w.elem("button", "Mark as built", "type", "submit")
				w.close("form")
			}
			w.close("article")
		}
		w.close("div")
		w.close("div")
	})
}

// Learn renders the tracks and the lesson browser.
func Learn(d codebuddy.LearnPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.elem("h1", "Learning tracks")
		w.open("div", "class", "grid")
		for _, t := range d.Tracks {
			w.trackCard(t)
		}
		w.close("div")
		w.elem("h2", "Lessons")
		w.filterForm("/learn/", "lesson-list", "Search lessons...", "track", d.State, d.Options)
		w.render(LessonList(d))
	})
}

// LessonList renders only the filtered lesson list.
func LessonList(d codebuddy.LearnPage) templ.Component {
	return component(func(w *writer) {
		w.open("div", "id", "lesson-list")
		w.showing(d.State, len(d.Lessons), d.Total, "lessons")
		if len(d.Lessons) == 0 {
			w.elem("p", "No lessons match your search.", "class", "empty")
		}
		w.open("ul", "class", "lessons")
		for _, l := range d.Lessons {
			w.open("li", "class", "card")
			w.open("h3")
			w.link("/learn/lessons/"+codebuddy.PathEscape(l.Slug)+"/", l.Title)
			w.close("h3")
			w.elem("span", l.Difficulty, "class", difficultyClass(l.Difficulty))
			w.elem("p", l.Description)
			w.elem("p", l.Duration+" | "+xp(l.XP), "class", "meta")
			if d.Done[l.Slug] {
				w.elem("p", "Completed", "class", "notice")
			}
			w.close("li")
		}
		w.close("ul")
		w.close("div")
	})
}

// Lesson renders a single lesson with its body and code sample.
func Lesson(d codebuddy.LessonPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.open("article", "class", "lesson")
		w.open("p", "class", "meta")
		w.link("/learn/?track="+d.Track.Slug, d.Track.Title)
		w.text(" | " + d.Lesson.Difficulty + " | " + d.Lesson.Duration + " | " + xp(d.Lesson.XP))
		w.close("p")
		w.elem("h1", d.Lesson.Title)
		w.elem("p", d.Lesson.Description, "class", "lead")
		w.render(content.Markdown(d.Lesson.Body))
		if s := d.Lesson.Sample; s != nil {
			w.elem("h2", "Try it")
			w.render(content.Code(s.Language, s.Source))
		}
		switch {
		case d.Done:
			w.elem("p", "You completed this lesson.", "class", "notice")
		case d.SignedIn():
			w.open("form", "method", "post", "action", "/learn/lessons/"+codebuddy.PathEscape(d.Lesson.Slug)+"/complete/")
			w.csrf(d.CSRF)
			w.elem("button", "Mark complete (+"+xp(d.Lesson.XP)+")", "type", "submit")
			w.close("form")
		default:
			w.open("p")
			w.link("/login/?next=/learn/lessons/"+codebuddy.PathEscape(d.Lesson.Slug)+"/", "Sign in")
			w.text(" to save your progress.")
			w.close("p")
		}
		if d.Next != nil {
			w.open("p")
			w.text("Next: ")
			w.link("/learn/lessons/"+codebuddy.PathEscape(d.Next.Slug)+"/", d.Next.Title)
			w.close("p")
		}
		w.close("article")
	})
}

// Roadmap renders the selected career roadmap.
func Roadmap(d codebuddy.RoadmapPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.elem("h1", "Career roadmaps")
		w.open("nav", "class", "inline", "aria-label", "Roadmaps")
		for _, r := range d.Roadmaps {
			if r.ID == d.Selected.ID {
				w.link("/roadmap/?id="+r.ID, r.Title, "class", "active", "aria-current", "page")
			} else {
				w.link("/roadmap/?id="+r.ID, r.Title)
			}
		}
		w.close("nav")

		r := d.Selected
		w.open("section", "class", "card")
		w.elem("h2", r.Title)
		w.elem("p", r.Description)
		w.elem("p", r.Difficulty+" | "+r.Duration+" | "+strconv.Itoa(r.Completed)+"/"+strconv.Itoa(r.Total)+" steps", "class", "meta")
		w.bar(r.Progress)
		w.open("ol", "class", "steps")
		for _, s := range r.Steps {
			w.open("li", "class", s.Status)
			w.elem("h3", s.Title)
			w.elem("span", title.String(s.Status), "class", "badge")
			w.elem("p", s.Description)
			w.elem("p", s.Duration+" | "+strconv.Itoa(s.Lessons)+" lessons", "class", "meta")
			for _, sk := range s.Skills {
				w.elem("span", sk, "class", "badge")
			}
			if s.Status == catalog.StatusCurrent || s.Progress > 0 {
				w.bar(s.Progress)
			}
			w.close("li")
		}
		w.close("ol")
		w.close("section")
	})
}

// Dashboard renders the learner overview.
func Dashboard(d codebuddy.DashboardPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		s := d.Summary
		w.open("section", "class", "profile")
		if d.User != nil {
			if d.User.AvatarURL != "" {
				w.open("img", "src", d.User.AvatarURL, "alt", "", "width", "96", "height", "96", "class", "avatar")
			}
			w.elem("h1", "Welcome back, "+d.User.DisplayName()+"!")
		}
		if d.Message != "" {
			w.elem("p", d.Message, "class", "notice")
		}
		w.open("form", "method", "post", "action", "/dashboard/avatar/", "enctype", "multipart/form-data", "class", "inline")
		w.csrf(d.CSRF)
		w.open("label")
		w.text("Profile photo ")
		w.open("input", "type", "file", "name", "avatar", "accept", "image/png,image/jpeg,image/gif")
		w.close("label")
		w.elem("button", "Upload", "type", "submit")
		w.close("form")
		w.close("section")

		w.open("section", "class", "grid stats")
		w.stat("Day streak", strconv.Itoa(s.Streak))
		w.stat("Total XP", humanize.Comma(int64(s.TotalXP)))
		w.stat("Lessons completed", strconv.Itoa(s.LessonsCompleted))
		w.stat("Challenges solved", strconv.Itoa(s.ChallengesSolved))
		w.stat("Projects built", strconv.Itoa(s.ProjectsBuilt))
		w.close("section")

		w.open("section", "class", "card")
		w.elem("h2", "This week")
		w.open("table")
		w.raw("<thead><tr><th>Day</th><th>Lessons</th><th>Challenges</th><th>Projects</th></tr></thead>")
		w.open("tbody")
		for _, day := range s.Week {
			w.open("tr")
			w.elem("td", day.Label())
			w.elem("td", strconv.Itoa(day.Lessons))
			w.elem("td", strconv.Itoa(day.Challenges))
			w.elem("td", strconv.Itoa(day.Projects))
			w.close("tr")
		}
		w.close("tbody")
		w.close("table")
		w.close("section")

		w.open("section", "class", "card")
		w.elem("h2", "Skills")
		if len(s.Skills) == 0 {
			w.elem("p", "Complete a lesson or challenge to see your skills.", "class", "empty")
		}
		for _, sh := range s.Skills {
			w.elem("p", sh.Name+" "+strconv.Itoa(sh.Percent)+"%")
			w.bar(sh.Percent)
		}
		w.close("section")

		w.open("section", "class", "card")
		w.elem("h2", "Goals")
		for _, g := range d.Goals {
			w.elem("h3", g.Title)
			w.elem("p", g.Description+" ("+strconv.Itoa(g.Current)+"/"+strconv.Itoa(g.Target)+")", "class", "meta")
			w.bar(g.Percent())
		}
		w.close("section")

		w.open("section", "class", "card")
		w.elem("h2", "Achievements")
		w.open("ul")
		for _, a := range d.Achievements {
			class := "locked"
			if a.Earned {
				class = "earned"
			}
			w.open("li", "class", class)
			w.elem("strong", a.Title)
			w.text(" - " + a.Description + " (+" + xp(a.XP) + ")")
			w.close("li")
		}
		w.close("ul")
		w.close("section")

		w.open("section", "class", "card")
		w.elem("h2", "Recent activity")
		if len(s.Recent) == 0 {
			w.elem("p", "Nothing yet. Pick a challenge to get started!", "class", "empty")
		}
		w.open("ul")
		for _, e := range s.Recent {
			w.open("li")
			w.text(activityVerb(e.Kind) + " " + e.Ref + " (+" + xp(e.XP) + ") " + humanize.Time(e.At))
			w.close("li")
		}
		w.close("ul")
		w.close("section")

		if len(d.Continue) > 0 {
			w.open("section", "class", "card")
			w.elem("h2", "Continue learning")
			w.open("ul")
			for _, l := range d.Continue {
				w.open("li")
				w.link("/learn/lessons/"+codebuddy.PathEscape(l.Slug)+"/", l.Title)
				w.close("li")
			}
			w.close("ul")
			w.close("section")
		}
	})
}

func (w *writer) stat(label, value string) {
	w.open("div", "class", "card stat")
	w.elem("strong", value)
	w.elem("span", label)
	w.close("div")
}

func activityVerb(k progress.Kind) string {
	switch k {
	case progress.KindLesson:
		return "Completed lesson"
	case progress.KindChallenge:
		return "Solved challenge"
	case progress.KindProject:
		return "Built project"
	}
	return title.String(string(k))
}

func (w *writer) providers(names []string) {
	if len(names) == 0 {
		return
	}
	w.open("div", "class", "providers")
	for _, n := range names {
		w.link("/auth/"+codebuddy.PathEscape(n)+"/", "Continue with "+title.String(n), "class", "button")
	}
	w.close("div")
}

// Login renders the email and phone sign-in forms.
func Login(d codebuddy.LoginPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.elem("h1", "Welcome back")
		w.alert(d.Error)
		w.providers(d.Providers)

		w.open("section", "class", "card")
		w.elem("h2", "Sign in with email")
		w.open("form", "method", "post", "action", "/login/", "class", "stack", "novalidate", "")
		w.csrf(d.CSRF)
		w.open("input", "type", "hidden", "name", "next", "value", d.Next)
		w.field("Email", "email", "email", d.Email.Email, d.EmailErrors.Get("email"))
		w.field("Password", "password", "password", "", d.EmailErrors.Get("password"))
		w.elem("button", "Sign in", "type", "submit")
		w.close("form")
		w.close("section")

		w.open("section", "class", "card")
		w.elem("h2", "Sign in with phone")
		if !d.OTPSent {
			w.open("form", "method", "post", "action", "/login/otp/send/", "class", "stack", "novalidate", "")
			w.csrf(d.CSRF)
			w.open("input", "type", "hidden", "name", "next", "value", d.Next)
			w.field("Phone number", "phone", "tel", d.Phone.Phone, d.PhoneErrors.Get("phone"))
			w.elem("button", "Send code", "type", "submit")
			w.close("form")
		} else {
			w.elem("p", "We sent a code to "+d.Phone.Phone+".")
			if msg := d.PhoneErrors.Get("phone"); msg != "" {
				w.elem("p", msg, "class", "field-error")
			}
			w.open("form", "method", "post", "action", "/login/otp/verify/", "class", "stack", "novalidate", "")
			w.csrf(d.CSRF)
			w.open("input", "type", "hidden", "name", "next", "value", d.Next)
			w.open("input", "type", "hidden", "name", "phone", "value", d.Phone.Phone)
			w.field("OTP", "otp", "text", d.Phone.Code, d.PhoneErrors.Get("otp"))
			w.elem("button", "Verify", "type", "submit")
			w.close("form")

			w.open("form", "method", "post", "action", "/login/otp/send/", "class", "inline")
			w.csrf(d.CSRF)
			w.open("input", "type", "hidden", "name", "next", "value", d.Next)
			w.open("input", "type", "hidden", "name", "phone", "value", d.Phone.Phone)
			if d.ResendIn > 0 {
				w.open("button", "type", "submit", "id", "resend", "disabled", "")
			} else {
				w.open("button", "type", "submit", "id", "resend")
			}
			w.text("Resend code")
			w.close("button")
			w.open("span", "data-countdown", strconv.Itoa(d.ResendIn), "data-enables", "resend", "aria-live", "polite")
			if d.ResendIn > 0 {
				w.text("Resend code in " + strconv.Itoa(d.ResendIn) + "s")
			}
			w.close("span")
			w.close("form")
		}
		w.close("section")

		w.open("p")
		w.text("New here? ")
		w.link("/signup/", "Create an account")
		w.close("p")
	})
}

// Signup renders the account creation form.
func Signup(d codebuddy.SignupPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.elem("h1", "Join CodeBuddy")
		w.alert(d.Error)
		w.providers(d.Providers)
		w.open("form", "method", "post", "action", "/signup/", "class", "stack card", "novalidate", "")
		w.csrf(d.CSRF)
		w.field("Name", "name", "text", d.Form.Name, d.Errors.Get("name"))
		w.field("Email", "email", "email", d.Form.Email, d.Errors.Get("email"))
		w.field("Password", "password", "password", "", d.Errors.Get("password"))
		w.field("Confirm password", "confirm_password", "password", "", d.Errors.Get("confirm_password"))
		w.open("label")
		w.text("Experience")
		w.open("select", "name", "role")
		for _, r := range d.Roles {
			w.option(r, r, r == d.Form.RoleOrDefault())
		}
		w.close("select")
		w.close("label")
		w.elem("button", "Create account", "type", "submit")
		w.close("form")
		w.open("p")
		w.text("Already have an account? ")
		w.link("/login/", "Sign in")
		w.close("p")
	})
}

// Contact renders the contact form.
func Contact(d codebuddy.ContactPage) templ.Component {
	return layout(d.Page, func(w *writer) {
		w.elem("h1", "Get in touch")
		if d.Sent {
			w.elem("p", "Thanks! Your message has been sent. We'll get back to you soon.", "class", "notice", "role", "status")
		}
		w.open("form", "method", "post", "action", "/contact/", "class", "stack card", "novalidate", "")
		w.csrf(d.CSRF)
		w.field("Name", "name", "text", d.Form.Name, d.Errors.Get("name"))
		w.field("Email", "email", "email", d.Form.Email, d.Errors.Get("email"))
		w.field("Subject", "subject", "text", d.Form.Subject, d.Errors.Get("subject"))
		w.open("label")
		w.text("Message")
		if msg := d.Errors.Get("message"); msg != "" {
			w.open("textarea", "name", "message", "id", "message", "rows", "6", "aria-invalid", "true", "aria-describedby", "message-error")
		} else {
			w.open("textarea", "name", "message", "id", "message", "rows", "6")
		}
		w.text(d.Form.Message)
		w.close("textarea")
		w.close("label")
		if msg := d.Errors.Get("message"); msg != "" {
			w.elem("p", msg, "class", "field-error", "id", "message-error")
		}
		w.elem("button", "Send message", "type", "submit")
		w.close("form")
	})
}

// NotFound renders the 404 page.
func NotFound(p codebuddy.Page) templ.Component {
	return layout(p, func(w *writer) {
		w.elem("h1", "404 - Bug not found")
		w.elem("p", "The page you are looking for does not exist.")
		w.link("/", "Back to home")
	})
}

// ServerError renders the 500 page.
func ServerError(p codebuddy.Page) templ.Component {
	return layout(p, func(w *writer) {
		w.elem("h1", "Something went wrong")
		w.elem("p", "We hit an unexpected error. Please try again in a moment.")
		w.link("/", "Back to home")
	})
}

// Default returns the built-in view set.
func Default() codebuddy.ViewFuncs {
	return codebuddy.ViewFuncs{
		Landing:      Landing,
		Practice:     Practice,
		PracticeList: PracticeList,
		Projects:     Projects,
		ProjectList:  ProjectList,
		Learn:        Learn,
		LessonList:   LessonList,
		Lesson:       Lesson,
		Roadmap:      Roadmap,
		Dashboard:    Dashboard,
		Login:        Login,
		Signup:       Signup,
		Contact:      Contact,
		NotFound:     NotFound,
		ServerError:  ServerError,
	}
}

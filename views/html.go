package views

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/codebuddy"
)

var title = cases.Title(language.English)

// writer accumulates the first write error so markup code can stay linear.
type writer struct {
	ctx context.Context
	out io.Writer
	err error
}

func component(fn func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{ctx: ctx, out: out}
		fn(w)
		return w.err
	})
}

func (w *writer) raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.out, p)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// open writes a start tag. attrs are name/value pairs; an empty value
// writes a bare boolean attribute.
func (w *writer) open(tag string, attrs ...string) {
	w.raw("<", tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			w.raw(" ", attrs[i])
			continue
		}
		w.raw(" ", attrs[i], `="`, templ.EscapeString(attrs[i+1]), `"`)
	}
	w.raw(">")
}

func (w *writer) close(tag string) {
	w.raw("</", tag, ">")
}

func (w *writer) elem(tag, text string, attrs ...string) {
	w.open(tag, attrs...)
	w.text(text)
	w.close(tag)
}

func (w *writer) link(href, text string, attrs ...string) {
	w.open("a", append([]string{"href", string(templ.URL(href))}, attrs...)...)
	w.text(text)
	w.close("a")
}

func (w *writer) render(c templ.Component) {
	if w.err == nil && c != nil {
		w.err = c.Render(w.ctx, w.out)
	}
}

func (w *writer) csrf(token string) {
	w.open("input", "type", "hidden", "name", "_csrf", "value", token)
}

// field writes a labelled input followed by its inline error, if any.
func (w *writer) field(label, name, typ, value, errMsg string) {
	w.open("label")
	w.text(label)
	attrs := []string{"type", typ, "name", name, "id", name}
	if typ != "password" {
		attrs = append(attrs, "value", value)
	}
	if errMsg != "" {
		attrs = append(attrs, "aria-invalid", "true", "aria-describedby", name+"-error")
	}
	w.open("input", attrs...)
	w.close("label")
	if errMsg != "" {
		w.elem("p", errMsg, "class", "field-error", "id", name+"-error")
	}
}

func (w *writer) alert(msg string) {
	if msg != "" {
		w.elem("p", msg, "class", "alert", "role", "alert")
	}
}

// bar draws a progress bar for a 0-100 percentage.
func (w *writer) bar(pct int) {
	pct = max(0, min(100, pct))
	w.open("div", "class", "bar", "role", "progressbar", "aria-valuenow", strconv.Itoa(pct), "aria-valuemin", "0", "aria-valuemax", "100")
	w.open("span", "style", "width:"+strconv.Itoa(pct)+"%")
	w.close("span")
	w.close("div")
}

func (w *writer) option(value, label string, selected bool) {
	if selected {
		w.open("option", "value", value, "selected", "")
	} else {
		w.open("option", "value", value)
	}
	w.text(label)
	w.close("option")
}

func difficultyClass(d string) string {
	return "badge " + strings.ToLower(d)
}

var navLinks = []struct{ href, label string }{
	{"/practice/", "Practice"},
	{"/projects/", "Projects"},
	{"/learn/", "Learn"},
	{"/roadmap/", "Roadmap"},
	{"/contact/", "Contact"},
}

// layout wraps body in the shared page chrome.
func layout(p codebuddy.Page, body func(w *writer)) templ.Component {
	return component(func(w *writer) {
		w.raw("<!doctype html>")
		w.open("html", "lang", "en")
		w.open("head")
		w.open("meta", "charset", "utf-8")
		w.open("meta", "name", "viewport", "content", "width=device-width, initial-scale=1")
		w.elem("title", p.Meta.Title)
		w.open("meta", "name", "description", "content", p.Meta.Description)
		w.open("link", "rel", "canonical", "href", p.Meta.URL)
		w.open("meta", "property", "og:title", "content", p.Meta.Title)
		w.open("meta", "property", "og:description", "content", p.Meta.Description)
		w.open("meta", "property", "og:url", "content", p.Meta.URL)
		w.open("meta", "property", "og:type", "content", p.Meta.OGType)
		w.open("meta", "name", "csrf-token", "content", p.CSRF)
		w.open("link", "rel", "alternate", "type", "application/rss+xml", "title", p.Site+" lessons", "href", "/feed.xml")
		w.open("link", "rel", "stylesheet", "href", "/public/site.css")
		w.open("link", "rel", "stylesheet", "href", "/public/code.css")
		w.open("script", "src", "/public/site.js", "defer", "")
		w.close("script")
		w.close("head")

		w.open("body")
		w.open("header", "class", "site")
		w.link("/", p.Site, "class", "brand")
		w.open("nav")
		links := navLinks
		if p.SignedIn() {
			links = append([]struct{ href, label string }{{"/dashboard/", "Dashboard"}}, links...)
		}
		for _, l := range links {
			if strings.HasPrefix(p.Path, l.href) {
				w.link(l.href, l.label, "class", "active", "aria-current", "page")
			} else {
				w.link(l.href, l.label)
			}
		}
		w.close("nav")
		if p.SignedIn() {
			w.elem("span", p.User.DisplayName(), "class", "user")
			w.open("form", "method", "post", "action", "/logout/")
			w.csrf(p.CSRF)
			w.elem("button", "Sign out", "type", "submit")
			w.close("form")
		} else {
			w.link("/login/", "Sign in")
			w.link("/signup/", "Sign up", "class", "button")
		}
		w.close("header")

		w.open("main")
		body(w)
		w.close("main")

		w.open("aside", "class", "chat card", "aria-label", "Debugging assistant")
		w.elem("h2", "AI Debug Assistant")
		w.open("div", "id", "chat-log", "aria-live", "polite")
		w.elem("p", codebuddy.ChatGreeting, "class", "chat-bot")
		w.close("div")
		w.open("form", "id", "chat-form", "class", "inline")
		w.open("input", "type", "text", "name", "message", "placeholder", "Ask about your code...", "aria-label", "Message", "maxlength", "2000")
		w.elem("button", "Send", "type", "submit")
		w.close("form")
		w.close("aside")

		w.open("footer", "class", "site")
		w.elem("p", p.Site+" - level up your coding skills.")
		w.close("footer")
		w.close("body")
		w.close("html")
	})
}

package codebuddy

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// isPartial reports whether an HTMX request asked for the named fragment.
func isPartial(c echo.Context, name string) bool {
	return c.Request().Header.Get("HX-Request") == "true" && c.QueryParam("partial") == name
}

// page builds the layout data shared by every page.
func (a *App) page(c echo.Context, title, description string, segments ...string) Page {
	if description == "" {
		description = a.Config.Description
	}
	fullTitle := a.Config.Name
	if title != "" {
		fullTitle = title + " | " + a.Config.Name
	}
	return Page{
		Site: a.Config.Name,
		Meta: PageMeta{
			Title:       fullTitle,
			Description: description,
			URL:         BuildURL(a.Config.URL, segments...),
			OGType:      "website",
		},
		Path: c.Request().URL.Path,
		User: CurrentUser(c),
		CSRF: CsrfToken(c),
	}
}

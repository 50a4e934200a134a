package codebuddy

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/codebuddy/catalog"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// sitemapURLs lists the public pages: the fixed sections, every lesson and
// every roadmap.
func sitemapURLs(base string, cat catalog.Catalog) []sitemapURL {
	urls := []sitemapURL{
		{Loc: BuildURL(base), ChangeFreq: "weekly"},
	}
	for _, section := range []string{"practice", "projects", "learn", "roadmap", "contact", "signup"} {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, section), ChangeFreq: "weekly"})
	}
	for _, l := range cat.Lessons {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "learn", "lessons", l.Slug), ChangeFreq: "monthly"})
	}
	for _, r := range cat.Roadmaps {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "roadmap") + "?id=" + PathEscape(r.ID), ChangeFreq: "monthly"})
	}
	return urls
}

func (a *App) handleSitemap(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  sitemapURLs(a.Config.URL, cat),
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}

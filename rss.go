package codebuddy

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/codebuddy/catalog"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Category    string `xml:"category,omitempty"`
	GUID        string `xml:"guid"`
}

// lessonFeed lists every lesson, tagged with its track title.
func lessonFeed(cfg SiteConfig, cat catalog.Catalog) rssXML {
	items := make([]rssItem, 0, len(cat.Lessons))
	for _, l := range cat.Lessons {
		link := BuildURL(cfg.URL, "learn", "lessons", l.Slug)
		category := l.Track
		if t, ok := cat.Track(l.Track); ok {
			category = t.Title
		}
		items = append(items, rssItem{
			Title:       l.Title,
			Link:        link,
			Description: l.Description,
			Category:    category,
			GUID:        link,
		})
	}
	return rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Name + " lessons",
			Link:        BuildURL(cfg.URL, "learn"),
			Description: cfg.Description,
			Items:       items,
		},
	}
}

func (a *App) handleFeed(c echo.Context) error {
	cat, err := a.Catalog.Get(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(lessonFeed(a.Config, cat))
}

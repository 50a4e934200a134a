package catalog

// Option is one entry of a category selector.
type Option struct {
	ID    string
	Label string
}

// Levels are the difficulty selectors of the practice page.
var Levels = []Option{
	{ID: All, Label: "ALL_LEVELS"},
	{ID: "easy", Label: "EASY"},
	{ID: "intermediate", Label: "INTERMEDIATE"},
	{ID: "hard", Label: "HARD"},
}

// ProjectTags are the tag selectors of the projects page.
var ProjectTags = []Option{
	{ID: All, Label: "All"},
	{ID: "Frontend", Label: "Frontend"},
	{ID: "Backend", Label: "Backend"},
	{ID: "Mobile", Label: "Mobile"},
	{ID: "Game", Label: "Game"},
}

// TrackOptions returns the track selectors for the learn page.
func (c Catalog) TrackOptions() []Option {
	opts := make([]Option, 0, len(c.Tracks)+1)
	opts = append(opts, Option{ID: All, Label: "All tracks"})
	for _, t := range c.Tracks {
		opts = append(opts, Option{ID: t.Slug, Label: t.Title})
	}
	return opts
}

package model

import "time"

// Note is the most recent "note of the day" blog post.
type Note struct {
	Posted  time.Time
	Title   string
	URL     string
	Excerpt string
}

// Release describes a published release of the tracker itself.
type Release struct {
	Tag         string
	Name        string
	URL         string
	PublishedAt time.Time
}

// Package model holds the post types shared by the pipeline, storage and sinks.
package model

// Post is a Reddit submission as read from the community feed.
type Post struct {
	ID    string
	Title string
	// Flair is the submission's link_flair_css_class; only used for filtering.
	Flair string
}

// SavedPost is a post that has been seen and persisted.
type SavedPost struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Permalink returns Reddit's canonical short link for the post.
func (p SavedPost) Permalink() string {
	return "https://redd.it/" + p.ID
}

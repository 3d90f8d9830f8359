package domain

// Bookmark is the item type the demo application searches over.
type Bookmark struct {
	Name string   `json:"name" toml:"name"`
	URL  string   `json:"url" toml:"url"`
	Tags []string `json:"tags,omitempty" toml:"tags,omitempty"`
}

// SearchText is the text the match predicates run against.
func (b Bookmark) SearchText() string {
	text := b.Name + " " + b.URL
	for _, tag := range b.Tags {
		text += " " + tag
	}
	return text
}

// SameBookmark reports whether two bookmarks are the same entry. The URL
// is the identity; names and tags may differ between sources.
func SameBookmark(a, b Bookmark) bool {
	return a.URL == b.URL
}

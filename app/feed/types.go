package feed

import (
	"time"
)

// Item is a single candidate entry parsed from an RSS/Atom source. It is
// ephemeral: the link doubles as the dedup key and nothing else identifies it.
type Item struct {
	Title       string
	Description string // plain text, tags stripped
	Link        string
	PublishedAt *time.Time
	SourceName  string
}

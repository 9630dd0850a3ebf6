package database

import (
	"time"
)

// Article statuses.
const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
)

// Generation ledger statuses. A pending entry transitions exactly once to
// one of the terminal states: success, declined or error.
const (
	GenerationStatusPending  = "pending"
	GenerationStatusSuccess  = "success"
	GenerationStatusDeclined = "declined"
	GenerationStatusError    = "error"
)

type Article struct {
	ID           int64
	Slug         string
	Title        string
	Content      string // HTML body
	Excerpt      string
	Category     string
	ImagePath    *string
	JournalistID int64
	SourceTitle  string
	SourceURL    string
	Status       string
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Journalist is the persona a generated article is attributed to.
type Journalist struct {
	ID     int64
	Slug   string
	Name   string
	Role   string
	Style  string
	Bio    string
	Active bool
}

// RssSource is a configured feed. Owned by configuration; the pipeline only
// reads it and records fetch attempts in LastFetchedAt.
type RssSource struct {
	ID            int64
	Name          string
	URL           string
	Category      *string
	Active        bool
	LastFetchedAt *time.Time
	CreatedAt     time.Time
}

// GenerationLog is one ledger entry: a single generation attempt and its
// outcome. ArticleID is set if and only if Status is success.
type GenerationLog struct {
	ID                    int64
	SourceURL             string
	SourceTitle           string
	ArticleID             *int64
	JournalistID          *int64
	Status                string
	ErrorMessage          *string
	ModelUsed             *string
	TokensUsed            *int64
	CostEstimate          *float64
	GenerationTimeSeconds *float64
	CreatedAt             time.Time
}

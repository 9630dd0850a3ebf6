// Package pipeline orchestrates one article generation run end to end:
// aggregate feeds, filter duplicates, generate content, persist the article
// and record the attempt in the generation ledger.
package pipeline

import (
	"context"

	"github.com/toutvamal/newsroom/app/database"
	"github.com/toutvamal/newsroom/app/dedup"
	"github.com/toutvamal/newsroom/app/feed"
	"github.com/toutvamal/newsroom/app/generator"
)

type Aggregator interface {
	FetchAll(ctx context.Context, sources []database.RssSource) []feed.Item
}

type DuplicateChecker interface {
	Check(ctx context.Context, title, sourceURL string) (dedup.Verdict, error)
}

type ContentGenerator interface {
	Generate(ctx context.Context, item generator.SourceItem, persona generator.Persona) (*generator.Generation, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, slug string) (string, error)
}

// Publisher snapshots rendered pages to static files. Best effort; the
// orchestrator never waits on it.
type Publisher interface {
	PublishArticle(ctx context.Context, slug string)
	PublishHomepage(ctx context.Context)
}

// Options parameterizes a single run. When SourceURL is set the run skips
// feed aggregation and duplicate filtering and processes the given item
// directly; this is the manual-generation and retry path.
type Options struct {
	SourceURL         string
	SourceTitle       string
	SourceDescription string
	JournalistID      *int64
	AutoPublish       bool
	GenerateImage     bool
}

type Outcome string

const (
	// OutcomeGenerated means an article was created and the ledger entry
	// closed as success.
	OutcomeGenerated Outcome = "generated"

	// OutcomeNoEligibleItem means every aggregated item was filtered out.
	// Not an error and no ledger entry is written.
	OutcomeNoEligibleItem Outcome = "no_eligible_item"

	// OutcomeDeclined means the content generator judged the item unfit
	// for satire. Terminal, recorded distinctly from an error.
	OutcomeDeclined Outcome = "declined"

	// OutcomeFailed means the run failed after its ledger entry was
	// created; the entry is closed as error.
	OutcomeFailed Outcome = "failed"
)

// Result describes how a run ended. LogID is set for every outcome that
// produced a ledger entry, ArticleID only for OutcomeGenerated.
type Result struct {
	Outcome   Outcome
	ArticleID *int64
	LogID     *int64
	Reason    string
}

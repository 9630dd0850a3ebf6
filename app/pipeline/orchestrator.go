package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/toutvamal/newsroom/app/database"
	"github.com/toutvamal/newsroom/app/feed"
	"github.com/toutvamal/newsroom/app/generator"
	"github.com/toutvamal/newsroom/app/textnorm"
)

var (
	ErrLogNotFound  = errors.New("generation log not found")
	ErrNotRetryable = errors.New("only failed generations can be retried")
)

// runState tracks where a run is in its lifecycle. Transitions are strictly
// forward; stateFailed can be entered from anywhere.
type runState string

const (
	stateIdle         runState = "idle"
	stateAggregating  runState = "aggregating"
	stateFiltering    runState = "filtering"
	stateGenerating   runState = "generating"
	statePersisting   runState = "persisting"
	stateRegenerating runState = "regenerating"
	stateDone         runState = "done"
	stateFailed       runState = "failed"
)

type Deps struct {
	Sources     database.SourceRepository
	Articles    database.ArticleRepository
	Journalists database.JournalistRepository
	Ledger      database.GenerationLogRepository
	Aggregator  Aggregator
	Checker     DuplicateChecker
	Content     ContentGenerator
	Images      ImageGenerator
	Publisher   Publisher
}

// Orchestrator drives one generation run at a time. Each run writes at most
// one article and at most one ledger entry.
type Orchestrator struct {
	deps Deps
}

func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Run executes one full pipeline pass. Failures before the ledger entry
// exists (no sources, no journalist, repository errors) are returned as
// errors; once the entry is created every failure is recorded on it and
// reported through the Result instead.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := newRunID()
	state := stateIdle

	slog.Info("Pipeline run started", "run_id", runID, "manual_source", opts.SourceURL != "")

	item, result, err := o.selectItem(ctx, runID, &state, opts)
	if err != nil {
		o.transition(runID, &state, stateFailed)
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	journalist, err := o.pickJournalist(ctx, opts.JournalistID)
	if err != nil {
		o.transition(runID, &state, stateFailed)
		return nil, err
	}

	logID, err := o.deps.Ledger.CreateLog(ctx, database.GenerationLog{
		SourceURL:    item.Link,
		SourceTitle:  item.Title,
		JournalistID: &journalist.ID,
		Status:       database.GenerationStatusPending,
	})
	if err != nil {
		o.transition(runID, &state, stateFailed)
		return nil, fmt.Errorf("failed to open ledger entry: %w", err)
	}

	o.transition(runID, &state, stateGenerating)
	start := time.Now()

	generation, err := o.deps.Content.Generate(ctx,
		generator.SourceItem{Title: item.Title, Description: item.Description, Link: item.Link},
		generator.Persona{Name: journalist.Name, Style: journalist.Style},
	)
	if err != nil {
		o.closeAsError(ctx, logID, start, err)
		o.transition(runID, &state, stateFailed)
		slog.Error("Content generation failed", "run_id", runID, "log_id", logID, "error", err)
		return &Result{Outcome: OutcomeFailed, LogID: &logID, Reason: err.Error()}, nil
	}

	if generation.Declined {
		o.closeWithTelemetry(ctx, logID, database.GenerationStatusDeclined, nil, generation, start)
		o.transition(runID, &state, stateDone)
		slog.Info("Pipeline run declined by generator", "run_id", runID, "log_id", logID, "source_title", item.Title)
		return &Result{Outcome: OutcomeDeclined, LogID: &logID, Reason: "generator declined the source item"}, nil
	}

	article := generation.Article
	slug := textnorm.Slugify(article.Title)

	var imagePath *string
	if opts.GenerateImage && article.ImagePrompt != "" {
		path, imgErr := o.deps.Images.GenerateImage(ctx, article.ImagePrompt, slug)
		if imgErr != nil {
			slog.Warn("Image generation failed, continuing without image", "run_id", runID, "error", imgErr)
		} else {
			imagePath = &path
		}
	}

	o.transition(runID, &state, statePersisting)

	row := database.Article{
		Slug:         slug,
		Title:        article.Title,
		Content:      article.ContentHTML,
		Excerpt:      article.Excerpt,
		Category:     article.Category,
		ImagePath:    imagePath,
		JournalistID: journalist.ID,
		SourceTitle:  item.Title,
		SourceURL:    item.Link,
		Status:       database.ArticleStatusDraft,
	}
	if opts.AutoPublish {
		now := time.Now().UTC()
		row.Status = database.ArticleStatusPublished
		row.PublishedAt = &now
	}

	articleID, err := o.deps.Articles.CreateArticle(ctx, row)
	if err != nil {
		o.closeAsError(ctx, logID, start, err)
		o.transition(runID, &state, stateFailed)
		slog.Error("Article persistence failed", "run_id", runID, "log_id", logID, "error", err)
		return &Result{Outcome: OutcomeFailed, LogID: &logID, Reason: err.Error()}, nil
	}

	o.closeWithTelemetry(ctx, logID, database.GenerationStatusSuccess, &articleID, generation, start)

	if opts.AutoPublish && o.deps.Publisher != nil {
		o.transition(runID, &state, stateRegenerating)
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			o.deps.Publisher.PublishArticle(pubCtx, slug)
			o.deps.Publisher.PublishHomepage(pubCtx)
		}()
	}

	o.transition(runID, &state, stateDone)
	slog.Info("Pipeline run completed",
		"run_id", runID,
		"article_id", articleID,
		"title", article.Title,
		"journalist", journalist.Name,
		"duration_seconds", roundSeconds(time.Since(start)))

	return &Result{Outcome: OutcomeGenerated, ArticleID: &articleID, LogID: &logID}, nil
}

// Retry re-runs a failed ledger entry with the same source identity and
// journalist. The old entry is annotated, never mutated back to pending; the
// new attempt gets its own entry.
func (o *Orchestrator) Retry(ctx context.Context, logID int64, opts Options) (*Result, error) {
	entry, err := o.deps.Ledger.GetLogByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrLogNotFound
	}
	if entry.Status != database.GenerationStatusError {
		return nil, ErrNotRetryable
	}

	if err := o.deps.Ledger.MarkRetried(ctx, logID); err != nil {
		return nil, err
	}

	opts.SourceURL = entry.SourceURL
	opts.SourceTitle = entry.SourceTitle
	opts.JournalistID = entry.JournalistID

	slog.Info("Retrying failed generation", "log_id", logID, "source_url", entry.SourceURL)

	return o.Run(ctx, opts)
}

// selectItem resolves the feed item a run will process. The manual path uses
// the item from the options verbatim; the scheduled path aggregates all
// active sources and filters to the first non-duplicate item. A non-nil
// Result means the run ended here (no eligible item).
func (o *Orchestrator) selectItem(ctx context.Context, runID string, state *runState, opts Options) (feed.Item, *Result, error) {
	if opts.SourceURL != "" {
		title := opts.SourceTitle
		if title == "" {
			title = "Source externe"
		}
		return feed.Item{
			Title:       title,
			Description: opts.SourceDescription,
			Link:        opts.SourceURL,
		}, nil, nil
	}

	o.transition(runID, state, stateAggregating)

	sources, err := o.deps.Sources.GetSources(ctx, true)
	if err != nil {
		return feed.Item{}, nil, fmt.Errorf("failed to load sources: %w", err)
	}
	if len(sources) == 0 {
		return feed.Item{}, nil, fmt.Errorf("no active rss sources")
	}

	items := o.deps.Aggregator.FetchAll(ctx, sources)

	now := time.Now().UTC()
	for _, source := range sources {
		if err := o.deps.Sources.TouchLastFetched(ctx, source.ID, now); err != nil {
			slog.Warn("Failed to record source fetch time", "source", source.Name, "error", err)
		}
	}

	o.transition(runID, state, stateFiltering)

	for _, candidate := range items {
		// A link is the only identity a feed item has; without one the
		// exact-URL check cannot mark it as consumed.
		if candidate.Link == "" {
			slog.Debug("Candidate skipped, no link", "run_id", runID, "title", candidate.Title)
			continue
		}

		verdict, err := o.deps.Checker.Check(ctx, candidate.Title, candidate.Link)
		if err != nil {
			return feed.Item{}, nil, fmt.Errorf("duplicate check failed: %w", err)
		}
		if verdict.Duplicate {
			slog.Debug("Candidate filtered", "run_id", runID, "title", candidate.Title, "reason", verdict.Reason)
			continue
		}
		return candidate, nil, nil
	}

	o.transition(runID, state, stateDone)
	slog.Info("Pipeline run found no eligible item", "run_id", runID, "evaluated", len(items))

	return feed.Item{}, &Result{Outcome: OutcomeNoEligibleItem, Reason: "no eligible feed item"}, nil
}

func (o *Orchestrator) pickJournalist(ctx context.Context, id *int64) (*database.Journalist, error) {
	if id != nil {
		journalist, err := o.deps.Journalists.GetJournalistByID(ctx, *id)
		if err != nil {
			return nil, fmt.Errorf("failed to load journalist: %w", err)
		}
		if journalist == nil {
			return nil, fmt.Errorf("journalist %d not found", *id)
		}
		return journalist, nil
	}

	journalist, err := o.deps.Journalists.GetRandomActiveJournalist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pick journalist: %w", err)
	}
	if journalist == nil {
		return nil, fmt.Errorf("no active journalist available")
	}
	return journalist, nil
}

// closeAsError is the single error-path terminal update for a ledger entry.
func (o *Orchestrator) closeAsError(ctx context.Context, logID int64, start time.Time, cause error) {
	status := database.GenerationStatusError
	message := cause.Error()
	elapsed := roundSeconds(time.Since(start))

	err := o.deps.Ledger.UpdateLog(ctx, logID, database.GenerationLogUpdate{
		Status:                &status,
		ErrorMessage:          &message,
		GenerationTimeSeconds: &elapsed,
	})
	if err != nil {
		slog.Error("Failed to close ledger entry as error", "log_id", logID, "error", err)
	}
}

// closeWithTelemetry is the terminal update for declined and success runs.
func (o *Orchestrator) closeWithTelemetry(ctx context.Context, logID int64, status string, articleID *int64, generation *generator.Generation, start time.Time) {
	elapsed := roundSeconds(time.Since(start))

	update := database.GenerationLogUpdate{
		ArticleID:             articleID,
		Status:                &status,
		GenerationTimeSeconds: &elapsed,
	}
	if generation.ModelUsed != "" {
		update.ModelUsed = &generation.ModelUsed
	}
	if generation.TokensUsed > 0 {
		tokens := int64(generation.TokensUsed)
		update.TokensUsed = &tokens
	}
	if generation.CostEstimate > 0 {
		update.CostEstimate = &generation.CostEstimate
	}

	if err := o.deps.Ledger.UpdateLog(ctx, logID, update); err != nil {
		slog.Error("Failed to close ledger entry", "log_id", logID, "status", status, "error", err)
	}
}

func (o *Orchestrator) transition(runID string, state *runState, to runState) {
	slog.Debug("Pipeline state changed", "run_id", runID, "from", string(*state), "to", string(to))
	*state = to
}

func newRunID() string {
	return fmt.Sprintf("run_%d_%04d", time.Now().Unix(), rand.Intn(10000))
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

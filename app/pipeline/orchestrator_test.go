package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toutvamal/newsroom/app/database"
	"github.com/toutvamal/newsroom/app/dedup"
	"github.com/toutvamal/newsroom/app/feed"
	"github.com/toutvamal/newsroom/app/generator"
)

type fakeSources struct {
	sources []database.RssSource
	touched []int64
}

func (f *fakeSources) GetSources(ctx context.Context, activeOnly bool) ([]database.RssSource, error) {
	return f.sources, nil
}
func (f *fakeSources) UpsertSource(ctx context.Context, name, url string, category *string, active bool) error {
	return nil
}
func (f *fakeSources) TouchLastFetched(ctx context.Context, id int64, at time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeArticles struct {
	created []database.Article
	nextID  int64
	err     error
}

func (f *fakeArticles) CreateArticle(ctx context.Context, article database.Article) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	f.created = append(f.created, article)
	return f.nextID, nil
}
func (f *fakeArticles) GetArticleByID(ctx context.Context, id int64) (*database.Article, error) {
	return nil, nil
}
func (f *fakeArticles) ExistsBySourceURL(ctx context.Context, url string) (bool, error) {
	return false, nil
}
func (f *fakeArticles) RecentTitles(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeArticles) CountArticles(ctx context.Context, status string) (int, error) {
	return len(f.created), nil
}

type fakeJournalists struct {
	journalist *database.Journalist
}

func (f *fakeJournalists) GetJournalistByID(ctx context.Context, id int64) (*database.Journalist, error) {
	if f.journalist != nil && f.journalist.ID == id {
		return f.journalist, nil
	}
	return nil, nil
}
func (f *fakeJournalists) GetRandomActiveJournalist(ctx context.Context) (*database.Journalist, error) {
	return f.journalist, nil
}
func (f *fakeJournalists) GetActiveJournalistCount(ctx context.Context) (int, error) {
	if f.journalist == nil {
		return 0, nil
	}
	return 1, nil
}

type fakeLedger struct {
	entries map[int64]*database.GenerationLog
	updates map[int64][]database.GenerationLogUpdate
	retried []int64
	nextID  int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		entries: map[int64]*database.GenerationLog{},
		updates: map[int64][]database.GenerationLogUpdate{},
	}
}

func (f *fakeLedger) CreateLog(ctx context.Context, entry database.GenerationLog) (int64, error) {
	f.nextID++
	entry.ID = f.nextID
	if entry.Status == "" {
		entry.Status = database.GenerationStatusPending
	}
	f.entries[entry.ID] = &entry
	return entry.ID, nil
}
func (f *fakeLedger) UpdateLog(ctx context.Context, id int64, update database.GenerationLogUpdate) error {
	f.updates[id] = append(f.updates[id], update)
	entry := f.entries[id]
	if update.Status != nil {
		entry.Status = *update.Status
	}
	if update.ArticleID != nil {
		entry.ArticleID = update.ArticleID
	}
	if update.ErrorMessage != nil {
		entry.ErrorMessage = update.ErrorMessage
	}
	return nil
}
func (f *fakeLedger) GetLogByID(ctx context.Context, id int64) (*database.GenerationLog, error) {
	return f.entries[id], nil
}
func (f *fakeLedger) ListLogs(ctx context.Context, status string, limit, offset int) ([]database.GenerationLog, int, error) {
	return nil, 0, nil
}
func (f *fakeLedger) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	return 0, nil
}
func (f *fakeLedger) MarkRetried(ctx context.Context, id int64) error {
	f.retried = append(f.retried, id)
	return nil
}
func (f *fakeLedger) ExistsSourceURL(ctx context.Context, url string) (bool, error) {
	for _, entry := range f.entries {
		if entry.SourceURL == url {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeLedger) RecentSourceTitles(ctx context.Context, since time.Time) ([]string, error) {
	return nil, nil
}
func (f *fakeLedger) CountLogs(ctx context.Context, status string) (int, error) {
	return len(f.entries), nil
}

type fakeAggregator struct {
	items []feed.Item
}

func (f *fakeAggregator) FetchAll(ctx context.Context, sources []database.RssSource) []feed.Item {
	return f.items
}

type fakeChecker struct {
	duplicates map[string]string // url -> reason
	err        error
}

func (f *fakeChecker) Check(ctx context.Context, title, sourceURL string) (dedup.Verdict, error) {
	if f.err != nil {
		return dedup.Verdict{}, f.err
	}
	if reason, ok := f.duplicates[sourceURL]; ok {
		return dedup.Verdict{Duplicate: true, Reason: reason}, nil
	}
	return dedup.Verdict{}, nil
}

type fakeContent struct {
	generation *generator.Generation
	err        error
	calls      int
	lastItem   generator.SourceItem
}

func (f *fakeContent) Generate(ctx context.Context, item generator.SourceItem, persona generator.Persona) (*generator.Generation, error) {
	f.calls++
	f.lastItem = item
	if f.err != nil {
		return nil, f.err
	}
	return f.generation, nil
}

type fakeImages struct {
	path  string
	err   error
	calls int
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt, slug string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

type fakePublisher struct {
	published chan string
}

func (f *fakePublisher) PublishArticle(ctx context.Context, slug string) {
	f.published <- slug
}
func (f *fakePublisher) PublishHomepage(ctx context.Context) {}

func successfulGeneration() *generator.Generation {
	return &generator.Generation{
		Article: &generator.GeneratedArticle{
			Title:       "Pénurie de moutarde : l'Élysée en alerte",
			Category:    "declin-societal",
			Excerpt:     "La France retient son souffle.",
			ContentHTML: "<p>Drame national.</p>",
			ImagePrompt: "press photo of empty shelves",
		},
		ModelUsed:    "test/model",
		TokensUsed:   1200,
		CostEstimate: 0.004,
	}
}

type fixture struct {
	sources     *fakeSources
	articles    *fakeArticles
	journalists *fakeJournalists
	ledger      *fakeLedger
	aggregator  *fakeAggregator
	checker     *fakeChecker
	content     *fakeContent
	images      *fakeImages
	publisher   *fakePublisher
}

func newFixture() *fixture {
	return &fixture{
		sources: &fakeSources{sources: []database.RssSource{
			{ID: 1, Name: "Le Monde", URL: "https://lemonde.fr/rss", Active: true},
		}},
		articles:    &fakeArticles{},
		journalists: &fakeJournalists{journalist: &database.Journalist{ID: 7, Name: "Jean-Michel Apocalypse", Style: "catastrophiste"}},
		ledger:      newFakeLedger(),
		aggregator: &fakeAggregator{items: []feed.Item{
			{Title: "Un chat bloque le métro", Link: "https://lemonde.fr/chat", Description: "Un félin."},
		}},
		checker:   &fakeChecker{duplicates: map[string]string{}},
		content:   &fakeContent{generation: successfulGeneration()},
		images:    &fakeImages{path: "penurie-de-moutarde-123.webp"},
		publisher: &fakePublisher{published: make(chan string, 2)},
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	return NewOrchestrator(Deps{
		Sources:     f.sources,
		Articles:    f.articles,
		Journalists: f.journalists,
		Ledger:      f.ledger,
		Aggregator:  f.aggregator,
		Checker:     f.checker,
		Content:     f.content,
		Images:      f.images,
		Publisher:   f.publisher,
	})
}

func TestRunGeneratesArticle(t *testing.T) {
	f := newFixture()

	result, err := f.orchestrator().Run(context.Background(), Options{AutoPublish: true, GenerateImage: true})
	if err != nil {
		t.Fatal(err)
	}

	if result.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome, got %q (%s)", result.Outcome, result.Reason)
	}
	if result.ArticleID == nil || result.LogID == nil {
		t.Fatal("expected both article and log IDs on success")
	}

	if len(f.articles.created) != 1 {
		t.Fatalf("expected 1 article, got %d", len(f.articles.created))
	}
	article := f.articles.created[0]
	if article.Slug != "penurie-de-moutarde-l-elysee-en-alerte" {
		t.Errorf("unexpected slug %q", article.Slug)
	}
	if article.Status != database.ArticleStatusPublished || article.PublishedAt == nil {
		t.Error("auto-publish should mark the article published with a timestamp")
	}
	if article.ImagePath == nil || *article.ImagePath != "penurie-de-moutarde-123.webp" {
		t.Error("expected generated image path on article")
	}
	if article.SourceURL != "https://lemonde.fr/chat" {
		t.Errorf("unexpected source url %q", article.SourceURL)
	}
	if f.content.lastItem.Link != "https://lemonde.fr/chat" {
		t.Errorf("generator should receive the item link, got %q", f.content.lastItem.Link)
	}

	entry := f.ledger.entries[*result.LogID]
	if entry.Status != database.GenerationStatusSuccess {
		t.Errorf("expected success ledger status, got %q", entry.Status)
	}
	if entry.ArticleID == nil || *entry.ArticleID != *result.ArticleID {
		t.Error("ledger entry should reference the created article")
	}
	if len(f.ledger.updates[*result.LogID]) != 1 {
		t.Errorf("expected exactly one terminal update, got %d", len(f.ledger.updates[*result.LogID]))
	}

	if len(f.sources.touched) != 1 {
		t.Errorf("expected last_fetched_at recorded for 1 source, got %d", len(f.sources.touched))
	}

	select {
	case slug := <-f.publisher.published:
		if slug != article.Slug {
			t.Errorf("published unexpected slug %q", slug)
		}
	case <-time.After(time.Second):
		t.Error("expected static publication of the new article")
	}
}

func TestRunFailsFastWithoutSources(t *testing.T) {
	f := newFixture()
	f.sources.sources = nil

	if _, err := f.orchestrator().Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error when no sources are active")
	}
	if len(f.ledger.entries) != 0 {
		t.Error("no ledger entry should be written when the run fails before item selection")
	}
	if f.content.calls != 0 {
		t.Error("generator should not be called")
	}
}

func TestRunNoEligibleItem(t *testing.T) {
	f := newFixture()
	f.checker.duplicates["https://lemonde.fr/chat"] = "source URL already processed"

	result, err := f.orchestrator().Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeNoEligibleItem {
		t.Fatalf("expected no-eligible-item outcome, got %q", result.Outcome)
	}
	if len(f.ledger.entries) != 0 {
		t.Error("filtered-out items must not create ledger entries")
	}
	if f.content.calls != 0 {
		t.Error("generator should not be called")
	}
}

func TestRunSkipsDuplicateAndTakesNextItem(t *testing.T) {
	f := newFixture()
	f.aggregator.items = []feed.Item{
		{Title: "Un chat bloque le métro", Link: "https://lemonde.fr/chat"},
		{Title: "Une crêpe carrée en Bretagne", Link: "https://lemonde.fr/crepe"},
	}
	f.checker.duplicates["https://lemonde.fr/chat"] = "topic overlaps recent title"

	result, err := f.orchestrator().Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome, got %q", result.Outcome)
	}
	if f.ledger.entries[*result.LogID].SourceURL != "https://lemonde.fr/crepe" {
		t.Error("expected the run to process the first non-duplicate item")
	}
}

func TestRunNeverSelectsItemsWithoutLink(t *testing.T) {
	f := newFixture()
	f.aggregator.items = []feed.Item{
		{Title: "Objet sans lien", Link: ""},
	}

	for i := 0; i < 2; i++ {
		result, err := f.orchestrator().Run(context.Background(), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if result.Outcome != OutcomeNoEligibleItem {
			t.Fatalf("expected no-eligible-item outcome for linkless pool, got %q", result.Outcome)
		}
	}

	if len(f.articles.created) != 0 {
		t.Errorf("linkless items must never be generated, got %d articles", len(f.articles.created))
	}
	if len(f.ledger.entries) != 0 {
		t.Errorf("linkless items must not create ledger entries, got %d", len(f.ledger.entries))
	}
	if f.content.calls != 0 {
		t.Error("generator should not be called")
	}
}

func TestRunSkipsLinklessItemAndTakesNext(t *testing.T) {
	f := newFixture()
	f.aggregator.items = []feed.Item{
		{Title: "Objet sans lien", Link: ""},
		{Title: "Une crêpe carrée en Bretagne", Link: "https://lemonde.fr/crepe"},
	}

	result, err := f.orchestrator().Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome, got %q", result.Outcome)
	}
	if f.ledger.entries[*result.LogID].SourceURL != "https://lemonde.fr/crepe" {
		t.Error("expected the run to process the first linked item")
	}
}

func TestRunContentFailureClosesLedgerAsError(t *testing.T) {
	f := newFixture()
	f.content.err = errors.New("chat API error: HTTP 429")

	result, err := f.orchestrator().Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %q", result.Outcome)
	}
	if result.LogID == nil {
		t.Fatal("failed run should still reference its ledger entry")
	}

	entry := f.ledger.entries[*result.LogID]
	if entry.Status != database.GenerationStatusError {
		t.Errorf("expected error status, got %q", entry.Status)
	}
	if entry.ErrorMessage == nil || *entry.ErrorMessage == "" {
		t.Error("expected error message on ledger entry")
	}
	if entry.ArticleID != nil {
		t.Error("failed entry must not reference an article")
	}
	if len(f.articles.created) != 0 {
		t.Error("no article should be persisted on content failure")
	}
}

func TestRunDeclined(t *testing.T) {
	f := newFixture()
	f.content.generation = &generator.Generation{Declined: true, ModelUsed: "test/model", TokensUsed: 40}

	result, err := f.orchestrator().Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeDeclined {
		t.Fatalf("expected declined outcome, got %q", result.Outcome)
	}

	entry := f.ledger.entries[*result.LogID]
	if entry.Status != database.GenerationStatusDeclined {
		t.Errorf("expected declined status, got %q", entry.Status)
	}
	if entry.ArticleID != nil {
		t.Error("declined entry must not reference an article")
	}
	if len(f.articles.created) != 0 {
		t.Error("no article should be persisted for a declined run")
	}
	if f.images.calls != 0 {
		t.Error("image generator should not run for a declined item")
	}
}

func TestRunImageFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.images.err = errors.New("prediction timed out after 60 attempts")

	result, err := f.orchestrator().Run(context.Background(), Options{GenerateImage: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome despite image failure, got %q", result.Outcome)
	}
	if f.articles.created[0].ImagePath != nil {
		t.Error("article should have no image path when image generation fails")
	}
	if f.ledger.entries[*result.LogID].Status != database.GenerationStatusSuccess {
		t.Error("ledger entry should still close as success")
	}
}

func TestRunWithoutAutoPublishCreatesDraft(t *testing.T) {
	f := newFixture()

	result, err := f.orchestrator().Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome, got %q", result.Outcome)
	}

	article := f.articles.created[0]
	if article.Status != database.ArticleStatusDraft || article.PublishedAt != nil {
		t.Error("expected a draft article without publication timestamp")
	}

	select {
	case <-f.publisher.published:
		t.Error("draft runs must not trigger static publication")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunManualSourceSkipsAggregation(t *testing.T) {
	f := newFixture()
	f.aggregator.items = nil
	f.sources.sources = nil

	journalistID := int64(7)
	result, err := f.orchestrator().Run(context.Background(), Options{
		SourceURL:    "https://example.fr/manual",
		SourceTitle:  "Une info soumise à la main",
		JournalistID: &journalistID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome, got %q", result.Outcome)
	}

	entry := f.ledger.entries[*result.LogID]
	if entry.SourceURL != "https://example.fr/manual" {
		t.Errorf("unexpected ledger source url %q", entry.SourceURL)
	}
	if entry.JournalistID == nil || *entry.JournalistID != 7 {
		t.Error("expected the requested journalist on the ledger entry")
	}
}

func TestRetry(t *testing.T) {
	f := newFixture()

	message := "chat API error"
	failedID, _ := f.ledger.CreateLog(context.Background(), database.GenerationLog{
		SourceURL:    "https://lemonde.fr/echec",
		SourceTitle:  "Une info qui avait échoué",
		JournalistID: &f.journalists.journalist.ID,
		Status:       database.GenerationStatusError,
	})
	f.ledger.entries[failedID].ErrorMessage = &message

	result, err := f.orchestrator().Retry(context.Background(), failedID, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome, got %q", result.Outcome)
	}

	if len(f.ledger.retried) != 1 || f.ledger.retried[0] != failedID {
		t.Error("expected the failed entry to be marked retried")
	}
	if *result.LogID == failedID {
		t.Error("retry must create a new ledger entry, not reuse the failed one")
	}
	if f.ledger.entries[*result.LogID].SourceURL != "https://lemonde.fr/echec" {
		t.Error("retry should reuse the original source URL")
	}
	if f.ledger.entries[failedID].Status != database.GenerationStatusError {
		t.Error("the original entry must stay in error status")
	}
}

func TestRetryRejectsNonFailedEntries(t *testing.T) {
	f := newFixture()

	successID, _ := f.ledger.CreateLog(context.Background(), database.GenerationLog{
		SourceURL: "https://lemonde.fr/ok",
		Status:    database.GenerationStatusSuccess,
	})

	if _, err := f.orchestrator().Retry(context.Background(), successID, Options{}); !errors.Is(err, ErrNotRetryable) {
		t.Errorf("expected ErrNotRetryable, got %v", err)
	}

	if _, err := f.orchestrator().Retry(context.Background(), 9999, Options{}); !errors.Is(err, ErrLogNotFound) {
		t.Errorf("expected ErrLogNotFound, got %v", err)
	}
}

func TestRunDuplicateCheckErrorFailsRun(t *testing.T) {
	f := newFixture()
	f.checker.err = errors.New("database is locked")

	if _, err := f.orchestrator().Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error when duplicate check fails")
	}
	if len(f.ledger.entries) != 0 {
		t.Error("no ledger entry should exist after a pre-generation failure")
	}
}

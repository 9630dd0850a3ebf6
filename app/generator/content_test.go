package generator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseArticle(t *testing.T) {
	reply := `Voici l'article demandé :
{
	"title": "\"Pénurie de moutarde : l'Élysée en alerte\"",
	"category": "declin-societal",
	"excerpt": "La France retient son souffle.",
	"content": "<p>Drame national.</p>",
	"image_prompt": "Press photo of empty mustard shelves"
}`

	generation, err := parseArticle(reply)
	if err != nil {
		t.Fatal(err)
	}
	if generation.Declined {
		t.Fatal("expected generation, got declined")
	}

	article := generation.Article
	if article.Title != "Pénurie de moutarde : l'Élysée en alerte" {
		t.Errorf("expected quotes stripped from title, got %q", article.Title)
	}
	if article.Category != "declin-societal" {
		t.Errorf("unexpected category %q", article.Category)
	}
	if article.ContentHTML != "<p>Drame national.</p>" {
		t.Errorf("unexpected content %q", article.ContentHTML)
	}
	if article.ImagePrompt != "Press photo of empty mustard shelves" {
		t.Errorf("unexpected image prompt %q", article.ImagePrompt)
	}
}

func TestParseArticleSkip(t *testing.T) {
	generation, err := parseArticle(`{"title": "SKIP"}`)
	if err != nil {
		t.Fatal(err)
	}
	if !generation.Declined {
		t.Error("expected declined generation")
	}
	if generation.Article != nil {
		t.Error("declined generation should carry no article")
	}
}

func TestParseArticleUnknownCategoryFallsBack(t *testing.T) {
	generation, err := parseArticle(`{"title": "T", "category": "invented-by-model", "content": "<p>x</p>"}`)
	if err != nil {
		t.Fatal(err)
	}
	if generation.Article.Category != CategoryOrder[0] {
		t.Errorf("expected fallback category %q, got %q", CategoryOrder[0], generation.Article.Category)
	}
}

func TestParseArticleExcerptFallback(t *testing.T) {
	generation, err := parseArticle(`{"title": "T", "category": "chaos-politique", "content": "<p>Un drame <b>national</b> sans nom.</p>"}`)
	if err != nil {
		t.Fatal(err)
	}
	if generation.Article.Excerpt != "Un drame national sans nom." {
		t.Errorf("expected excerpt derived from content, got %q", generation.Article.Excerpt)
	}
}

func TestParseArticleErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json", "désolé, je ne peux pas"},
		{"invalid json", "{not json}"},
		{"empty title", `{"title": ""}`},
		{"missing content", `{"title": "T", "category": "chaos-politique"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseArticle(tt.reply); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "{\"title\": \"Un chat paralyse le métro, l'armée mobilisée\", \"category\": \"chaos-politique\", \"excerpt\": \"Paris retient son souffle.\", \"content\": \"<p>Drame.</p>\", \"image_prompt\": \"press photo\"}"}}],
			"usage": {"total_tokens": 1234, "cost": 0.0042}
		}`))
	}))
	defer server.Close()

	client := NewOpenRouterClient("test-key", "test/model")
	client.baseURL = server.URL

	generation, err := client.Generate(context.Background(), SourceItem{Title: "Un chat bloque le métro"}, Persona{Name: "Jean-Michel Apocalypse"})
	if err != nil {
		t.Fatal(err)
	}

	if generation.Declined {
		t.Fatal("unexpected declined generation")
	}
	if generation.ModelUsed != "test/model" {
		t.Errorf("unexpected model %q", generation.ModelUsed)
	}
	if generation.TokensUsed != 1234 {
		t.Errorf("unexpected token count %d", generation.TokensUsed)
	}
	if generation.CostEstimate != 0.0042 {
		t.Errorf("unexpected cost %f", generation.CostEstimate)
	}
	if !strings.Contains(generation.Article.Title, "chat") {
		t.Errorf("unexpected title %q", generation.Article.Title)
	}
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenRouterClient("test-key", "test/model")
	client.baseURL = server.URL

	if _, err := client.Generate(context.Background(), SourceItem{Title: "x"}, Persona{}); err == nil {
		t.Error("expected error for HTTP 429")
	}
}

func TestBuildUserPromptIncludesSourceFields(t *testing.T) {
	prompt := buildUserPrompt(SourceItem{Title: "Un chat bloque le métro", Description: "Un félin s'installe."})
	if !strings.Contains(prompt, "Un chat bloque le métro") {
		t.Error("prompt should contain the source title")
	}
	if !strings.Contains(prompt, "Un félin s'installe.") {
		t.Error("prompt should contain the source description")
	}
	for _, slug := range CategoryOrder {
		if !strings.Contains(prompt, slug) {
			t.Errorf("prompt should list category %q", slug)
		}
	}
}

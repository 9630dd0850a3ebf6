// Package generator turns an aggregated feed item into a satirical article
// via the OpenRouter chat API, and optionally illustrates it via Replicate.
package generator

// Categories maps article category slugs to display names. The first slug in
// CategoryOrder is the fallback when the model returns an unknown category.
var Categories = map[string]string{
	"chaos-politique":     "Chaos Politique",
	"declin-societal":     "Déclin Sociétal",
	"economie-en-ruine":   "Économie en Ruine",
	"sport-et-defaites":   "Sport et Défaites",
	"culture-en-peril":    "Culture en Péril",
	"science-inquietante": "Science Inquiétante",
}

var CategoryOrder = []string{
	"chaos-politique",
	"declin-societal",
	"economie-en-ruine",
	"sport-et-defaites",
	"culture-en-peril",
	"science-inquietante",
}

// GeneratedArticle is the parsed output of a successful content generation.
type GeneratedArticle struct {
	Title       string
	Category    string
	Excerpt     string
	ContentHTML string
	ImagePrompt string
}

// Generation is the outcome of one content generation call. Declined means
// the model judged the source item unfit for satire; Article is nil in that
// case and the caller records the attempt as declined rather than failed.
type Generation struct {
	Declined     bool
	Article      *GeneratedArticle
	ModelUsed    string
	TokensUsed   int
	CostEstimate float64
}

// SourceItem is the feed item handed to the generator. The prompts use the
// title and description; the link identifies the item for callers.
type SourceItem struct {
	Title       string
	Description string
	Link        string
}

// Persona carries the journalist fields the prompts need.
type Persona struct {
	Name  string
	Style string
}

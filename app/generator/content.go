package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// jsonBlock grabs the outermost braces so prose the model wraps around the
// payload does not break parsing.
var jsonBlock = regexp.MustCompile(`\{[\s\S]*\}`)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// OpenRouterClient generates article content through the OpenRouter chat
// completions API.
type OpenRouterClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewOpenRouterClient(apiKey, model string) *OpenRouterClient {
	return &OpenRouterClient{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    defaultOpenRouterURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	Usage            usageRequest  `json:"usage"`
}

type usageRequest struct {
	Include bool `json:"include"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int     `json:"total_tokens"`
		Cost        float64 `json:"cost"`
	} `json:"usage"`
}

type articlePayload struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Excerpt     string `json:"excerpt"`
	Content     string `json:"content"`
	ImagePrompt string `json:"image_prompt"`
}

// Generate asks the model to turn the feed item into a satirical article.
// A SKIP verdict from the model comes back as Declined rather than an error.
func (c *OpenRouterClient) Generate(ctx context.Context, item SourceItem, persona Persona) (*Generation, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt()},
			{Role: "user", Content: buildUserPrompt(item)},
		},
		Temperature:      0.92,
		MaxTokens:        2500,
		TopP:             0.95,
		FrequencyPenalty: 0.3,
		Usage:            usageRequest{Include: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://toutvamal.fr")
	req.Header.Set("X-Title", "ToutVaMal Article Generator")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat API error: HTTP %d: %s", resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat response has no choices")
	}

	generation, err := parseArticle(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	generation.ModelUsed = c.model
	generation.TokensUsed = parsed.Usage.TotalTokens
	generation.CostEstimate = parsed.Usage.Cost

	return generation, nil
}

// parseArticle extracts the article JSON from the model's reply and
// normalizes it. The model occasionally quotes the title or invents a
// category, both of which are repaired here instead of failing the run.
func parseArticle(reply string) (*Generation, error) {
	match := jsonBlock.FindString(reply)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var payload articlePayload
	if err := json.Unmarshal([]byte(match), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal article payload: %w", err)
	}
	if payload.Title == "" {
		return nil, fmt.Errorf("article payload has no title")
	}

	if payload.Title == "SKIP" {
		return &Generation{Declined: true}, nil
	}

	if payload.Category == "" || payload.Content == "" {
		return nil, fmt.Errorf("article payload missing category or content")
	}

	if _, ok := Categories[payload.Category]; !ok {
		payload.Category = CategoryOrder[0]
	}

	title := strings.Trim(payload.Title, `"'`)

	if payload.Excerpt == "" {
		plain := strings.TrimSpace(htmlTag.ReplaceAllString(payload.Content, ""))
		if len(plain) > 200 {
			plain = plain[:200]
		}
		payload.Excerpt = plain
	}

	return &Generation{
		Article: &GeneratedArticle{
			Title:       title,
			Category:    payload.Category,
			Excerpt:     payload.Excerpt,
			ContentHTML: payload.Content,
			ImagePrompt: payload.ImagePrompt,
		},
	}, nil
}

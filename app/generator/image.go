package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultReplicateURL = "https://api.replicate.com/v1"

	// promptPrefix steers every image toward the house press-photo look.
	promptPrefix = "Professional photojournalism style, dramatic lighting, realistic, high quality news photograph: "
)

// ReplicateClient generates article illustrations through the Replicate
// predictions API and stores them on disk.
type ReplicateClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	imagesDir  string

	PollInterval    time.Duration
	MaxPollAttempts int
}

func NewReplicateClient(apiKey, model, imagesDir string) *ReplicateClient {
	return &ReplicateClient{
		httpClient:      &http.Client{Timeout: 120 * time.Second},
		baseURL:         defaultReplicateURL,
		apiKey:          apiKey,
		model:           model,
		imagesDir:       imagesDir,
		PollInterval:    2 * time.Second,
		MaxPollAttempts: 60,
	}
}

type predictionRequest struct {
	Version string          `json:"version"`
	Model   string          `json:"model"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Prompt       string `json:"prompt"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	OutputFormat string `json:"output_format"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// GenerateImage runs a prediction for the prompt, waits for it to finish and
// saves the resulting image under the images directory. The returned path is
// relative to the directory, suitable for storing on the article row.
func (c *ReplicateClient) GenerateImage(ctx context.Context, prompt, slug string) (string, error) {
	started, err := c.startPrediction(ctx, promptPrefix+prompt)
	if err != nil {
		return "", err
	}

	output, err := c.waitForResult(ctx, started.ID)
	if err != nil {
		return "", err
	}

	return c.saveImage(ctx, output, slug)
}

func (c *ReplicateClient) startPrediction(ctx context.Context, prompt string) (*prediction, error) {
	body, err := json.Marshal(predictionRequest{
		Version: "latest",
		Model:   c.model,
		Input: predictionInput{
			Prompt:       prompt,
			Width:        1280,
			Height:       720,
			OutputFormat: "webp",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prediction API error: HTTP %d: %s", resp.StatusCode, respBody)
	}

	var p prediction
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction: %w", err)
	}

	return &p, nil
}

// waitForResult polls the prediction until it reaches a terminal status or
// the attempt budget runs out.
func (c *ReplicateClient) waitForResult(ctx context.Context, id string) (string, error) {
	for attempt := 0; attempt < c.MaxPollAttempts; attempt++ {
		p, err := c.getPrediction(ctx, id)
		if err != nil {
			return "", err
		}

		switch p.Status {
		case "succeeded":
			return firstOutputURL(p.Output)
		case "failed", "canceled":
			if p.Error != "" {
				return "", fmt.Errorf("prediction %s: %s", p.Status, p.Error)
			}
			return "", fmt.Errorf("prediction %s", p.Status)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}

	return "", fmt.Errorf("prediction timed out after %d attempts", c.MaxPollAttempts)
}

func (c *ReplicateClient) getPrediction(ctx context.Context, id string) (*prediction, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read poll response: %w", err)
	}

	var p prediction
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal poll response: %w", err)
	}

	return &p, nil
}

// firstOutputURL handles both output shapes Replicate models use: a single
// URL string or a list of them.
func firstOutputURL(output json.RawMessage) (string, error) {
	if len(output) == 0 {
		return "", fmt.Errorf("prediction succeeded without output")
	}

	var single string
	if err := json.Unmarshal(output, &single); err == nil {
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(output, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}

	return "", fmt.Errorf("unexpected prediction output shape")
}

func (c *ReplicateClient) saveImage(ctx context.Context, imageURL, slug string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create image download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download error: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}

	if err := os.MkdirAll(c.imagesDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%d.webp", slug, time.Now().Unix())
	if err := os.WriteFile(filepath.Join(c.imagesDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return filename, nil
}

// Package gemini wraps Google's Gemini API for the structured-JSON calls the
// pipeline makes: activity enrichment, trendiness assessment, and event page
// interpretation. Every call supplies a response schema so the model returns
// machine-parseable JSON.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash-lite"

// Client calls the Gemini API with structured response schemas.
type Client struct {
	cache      ResponseCache
	logger     Logger
	apiKey     string
	model      string
	gcpProject string
}

// NewClient creates a Gemini client. With an API key it uses the Gemini API
// backend; without one it falls back to Vertex AI with Application Default
// Credentials. A nil cache disables response memoization.
func NewClient(apiKey, model, gcpProject string, cache ResponseCache, logger Logger) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		gcpProject: gcpProject,
		cache:      cache,
		logger:     logger,
	}
}

// Generate sends a prompt with a response schema and unmarshals the model's
// JSON reply into out. Identical prompt+schema pairs are served from cache.
func (c *Client) Generate(ctx context.Context, prompt string, schema *genai.Schema, out any) error {
	cacheKey := fmt.Sprintf("genai:%s", c.model)

	if c.cache != nil {
		if entry, found := c.cache.Lookup(cacheKey, []byte(prompt)); found {
			if err := json.Unmarshal(entry.Data, out); err == nil {
				c.logger.Debug("gemini cache hit", "bytes", len(entry.Data))
				return nil
			}
			c.logger.Debug("cached gemini response unparseable, fetching fresh")
		}
	}

	client, err := c.newBackendClient(ctx)
	if err != nil {
		return err
	}

	modelName := strings.TrimPrefix(c.model, "models/")
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	temperature := float32(0.1)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  2500,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := c.generateWithRetry(ctx, client, modelName, contents, config)
	if err != nil {
		return err
	}

	text, err := responseText(resp)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		jsonText, extractErr := extractJSON(text)
		if extractErr != nil {
			c.logger.Warn("unparseable gemini response", "parse_error", err, "response_text", text)
			return fmt.Errorf("parsing gemini response: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonText), out); err != nil {
			return fmt.Errorf("parsing extracted gemini JSON: %w", err)
		}
		text = jsonText
	}

	if c.cache != nil {
		c.cache.Store(cacheKey, []byte(prompt), []byte(text), "")
	}
	return nil
}

func (c *Client) newBackendClient(ctx context.Context) (*genai.Client, error) {
	var config *genai.ClientConfig
	if c.apiKey != "" {
		config = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  c.apiKey,
		}
	} else {
		config = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  c.projectID(),
			Location: "us-central1",
		}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return client, nil
}

func (c *Client) projectID() string {
	if c.gcpProject != "" {
		return c.gcpProject
	}
	if id := os.Getenv("GCP_PROJECT"); id != "" {
		return id
	}
	return os.Getenv("GOOGLE_CLOUD_PROJECT")
}

func (c *Client) generateWithRetry(ctx context.Context, client *genai.Client, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond
	jitter := 50 * time.Millisecond

	for attempt := 0; ; attempt++ {
		resp, err := client.Models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			return resp, nil
		}
		if attempt == maxRetries {
			return nil, fmt.Errorf("gemini call failed after %d attempts: %w", maxRetries+1, err)
		}
		if !isTransient(err) {
			return nil, fmt.Errorf("gemini call failed: %w", err)
		}

		delay := baseDelay*time.Duration(1<<uint(attempt)) + time.Duration(rand.Int64N(int64(jitter)))
		c.logger.Debug("retrying gemini call", "attempt", attempt+1, "delay_ms", delay.Milliseconds(), "error", err.Error())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"rate limit", "quota", "timeout", "deadline", "unavailable",
		"internal server error", "502", "503", "504",
	} {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in gemini response")
	}
	text := candidate.Content.Parts[0].Text
	if text == "" {
		return "", errors.New("empty text in gemini response")
	}
	return text, nil
}

// extractJSON pulls a JSON document out of a reply that wrapped it in prose
// or a markdown code fence.
func extractJSON(text string) (string, error) {
	if isValidJSON(text) {
		return text, nil
	}

	if start := strings.Index(text, "```json"); start != -1 {
		start += len("```json")
		if end := strings.Index(text[start:], "```"); end != -1 {
			if candidate := strings.TrimSpace(text[start : start+end]); isValidJSON(candidate) {
				return candidate, nil
			}
		}
	}
	if start := strings.Index(text, "```"); start != -1 {
		start += len("```")
		if end := strings.Index(text[start:], "```"); end != -1 {
			if candidate := strings.TrimSpace(text[start : start+end]); isValidJSON(candidate) {
				return candidate, nil
			}
		}
	}
	if start := strings.IndexAny(text, "{["); start != -1 {
		if end := strings.LastIndexAny(text, "}]"); end > start {
			if candidate := strings.TrimSpace(text[start : end+1]); isValidJSON(candidate) {
				return candidate, nil
			}
		}
	}

	return "", errors.New("no valid JSON found in response")
}

func isValidJSON(s string) bool {
	return json.Valid([]byte(s))
}

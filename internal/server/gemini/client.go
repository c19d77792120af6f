// Package gemini wraps the Google Gemini API for JSON-mode prompts.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/logging"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Config struct {
	APIKey      string
	ModelName   string
	Temperature float32
	MaxRetries  int
	RetryDelay  time.Duration
}

// Client sends prompts to a single model configured with a fixed system
// instruction and decodes the JSON reply.
type Client struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	logger     logging.Logger
	modelName  string
	maxRetries int
	retryDelay time.Duration
}

var ErrEmptyResponse = errors.New("empty response from gemini")

// NewClient creates a Gemini client whose model always answers in JSON.
func NewClient(ctx context.Context, cfg Config, systemInstruction string, logger logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-2.5-flash"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	if systemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemInstruction)},
		}
	}
	model.ResponseMIMEType = "application/json"
	model.GenerationConfig.Temperature = genai.Ptr(cfg.Temperature)

	logger.Info(ctx, "gemini client initialized", "model", cfg.ModelName, "max_retries", cfg.MaxRetries)

	return &Client{
		client:     client,
		model:      model,
		logger:     logger,
		modelName:  cfg.ModelName,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// GenerateJSON sends prompt and unmarshals the reply into out. Transient
// failures are retried until the attempts run out or ctx is done.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn(ctx, "retrying gemini request", "attempt", attempt+1, "max_retries", c.maxRetries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("gemini API error: %w", err)
			c.logger.Error(ctx, "gemini API error", "error", err, "attempt", attempt+1)
			continue
		}

		text, err := ExtractText(resp)
		if err != nil {
			lastErr = err
			c.logger.Error(ctx, "unusable gemini response", "error", err, "attempt", attempt+1)
			continue
		}

		if err := DecodeJSON(text, out); err != nil {
			lastErr = err
			c.logger.Error(ctx, "failed to parse gemini response", "error", err, "attempt", attempt+1)
			continue
		}

		c.logger.Debug(ctx, "gemini response decoded", "model", c.modelName, "attempt", attempt+1)
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

// ExtractText returns the text of the first part of the first candidate.
func ExtractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text, ok := cand.Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from gemini: %T", cand.Content.Parts[0])
	}
	return string(text), nil
}

// DecodeJSON unmarshals s into out, tolerating a surrounding markdown code fence.
func DecodeJSON(s string, out any) error {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return fmt.Errorf("failed to parse gemini response: %w", err)
	}
	return nil
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/redact"
	"google.golang.org/genai"
)

// temperature keeps replies close to the requested format.
const temperature = float32(0.3)

// contentGenerator is the subset of *genai.Models used by Client.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client implements oracle.Client using the Gemini API.
type Client struct {
	logger    *slog.Logger
	models    contentGenerator
	model     string
	retries   int
	baseDelay time.Duration
	rng       *rand.Rand
}

var _ oracle.Client = (*Client)(nil)

// NewClient creates a Gemini-backed oracle client.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", oracle.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", oracle.ErrInvalidConfig)
	}

	genClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", oracle.ErrInvalidConfig, err)
	}

	return newClient(logger, genClient.Models, cfg), nil
}

func newClient(logger *slog.Logger, models contentGenerator, cfg config.LLMConfig) *Client {
	c := &Client{
		logger:    logger.With(slog.String("component", "gemini_client")),
		models:    models,
		model:     cfg.ModelName,
		retries:   cfg.MaxRetries,
		baseDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if c.retries < 0 {
		c.logger.Warn("invalid max retries value, using default", "max_retries", 3)
		c.retries = 3
	}
	if c.baseDelay < time.Second {
		c.logger.Warn("invalid retry delay value, using default", "base_delay_seconds", 2)
		c.baseDelay = 2 * time.Second
	}
	return c
}

// Complete sends prompt to the model and returns the text of the first
// candidate. Transient errors are retried up to the configured limit with
// exponential backoff; content blocked by safety filters and empty responses
// are returned at once.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", oracle.ErrEmptyPrompt
	}

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(temperature)}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		c.logger.DebugContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", c.retries+1)

		resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
		if err == nil {
			text, perr := responseText(resp)
			if perr != nil {
				c.logger.WarnContext(ctx, "unusable Gemini response, not retrying",
					"attempt", attemptNum,
					"error", perr)
				return "", perr
			}
			return text, nil
		}

		c.logger.WarnContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", redact.Error(err))

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", oracle.ErrTransientFailure, ctx.Err())
		}
		if !isTransient(err) {
			return "", fmt.Errorf("%w: %v", oracle.ErrInvalidResponse, err)
		}
		if attempt >= c.retries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				oracle.ErrTransientFailure, c.retries, err)
		}

		delay := c.backoff(attempt)
		c.logger.DebugContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", oracle.ErrTransientFailure, ctx.Err())
		}
	}
}

// backoff returns baseDelay * 2^attempt scaled by a jitter factor in [0.5, 1).
func (c *Client) backoff(attempt int) time.Duration {
	backoff := float64(c.baseDelay) * math.Pow(2, float64(attempt))
	jitter := 0.5 + c.rng.Float64()*0.5
	return time.Duration(backoff * jitter)
}

// responseText extracts the first candidate's text, skipping thought parts.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", oracle.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", oracle.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", oracle.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", oracle.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text in response", oracle.ErrInvalidResponse)
	}
	return text, nil
}

// isTransient reports whether a failed call is worth retrying. API errors
// are transient only for rate limiting and server-side failures; anything
// that is not an API error (network, decoding) is treated as transient.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/forkcast/forkcast/pkg/models"
)

// Gemini is the default completion client, backed by the Google
// generative language API. Safe for concurrent use.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini dials the generative language API. The connection is lazy;
// a bad key surfaces on the first call, not here.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

// Kind returns "gemini".
func (g *Gemini) Kind() string { return "gemini" }

// ModelName returns the configured completion model.
func (g *Gemini) ModelName() string { return g.model }

// Complete sends one prompt and returns the concatenated text parts of
// the first candidate.
func (g *Gemini) Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = g.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxOutputTokens))
	}
	if opts.ResponseFormat == models.FormatJSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty candidates", ErrUnavailable)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("%w: candidate had no text parts", ErrUnavailable)
	}
	return out, nil
}

// HealthCheck issues a one-token completion to verify credentials.
func (g *Gemini) HealthCheck(ctx context.Context) error {
	opts := models.DefaultCompletionOptions()
	opts.MaxOutputTokens = 8
	opts.Timeout = 10 * time.Second
	_, err := g.Complete(ctx, "Reply with the single word OK.", opts)
	return err
}

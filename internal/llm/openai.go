package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forkcast/forkcast/pkg/models"
)

// systemPrompt frames every OpenAI chat completion. Gemini takes the
// whole prompt as a single text part instead.
const systemPrompt = "You are a culinary assistant. Answer precisely in the requested format with no extra commentary."

// OpenAI is the alternative completion client. Safe for concurrent use.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI builds a chat-completions client.
func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAI {
	return &OpenAI{client: openai.NewClient(apiKey), model: model, timeout: timeout}
}

// Kind returns "openai".
func (o *OpenAI) Kind() string { return "openai" }

// ModelName returns the configured completion model.
func (o *OpenAI) ModelName() string { return o.model }

// Complete sends one prompt through the chat completions API.
func (o *OpenAI) Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = o.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}
	if opts.ResponseFormat == models.FormatJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrUnavailable)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("%w: choice had no content", ErrUnavailable)
	}
	return out, nil
}

// HealthCheck issues a one-token completion to verify credentials.
func (o *OpenAI) HealthCheck(ctx context.Context) error {
	opts := models.DefaultCompletionOptions()
	opts.MaxOutputTokens = 8
	opts.Timeout = 10 * time.Second
	_, err := o.Complete(ctx, "Reply with the single word OK.", opts)
	return err
}

package classification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	id "taxrelief/pkg/domain"
)

const labelSystemPrompt = "You classify R&D expense descriptions into tax deduction categories. " +
	"Reply with exactly one category identifier from the provided list and nothing else."

// OpenAILabeler asks a chat model for a category label. Every call is bounded
// by a timeout; exceeding it reads the same as the collaborator being down.
type OpenAILabeler struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAILabeler builds a labeler. model defaults to gpt-4o-mini.
func NewOpenAILabeler(apiKey, model string, timeout time.Duration) (*OpenAILabeler, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &OpenAILabeler{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}, nil
}

func (l *OpenAILabeler) Label(ctx context.Context, description string, categories []id.DeductionCategory) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}
	prompt := fmt.Sprintf("Categories: %s\n\nExpense description: %s", strings.Join(names, ", "), description)

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: labelSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   16,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("label request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("label request: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

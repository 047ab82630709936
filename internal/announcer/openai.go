package announcer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultModel = "gpt-4o-mini"

type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string // any chat-completions compatible endpoint
	HTTPClient *http.Client
}

// OpenAI asks a chat-completions model for a hype line.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// at most one request per event
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

func (a *OpenAI) Announce(ctx context.Context, kind Kind, itemName string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt(kind, itemName)),
		},
		Temperature: openai.Float(0.9),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return EmptyReply, nil
	}
	return text, nil
}

func prompt(kind Kind, itemName string) string {
	return fmt.Sprintf(`You announce a claw machine in a designer-toy shop.
Keep it sleek, trendy and aimed at collectors.
Event: %s.
Target figure: %q.
Reply with one short, cool line in English with a little hype, under 12 words.`, kind, itemName)
}

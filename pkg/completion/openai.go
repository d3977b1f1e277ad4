package completion

import (
	"context"
	"net/http"
	"strings"

	"github.com/amaumene/cinesift/pkg/errors"
)

const openAIMaxTokens = 800

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// OpenAI talks to the chat completions endpoint
type OpenAI struct {
	transport
}

func NewOpenAI(config *Config) *OpenAI {
	return &OpenAI{transport: newTransport(ProviderOpenAI, config, DefaultOpenAIModel, DefaultOpenAIBaseURL)}
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	if !o.IsConfigured() {
		return "", errors.NotConfigured(ProviderOpenAI)
	}

	body := openAIRequest{
		Model:     o.model,
		Messages:  []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens: openAIMaxTokens,
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+o.apiKey)

	var resp openAIResponse
	if err := o.post(ctx, o.baseURL+"/v1/chat/completions", header, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", emptyReply(ProviderOpenAI)
	}
	return resp.Choices[0].Message.Content, nil
}

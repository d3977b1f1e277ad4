package completion

import (
	"context"
	"net/url"
	"strings"

	"github.com/amaumene/cinesift/pkg/errors"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Gemini talks to the Generative Language generateContent endpoint
type Gemini struct {
	transport
}

func NewGemini(config *Config) *Gemini {
	return &Gemini{transport: newTransport(ProviderGemini, config, DefaultGeminiModel, DefaultGeminiBaseURL)}
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	if !g.IsConfigured() {
		return "", errors.NotConfigured(ProviderGemini)
	}

	endpoint := g.baseURL + "/v1beta/models/" + url.PathEscape(g.model) + ":generateContent?key=" + url.QueryEscape(g.apiKey)
	body := geminiRequest{Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}}

	var resp geminiResponse
	if err := g.post(ctx, endpoint, nil, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", &errors.APIError{Service: ProviderGemini, StatusCode: 200, Message: "prompt blocked: " + resp.PromptFeedback.BlockReason}
		}
		return "", emptyReply(ProviderGemini)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", emptyReply(ProviderGemini)
	}
	return text.String(), nil
}

// Package completion sends single-shot prompts to a hosted language model.
//
// A Client is stateless apart from its credential: callers that need
// conversation history fold it into the prompt themselves. A client built
// without an API key refuses every call with a not-configured error before
// any network attempt.
package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amaumene/cinesift/internal/jsonapi"
	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/metrics"
	log "github.com/sirupsen/logrus"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com"

	defaultTimeout = 60 * time.Second
)

// Client completes a prompt into free text
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Provider names the upstream, for logs and status reporting
	Provider() string
	IsConfigured() bool
}

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Client   *http.Client
	Metrics  *metrics.Metrics
}

// New builds the client for config.Provider; an empty provider means Gemini.
func New(config *Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "", ProviderGemini:
		return NewGemini(config), nil
	case ProviderOpenAI:
		return NewOpenAI(config), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q: %w", config.Provider, errors.ErrInvalidInput)
	}
}

// transport holds what both providers share: credential, endpoint and the
// HTTP round trip with error mapping.
type transport struct {
	service    string
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

func newTransport(service string, config *Config, defaultModel, defaultBaseURL string) transport {
	httpClient := config.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return transport{
		service:    service,
		apiKey:     strings.TrimSpace(config.APIKey),
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		metrics:    config.Metrics,
	}
}

func (t *transport) Provider() string {
	return t.service
}

func (t *transport) IsConfigured() bool {
	return t.apiKey != ""
}

// post sends body as JSON to url and decodes the reply into v
func (t *transport) post(ctx context.Context, url string, header http.Header, body, v interface{}) error {
	payload, err := jsonapi.EncodeRequest(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.metrics.ObserveUpstream(t.service, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s request: %w: %v", t.service, errors.ErrNetworkOperation, t.redact(err.Error()))
	}
	defer resp.Body.Close()
	t.metrics.ObserveUpstream(t.service, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithFields(log.Fields{
			"provider": t.service,
			"status":   resp.StatusCode,
		}).Debug("Completion request failed")
		return &errors.APIError{
			Service:    t.service,
			StatusCode: resp.StatusCode,
			Message:    jsonapi.ErrorMessage(resp.Body),
		}
	}

	if err := jsonapi.DecodeResponse(resp.Body, v); err != nil {
		var upstream *jsonapi.Error
		if errors.As(err, &upstream) {
			return &errors.APIError{Service: t.service, StatusCode: resp.StatusCode, Message: upstream.Message}
		}
		return fmt.Errorf("decoding %s response: %w", t.service, err)
	}
	return nil
}

func (t *transport) redact(msg string) string {
	if t.apiKey == "" {
		return msg
	}
	return strings.ReplaceAll(msg, t.apiKey, "REDACTED")
}

func emptyReply(service string) error {
	return fmt.Errorf("%s returned no text: %w", service, errors.ErrUpstream)
}

// Package tmdb is a read-only client for The Movie Database API.
//
// The client performs no retries: a transport error or a non-2xx response
// surfaces as a single failure and callers decide whether to try again.
// A client built without an API key refuses every call with a
// not-configured error before touching the network.
package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/amaumene/cinesift/internal/jsonapi"
	"github.com/amaumene/cinesift/internal/querystring"
	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/metrics"
	log "github.com/sirupsen/logrus"
)

const (
	serviceName          = "tmdb"
	DefaultBaseURL       = "https://api.themoviedb.org/3"
	DefaultImageBaseURL  = "https://image.tmdb.org/t/p"
	defaultTimeout       = 15 * time.Second
	defaultRatePerSecond = 40
)

type Config struct {
	APIKey        string
	BaseURL       string
	ImageBaseURL  string
	Language      string
	RatePerSecond float64
	Client        *http.Client
	Metrics       *metrics.Metrics
}

type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
	limiter      *rate.Limiter
	metrics      *metrics.Metrics
}

func NewClient(config *Config) *Client {
	httpClient := config.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	ratePerSecond := config.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = defaultRatePerSecond
	}
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		apiKey:       strings.TrimSpace(config.APIKey),
		baseURL:      strings.TrimSuffix(firstNonEmpty(config.BaseURL, DefaultBaseURL), "/"),
		imageBaseURL: strings.TrimSuffix(firstNonEmpty(config.ImageBaseURL, DefaultImageBaseURL), "/"),
		language:     config.Language,
		httpClient:   httpClient,
		limiter:      rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		metrics:      config.Metrics,
	}
}

// IsConfigured reports whether the client holds an API key
func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

type authParams struct {
	APIKey   string `url:"api_key"`
	Language string `url:"language,omitempty"`
}

// get issues one GET against endpoint and decodes the JSON body into v
func (c *Client) get(ctx context.Context, endpoint string, params interface{}, v interface{}) error {
	if !c.IsConfigured() {
		return errors.NotConfigured(serviceName)
	}

	query, err := querystring.Values(authParams{APIKey: c.apiKey, Language: c.language})
	if err != nil {
		return err
	}
	extra, err := querystring.Values(params)
	if err != nil {
		return fmt.Errorf("encoding %s parameters: %w", endpoint, err)
	}
	for k, vs := range extra {
		query[k] = vs
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for tmdb rate limiter: %w", err)
	}

	reqURL := c.baseURL + endpoint + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(serviceName, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("tmdb request %s: %w: %v", endpoint, errors.ErrNetworkOperation, redact(err, c.apiKey))
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(serviceName, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &errors.APIError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    jsonapi.ErrorMessage(resp.Body),
		}
		log.WithFields(log.Fields{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
		}).Debug("TMDB request failed")
		return apiErr
	}

	if err := jsonapi.DecodeResponse(resp.Body, v); err != nil {
		return fmt.Errorf("decoding tmdb %s: %w", endpoint, err)
	}
	return nil
}

// redact keeps the API key out of errors that embed the request URL
func redact(err error, secret string) string {
	msg := err.Error()
	if secret == "" {
		return msg
	}
	return strings.ReplaceAll(msg, url.QueryEscape(secret), "REDACTED")
}

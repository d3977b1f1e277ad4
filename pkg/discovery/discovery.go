// Package discovery resolves a free-text description into concrete movies
// and TV shows.
//
// A completion model proposes candidate titles for the description, each
// candidate is looked up concurrently with a multi search, and the matches
// are reconciled into one ordered, deduplicated list. A failed lookup only
// costs its own candidate; a failed completion call fails the search.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amaumene/cinesift/pkg/completion"
	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/metrics"
	"github.com/amaumene/cinesift/pkg/models"
	log "github.com/sirupsen/logrus"
)

const serviceName = "discovery"

// Service runs description searches
type Service struct {
	completion completion.Client
	resolver   *Resolver
	metrics    *metrics.Metrics
}

func NewService(client completion.Client, resolver *Resolver, m *metrics.Metrics) *Service {
	return &Service{
		completion: client,
		resolver:   resolver,
		metrics:    m,
	}
}

// BuildSearchPrompt asks for MaxCandidates titles, one per line and nothing
// else, which is the shape ExtractTitles expects.
func BuildSearchPrompt(description string) string {
	return fmt.Sprintf("Based on this description: %q, suggest %d specific movie or TV show titles that match. "+
		"Consider the mood, genre, themes, time period, or any other details mentioned. "+
		"Return ONLY the titles, one per line, without numbering, explanations, or additional text. "+
		"Focus on well-known titles that are likely in the TMDB database.",
		description, MaxCandidates)
}

// ResolveByDescription runs one description search.
//
// An empty query fails with ErrInvalidInput before any request is made. A
// completion failure is returned as is. When nothing matched the result has
// OutcomeNoMatches and a nil error, unless every lookup failed for lack of a
// metadata key, in which case ErrNotConfigured is returned instead.
func (s *Service) ResolveByDescription(ctx context.Context, query string) (*models.Resolution, error) {
	start := time.Now()
	res, err := s.resolve(ctx, query)
	s.metrics.ObserveDiscovery(string(Classify(res, err)), time.Since(start))
	return res, err
}

func (s *Service) resolve(ctx context.Context, query string) (*models.Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewServiceError(serviceName, "ResolveByDescription",
			fmt.Errorf("description is empty: %w", errors.ErrInvalidInput))
	}

	reply, err := s.completion.Complete(ctx, BuildSearchPrompt(query))
	if err != nil {
		log.WithError(err).WithField("provider", s.completion.Provider()).Error("Failed to get title suggestions")
		return nil, errors.NewServiceError(serviceName, "ResolveByDescription", err).
			WithContext("query", query)
	}

	titles := ExtractTitles(reply)
	lookups := s.resolver.Lookup(ctx, titles)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	slots := make([]*models.MediaItem, len(lookups))
	for i := range lookups {
		slots[i] = lookups[i].Item
	}

	res := &models.Resolution{
		Query:      query,
		Candidates: titles,
		Items:      Reconcile(slots),
		Outcome:    models.OutcomeFound,
	}
	if res.Empty() {
		if allNotConfigured(lookups) {
			return nil, errors.NewServiceError(serviceName, "ResolveByDescription", lookups[0].Err)
		}
		res.Outcome = models.OutcomeNoMatches
	}

	log.WithFields(log.Fields{
		"query":      query,
		"candidates": len(titles),
		"items":      len(res.Items),
	}).Info("Resolved description search")
	return res, nil
}

// Condition is what a caller should tell the user about a search
type Condition string

const (
	ConditionFound     Condition = "found"
	ConditionNoMatches Condition = "no_matches"
	ConditionConfig    Condition = "config"
	ConditionFailed    Condition = "failed"
	ConditionInvalid   Condition = "invalid"
	ConditionStale     Condition = "stale"
)

// Classify maps the result of ResolveByDescription to a Condition
func Classify(res *models.Resolution, err error) Condition {
	switch {
	case err == nil && res != nil && !res.Empty():
		return ConditionFound
	case err == nil:
		return ConditionNoMatches
	case errors.IsInvalidInput(err):
		return ConditionInvalid
	case errors.IsNotConfigured(err):
		return ConditionConfig
	case errors.IsStale(err):
		return ConditionStale
	default:
		return ConditionFailed
	}
}

// Message is the user-facing text for a condition
func (c Condition) Message() string {
	switch c {
	case ConditionFound:
		return "Found matching titles"
	case ConditionNoMatches:
		return "No movies found. Try a different description."
	case ConditionConfig:
		return "Search is not configured. Set the metadata and completion API keys."
	case ConditionInvalid:
		return "Describe what you want to watch."
	case ConditionStale:
		return "A newer search replaced this one."
	default:
		return "Search failed. Please try again."
	}
}

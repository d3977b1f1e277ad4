package discovery

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/metrics"
	"github.com/amaumene/cinesift/pkg/models"
	log "github.com/sirupsen/logrus"
)

// MultiSearcher is the metadata lookup a Resolver needs; *tmdb.Client
// satisfies it.
type MultiSearcher interface {
	SearchMulti(ctx context.Context, query string, page int) (*models.Page, error)
}

// Lookup is the settled lookup of one candidate. Item is nil when the
// candidate did not resolve; Err says why when the lookup failed.
type Lookup struct {
	Title string
	Item  *models.MediaItem
	Err   error
}

// Resolver maps candidate titles to media items, one multi search each
type Resolver struct {
	searcher      MultiSearcher
	maxConcurrent int
	metrics       *metrics.Metrics
}

// NewResolver creates a resolver. maxConcurrent <= 0 runs every lookup of
// a batch at once.
func NewResolver(searcher MultiSearcher, maxConcurrent int, m *metrics.Metrics) *Resolver {
	return &Resolver{
		searcher:      searcher,
		maxConcurrent: maxConcurrent,
		metrics:       m,
	}
}

// ResolveCandidates returns one slot per title, nil where nothing matched or
// the lookup failed.
func (r *Resolver) ResolveCandidates(ctx context.Context, titles []string) []*models.MediaItem {
	lookups := r.Lookup(ctx, titles)
	slots := make([]*models.MediaItem, len(lookups))
	for i := range lookups {
		slots[i] = lookups[i].Item
	}
	return slots
}

// Lookup searches every title concurrently and waits for the whole batch.
// A failed lookup never affects the others.
func (r *Resolver) Lookup(ctx context.Context, titles []string) []Lookup {
	lookups := make([]Lookup, len(titles))
	if len(titles) == 0 {
		return lookups
	}

	width := len(titles)
	if r.maxConcurrent > 0 && r.maxConcurrent < width {
		width = r.maxConcurrent
	}

	start := time.Now()
	workerPool := pool.New().WithMaxGoroutines(width)
	for i, title := range titles {
		i, title := i, title
		// each goroutine writes only its own slot
		workerPool.Go(func() {
			lookups[i] = r.lookupOne(ctx, title)
		})
	}
	workerPool.Wait()

	matched := 0
	for i := range lookups {
		if lookups[i].Item != nil {
			matched++
		}
	}
	log.WithFields(log.Fields{
		"candidates": len(titles),
		"matched":    matched,
		"duration":   time.Since(start),
	}).Debug("Resolved candidate titles")

	return lookups
}

func (r *Resolver) lookupOne(ctx context.Context, title string) Lookup {
	lookup := Lookup{Title: title}

	page, err := r.searcher.SearchMulti(ctx, title, 1)
	if err != nil {
		lookup.Err = err
		r.metrics.ObserveLookup(metrics.LookupFailed)
		entry := log.WithError(err).WithField("title", title)
		if errors.IsNotConfigured(err) {
			entry.Debug("Candidate lookup skipped")
		} else {
			entry.Warn("Candidate lookup failed")
		}
		return lookup
	}

	// first movie or show wins; people are skipped
	for i := range page.Items {
		if page.Items[i].Kind.IsTitle() {
			item := page.Items[i]
			lookup.Item = &item
			break
		}
	}

	if lookup.Item == nil {
		r.metrics.ObserveLookup(metrics.LookupUnmatched)
		log.WithField("title", title).Debug("Candidate title has no match")
	} else {
		r.metrics.ObserveLookup(metrics.LookupMatched)
	}
	return lookup
}

// allNotConfigured reports whether every lookup failed for lack of credentials
func allNotConfigured(lookups []Lookup) bool {
	if len(lookups) == 0 {
		return false
	}
	for i := range lookups {
		if !errors.IsNotConfigured(lookups[i].Err) {
			return false
		}
	}
	return true
}

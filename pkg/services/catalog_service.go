package services

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc/pool"

	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/models"
	log "github.com/sirupsen/logrus"
)

const (
	catalogService    = "catalog"
	defaultRetryDelay = 250 * time.Millisecond
)

// MetadataClient is the read-only metadata API the catalog browses;
// *tmdb.Client implements it.
type MetadataClient interface {
	IsConfigured() bool
	SearchMovies(ctx context.Context, query string, page int) (*models.Page, error)
	SearchTV(ctx context.Context, query string, page int) (*models.Page, error)
	SearchMulti(ctx context.Context, query string, page int) (*models.Page, error)
	Trending(ctx context.Context, kind models.MediaKind, window string) (*models.Page, error)
	Movies(ctx context.Context, list string, page int) (*models.Page, error)
	TV(ctx context.Context, list string, page int) (*models.Page, error)
	Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error)
	MovieDetails(ctx context.Context, id int64) (*models.MovieDetails, error)
	TVDetails(ctx context.Context, id int64) (*models.TVDetails, error)
	Credits(ctx context.Context, id int64, kind models.MediaKind) (*models.Credits, error)
	Videos(ctx context.Context, id int64, kind models.MediaKind) ([]models.Video, error)
	Recommendations(ctx context.Context, id int64, kind models.MediaKind, page int) (*models.Page, error)
	Similar(ctx context.Context, id int64, kind models.MediaKind, page int) (*models.Page, error)
	ImageURL(path, size string) string
}

// CatalogService backs the browsing pages: listings, search and details
type CatalogService struct {
	client     MetadataClient
	attempts   uint
	retryDelay time.Duration
}

// NewCatalogService creates a catalog. attempts is the total number of tries
// for one lookup; 1 disables retrying.
func NewCatalogService(client MetadataClient, attempts int) *CatalogService {
	if attempts < 1 {
		attempts = 1
	}
	return &CatalogService{
		client:     client,
		attempts:   uint(attempts),
		retryDelay: defaultRetryDelay,
	}
}

// Details is everything a detail page shows for one title. Exactly one of
// Movie and TV is set. Related collections are empty, never nil, when their
// lookups fail.
type Details struct {
	Kind            models.MediaKind     `json:"kind"`
	Movie           *models.MovieDetails `json:"movie,omitempty"`
	TV              *models.TVDetails    `json:"tv,omitempty"`
	Cast            []models.CastMember  `json:"cast"`
	Directors       []models.CrewMember  `json:"directors"`
	Videos          []models.Video       `json:"videos"`
	Trailer         *models.Video        `json:"trailer,omitempty"`
	Recommendations []models.MediaItem   `json:"recommendations"`
	PosterURL       string               `json:"poster_url"`
	BackdropURL     string               `json:"backdrop_url"`
}

// Item returns the summary record of the title
func (d *Details) Item() *models.MediaItem {
	if d.Movie != nil {
		return &d.Movie.MediaItem
	}
	if d.TV != nil {
		return &d.TV.MediaItem
	}
	return nil
}

// GenreNames returns the genres of the title by name
func (d *Details) GenreNames() []string {
	if d.Movie != nil {
		return models.GenreNames(d.Movie.Genres)
	}
	if d.TV != nil {
		return models.GenreNames(d.TV.Genres)
	}
	return nil
}

// retry runs fn up to s.attempts times, retrying only transient failures
func (s *CatalogService) retry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(errors.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithFields(log.Fields{
				"op":      op,
				"attempt": n + 1,
			}).Warn("Retrying metadata lookup")
		}),
	)
}

func (s *CatalogService) page(ctx context.Context, op string, fetch func() (*models.Page, error)) (*models.Page, error) {
	var result *models.Page
	err := s.retry(ctx, op, func() error {
		page, err := fetch()
		if err != nil {
			return err
		}
		result = page
		return nil
	})
	if err != nil {
		return nil, errors.NewServiceError(catalogService, op, err)
	}
	return result, nil
}

// Trending lists trending titles of kind ("" for both) over window
func (s *CatalogService) Trending(ctx context.Context, kind models.MediaKind, window string) (*models.Page, error) {
	page, err := s.page(ctx, "Trending", func() (*models.Page, error) {
		return s.client.Trending(ctx, kind, window)
	})
	if err != nil {
		return nil, err
	}
	page.Items = page.Titles()
	return page, nil
}

// Movies returns one page of a curated movie list narrowed and ordered by
// filter, which may be nil. Page counts stay those of the upstream list.
func (s *CatalogService) Movies(ctx context.Context, list string, page int, filter *models.ListFilter) (*models.Page, error) {
	result, err := s.page(ctx, "Movies", func() (*models.Page, error) {
		return s.client.Movies(ctx, list, page)
	})
	if err != nil {
		return nil, err
	}
	result.Items = filter.Apply(result.Items)
	return result, nil
}

// TV is Movies for the curated TV lists
func (s *CatalogService) TV(ctx context.Context, list string, page int, filter *models.ListFilter) (*models.Page, error) {
	result, err := s.page(ctx, "TV", func() (*models.Page, error) {
		return s.client.TV(ctx, list, page)
	})
	if err != nil {
		return nil, err
	}
	result.Items = filter.Apply(result.Items)
	return result, nil
}

// Genres lists the genres of kind by id and name
func (s *CatalogService) Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error) {
	if !kind.IsTitle() {
		return nil, errors.NewServiceError(catalogService, "Genres",
			fmt.Errorf("media kind %q: %w", kind, errors.ErrInvalidInput))
	}

	var genres []models.Genre
	err := s.retry(ctx, "Genres", func() error {
		var err error
		genres, err = s.client.Genres(ctx, kind)
		return err
	})
	if err != nil {
		return nil, errors.NewServiceError(catalogService, "Genres", err).WithContext("kind", kind)
	}
	return genres, nil
}

// Search finds titles by name. An empty kind searches movies and shows
// together and leaves people out.
func (s *CatalogService) Search(ctx context.Context, query string, kind models.MediaKind, page int) (*models.Page, error) {
	switch kind {
	case models.KindMovie:
		return s.page(ctx, "Search", func() (*models.Page, error) {
			return s.client.SearchMovies(ctx, query, page)
		})
	case models.KindTV:
		return s.page(ctx, "Search", func() (*models.Page, error) {
			return s.client.SearchTV(ctx, query, page)
		})
	case "":
		result, err := s.page(ctx, "Search", func() (*models.Page, error) {
			return s.client.SearchMulti(ctx, query, page)
		})
		if err != nil {
			return nil, err
		}
		result.Items = result.Titles()
		return result, nil
	default:
		return nil, errors.NewServiceError(catalogService, "Search",
			fmt.Errorf("media kind %q: %w", kind, errors.ErrInvalidInput))
	}
}

func (s *CatalogService) Similar(ctx context.Context, kind models.MediaKind, id int64, page int) (*models.Page, error) {
	return s.page(ctx, "Similar", func() (*models.Page, error) {
		return s.client.Similar(ctx, id, kind, page)
	})
}

// Details fetches the title record together with its credits, videos and
// recommendations. Only a failure of the title record fails the call.
func (s *CatalogService) Details(ctx context.Context, kind models.MediaKind, id int64) (*Details, error) {
	if !kind.IsTitle() {
		return nil, errors.NewServiceError(catalogService, "Details",
			fmt.Errorf("media kind %q: %w", kind, errors.ErrInvalidInput))
	}

	details := &Details{
		Kind:            kind,
		Cast:            []models.CastMember{},
		Directors:       []models.CrewMember{},
		Videos:          []models.Video{},
		Recommendations: []models.MediaItem{},
	}

	var (
		recordErr       error
		credits         *models.Credits
		videos          []models.Video
		recommendations *models.Page
	)

	workerPool := pool.New()
	workerPool.Go(func() {
		recordErr = s.retry(ctx, "Details", func() error {
			var err error
			if kind == models.KindMovie {
				details.Movie, err = s.client.MovieDetails(ctx, id)
			} else {
				details.TV, err = s.client.TVDetails(ctx, id)
			}
			return err
		})
	})
	workerPool.Go(func() {
		var err error
		if credits, err = s.client.Credits(ctx, id, kind); err != nil {
			logDegraded(err, "credits", kind, id)
		}
	})
	workerPool.Go(func() {
		var err error
		if videos, err = s.client.Videos(ctx, id, kind); err != nil {
			logDegraded(err, "videos", kind, id)
		}
	})
	workerPool.Go(func() {
		var err error
		if recommendations, err = s.client.Recommendations(ctx, id, kind, 1); err != nil {
			logDegraded(err, "recommendations", kind, id)
		}
	})
	workerPool.Wait()

	if recordErr != nil {
		return nil, errors.NewServiceError(catalogService, "Details", recordErr).
			WithContext("kind", kind).
			WithContext("id", id)
	}

	if credits != nil {
		if credits.Cast != nil {
			details.Cast = credits.Cast
		}
		if directors := credits.Directors(); directors != nil {
			details.Directors = directors
		}
	}
	if videos != nil {
		details.Videos = videos
		details.Trailer = models.Trailer(videos)
	}
	if recommendations != nil {
		details.Recommendations = recommendations.Titles()
	}

	item := details.Item()
	details.PosterURL = s.client.ImageURL(item.PosterPath, "w500")
	details.BackdropURL = s.client.ImageURL(item.BackdropPath, "original")
	return details, nil
}

func logDegraded(err error, resource string, kind models.MediaKind, id int64) {
	log.WithError(err).WithFields(log.Fields{
		"resource": resource,
		"kind":     kind,
		"id":       id,
	}).Warn("Failed to fetch related resource, showing none")
}

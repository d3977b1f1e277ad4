package tmdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/models"
)

// PlaceholderImage is served in place of a missing poster or backdrop
const PlaceholderImage = "/placeholder-movie.png"

// Movie and TV list names accepted by Movies and TV
var (
	movieLists = map[string]bool{"now_playing": true, "popular": true, "top_rated": true, "upcoming": true}
	tvLists    = map[string]bool{"popular": true, "top_rated": true, "on_the_air": true, "airing_today": true}
)

type searchParams struct {
	Query        string `url:"query"`
	Page         int    `url:"page,omitempty"`
	IncludeAdult bool   `url:"include_adult"`
}

type pageParams struct {
	Page int `url:"page,omitempty"`
}

func (c *Client) search(ctx context.Context, endpoint, query string, page int, hint models.MediaKind) (*models.Page, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty: %w", errors.ErrInvalidInput)
	}

	var resp pageResponse
	if err := c.get(ctx, endpoint, searchParams{Query: query, Page: page}, &resp); err != nil {
		return nil, err
	}
	return resp.toPage(hint), nil
}

func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*models.Page, error) {
	return c.search(ctx, "/search/movie", query, page, models.KindMovie)
}

func (c *Client) SearchTV(ctx context.Context, query string, page int) (*models.Page, error) {
	return c.search(ctx, "/search/tv", query, page, models.KindTV)
}

// SearchMulti searches movies, shows and people at once. Items carry the
// kind reported by TMDB, so people show up with KindPerson.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*models.Page, error) {
	return c.search(ctx, "/search/multi", query, page, "")
}

// Trending lists trending titles; an empty kind means all kinds and window
// is "day" or "week".
func (c *Client) Trending(ctx context.Context, kind models.MediaKind, window string) (*models.Page, error) {
	mediaType := "all"
	if kind != "" {
		if !kind.IsTitle() {
			return nil, fmt.Errorf("trending kind %q: %w", kind, errors.ErrInvalidInput)
		}
		mediaType = string(kind)
	}
	if window == "" {
		window = "week"
	}
	if window != "day" && window != "week" {
		return nil, fmt.Errorf("trending window %q: %w", window, errors.ErrInvalidInput)
	}

	var resp pageResponse
	if err := c.get(ctx, "/trending/"+mediaType+"/"+window, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toPage(kind), nil
}

// Movies returns one of the curated movie lists such as popular or upcoming
func (c *Client) Movies(ctx context.Context, list string, page int) (*models.Page, error) {
	if !movieLists[list] {
		return nil, fmt.Errorf("movie list %q: %w", list, errors.ErrInvalidInput)
	}
	var resp pageResponse
	if err := c.get(ctx, "/movie/"+list, pageParams{Page: page}, &resp); err != nil {
		return nil, err
	}
	return resp.toPage(models.KindMovie), nil
}

// TV returns one of the curated TV lists such as popular or airing_today
func (c *Client) TV(ctx context.Context, list string, page int) (*models.Page, error) {
	if !tvLists[list] {
		return nil, fmt.Errorf("tv list %q: %w", list, errors.ErrInvalidInput)
	}
	var resp pageResponse
	if err := c.get(ctx, "/tv/"+list, pageParams{Page: page}, &resp); err != nil {
		return nil, err
	}
	return resp.toPage(models.KindTV), nil
}

// Genres lists the genres TMDB tags titles of kind with, for turning
// MediaItem.GenreIDs into names.
func (c *Client) Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error) {
	if !kind.IsTitle() {
		return nil, fmt.Errorf("genre kind %q: %w", kind, errors.ErrInvalidInput)
	}
	var resp genreListResponse
	if err := c.get(ctx, "/genre/"+string(kind)+"/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		return []models.Genre{}, nil
	}
	return resp.Genres, nil
}

func (c *Client) MovieDetails(ctx context.Context, id int64) (*models.MovieDetails, error) {
	if id <= 0 {
		return nil, fmt.Errorf("movie id %d: %w", id, errors.ErrInvalidInput)
	}
	var resp movieDetailsResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

func (c *Client) TVDetails(ctx context.Context, id int64) (*models.TVDetails, error) {
	if id <= 0 {
		return nil, fmt.Errorf("tv id %d: %w", id, errors.ErrInvalidInput)
	}
	var resp tvDetailsResponse
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

func (c *Client) Credits(ctx context.Context, id int64, kind models.MediaKind) (*models.Credits, error) {
	endpoint, err := titlePath(id, kind, "credits")
	if err != nil {
		return nil, err
	}
	var credits models.Credits
	if err := c.get(ctx, endpoint, nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

func (c *Client) Videos(ctx context.Context, id int64, kind models.MediaKind) ([]models.Video, error) {
	endpoint, err := titlePath(id, kind, "videos")
	if err != nil {
		return nil, err
	}
	var resp videosResponse
	if err := c.get(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) Recommendations(ctx context.Context, id int64, kind models.MediaKind, page int) (*models.Page, error) {
	return c.related(ctx, id, kind, "recommendations", page)
}

func (c *Client) Similar(ctx context.Context, id int64, kind models.MediaKind, page int) (*models.Page, error) {
	return c.related(ctx, id, kind, "similar", page)
}

func (c *Client) related(ctx context.Context, id int64, kind models.MediaKind, sub string, page int) (*models.Page, error) {
	endpoint, err := titlePath(id, kind, sub)
	if err != nil {
		return nil, err
	}
	var resp pageResponse
	if err := c.get(ctx, endpoint, pageParams{Page: page}, &resp); err != nil {
		return nil, err
	}
	return resp.toPage(kind), nil
}

// ImageURL builds the CDN URL of an image path at the given size
// ("w500", "original", ...). An empty path yields the placeholder.
func (c *Client) ImageURL(path, size string) string {
	if strings.TrimSpace(path) == "" {
		return PlaceholderImage
	}
	if size == "" {
		size = "original"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBaseURL + "/" + size + path
}

func titlePath(id int64, kind models.MediaKind, sub string) (string, error) {
	if !kind.IsTitle() {
		return "", fmt.Errorf("media kind %q: %w", kind, errors.ErrInvalidInput)
	}
	if id <= 0 {
		return "", fmt.Errorf("%s id %d: %w", kind, id, errors.ErrInvalidInput)
	}
	return fmt.Sprintf("/%s/%d/%s", kind, id, sub), nil
}

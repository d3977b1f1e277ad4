package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/amaumene/cinesift/pkg/models"
)

const (
	maxBodyBytes      = 1 << 20
	maxPage           = 500
	maxHistoryEntries = 100
	maxGenreFilters   = 20
	maxRating         = 10
)

var (
	ErrInvalidID      = errors.New("invalid title ID")
	ErrInvalidPage    = errors.New("page must be between 1 and 500")
	ErrInvalidWindow  = errors.New("window must be day or week")
	ErrEmptyQuery     = errors.New("query parameter q is required")
	ErrInvalidHistory = errors.New("history entries need a role and text")
	ErrInvalidGenre   = errors.New("genre must be a list of positive genre IDs")
	ErrInvalidRating  = errors.New("min_rating must be between 0 and 10")
)

// validateID validates and parses a TMDB ID
func validateID(idStr string) (int64, error) {
	if idStr == "" {
		return 0, ErrInvalidID
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}

	// TMDB IDs are positive
	if id <= 0 {
		return 0, ErrInvalidID
	}

	// Reasonable upper bound check
	if id > 999999999 {
		return 0, ErrInvalidID
	}

	return id, nil
}

// titleVars reads the {kind} and {id} route variables
func titleVars(r *http.Request) (models.MediaKind, int64, error) {
	vars := mux.Vars(r)
	kind, err := models.ParseMediaKind(vars["kind"])
	if err != nil {
		return "", 0, err
	}
	id, err := validateID(vars["id"])
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

// parseOptionalKind accepts a media kind, or "", "all" for any kind
func parseOptionalKind(s string) (models.MediaKind, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	return models.ParseMediaKind(s)
}

// parsePage defaults to the first page
func parsePage(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 || page > maxPage {
		return 0, ErrInvalidPage
	}
	return page, nil
}

// validateWindow defaults to a weekly window
func validateWindow(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "week":
		return "week", nil
	case "day":
		return "day", nil
	default:
		return "", ErrInvalidWindow
	}
}

// parseListFilter reads genre, min_rating and sort. Genres may be repeated
// or comma separated; nil is returned when no option is set.
func parseListFilter(q url.Values) (*models.ListFilter, error) {
	filter := &models.ListFilter{}

	for _, value := range q["genre"] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, ErrInvalidGenre
			}
			filter.GenreIDs = append(filter.GenreIDs, id)
		}
	}
	if len(filter.GenreIDs) > maxGenreFilters {
		return nil, fmt.Errorf("%w: at most %d genres", ErrInvalidGenre, maxGenreFilters)
	}

	if s := strings.TrimSpace(q.Get("min_rating")); s != "" {
		rating, err := strconv.ParseFloat(s, 64)
		if err != nil || rating < 0 || rating > maxRating {
			return nil, ErrInvalidRating
		}
		filter.MinRating = rating
	}

	sort, err := models.ParseSortOrder(q.Get("sort"))
	if err != nil {
		return nil, err
	}
	filter.Sort = sort

	if filter.IsZero() {
		return nil, nil
	}
	return filter, nil
}

func validateQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}

func validateHistory(history []models.ChatMessage) error {
	if len(history) > maxHistoryEntries {
		return fmt.Errorf("%w: at most %d entries", ErrInvalidHistory, maxHistoryEntries)
	}
	for _, msg := range history {
		if strings.TrimSpace(msg.Role) == "" || strings.TrimSpace(msg.Text) == "" {
			return ErrInvalidHistory
		}
	}
	return nil
}

// decodeJSON decodes a bounded request body; an empty body leaves v untouched
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to parse request body: %w", err)
	}
	return nil
}

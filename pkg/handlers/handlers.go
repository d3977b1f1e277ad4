package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/amaumene/cinesift/pkg/discovery"
	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/metrics"
	"github.com/amaumene/cinesift/pkg/models"
	"github.com/amaumene/cinesift/pkg/services"
	log "github.com/sirupsen/logrus"
)

// Handler contains all HTTP handlers
type Handler struct {
	appService *services.AppService
	metrics    *metrics.Metrics
	apiKey     string
}

// NewHandler creates the handlers. An empty apiKey leaves the API open.
func NewHandler(appService *services.AppService, m *metrics.Metrics, apiKey string) *Handler {
	return &Handler{
		appService: appService,
		metrics:    m,
		apiKey:     apiKey,
	}
}

// Router builds the HTTP routes with their middleware
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware, authMiddleware(h.apiKey))

	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/discover", h.handleDiscover).Methods(http.MethodPost)
	api.HandleFunc("/search", h.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/trending/{kind}", h.handleTrending).Methods(http.MethodGet)
	api.HandleFunc("/genres/{kind}", h.handleGenres).Methods(http.MethodGet)

	title := api.PathPrefix("/{kind:movie|tv}/{id:[0-9]+}").Subrouter()
	title.HandleFunc("", h.handleDetails).Methods(http.MethodGet)
	title.HandleFunc("/similar", h.handleSimilar).Methods(http.MethodGet)
	title.HandleFunc("/summary", h.handleSummary).Methods(http.MethodPost)
	title.HandleFunc("/themes", h.handleThemes).Methods(http.MethodPost)
	title.HandleFunc("/quiz", h.handleQuiz).Methods(http.MethodPost)
	title.HandleFunc("/chat", h.handleChat).Methods(http.MethodPost)
	title.HandleFunc("/recommendations", h.handleRecommendations).Methods(http.MethodPost)

	api.HandleFunc("/movies/{list}", h.handleMovieList).Methods(http.MethodGet)
	api.HandleFunc("/tv/{list:[a-z_]+}", h.handleTVList).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorResponse(w, http.StatusNotFound, "Not found", "The requested endpoint does not exist")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" is not allowed on "+r.URL.Path)
	})
	return r
}

// ResponseError represents an error response
type ResponseError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResponseSuccess represents a success response
type ResponseSuccess struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (h *Handler) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

func (h *Handler) writeErrorResponse(w http.ResponseWriter, status int, message, details string) {
	response := ResponseError{
		Error:   message,
		Message: details,
	}
	h.writeJSONResponse(w, status, response)
}

func (h *Handler) writeSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	response := ResponseSuccess{
		Message: message,
		Data:    data,
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeServiceError maps a service error onto an HTTP status
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	entry := log.WithError(err).WithFields(log.Fields{
		"path":       r.URL.Path,
		"status":     status,
		"request_id": RequestID(r.Context()),
	})
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}
	h.writeErrorResponse(w, status, message, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsStale(err):
		return http.StatusConflict
	case errors.IsNotConfigured(err):
		return http.StatusServiceUnavailable
	case errors.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, errors.ErrUnauthorized),
		errors.Is(err, errors.ErrRateLimited),
		errors.Is(err, errors.ErrUpstream),
		errors.Is(err, errors.ErrNetworkOperation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeSuccessResponse(w, "OK", map[string]string{"status": "healthy"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := h.appService.Status(r.Context())
	message := "All checks passed"
	if !report.Healthy {
		message = "Some checks failed"
	}
	h.writeSuccessResponse(w, message, report)
}

// DiscoverRequest is the body of POST /api/discover
type DiscoverRequest struct {
	Query   string `json:"query"`
	Session string `json:"session,omitempty"`
}

// DiscoverResponse carries the session id to send with the next search
type DiscoverResponse struct {
	Session string `json:"session"`
	*models.Resolution
}

func (h *Handler) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	res, session, err := h.appService.Discover(r.Context(), req.Session, req.Query)
	condition := discovery.Classify(res, err)
	if err != nil {
		status := statusFor(err)
		if condition == discovery.ConditionFailed && status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		log.WithError(err).WithFields(log.Fields{
			"condition":  condition,
			"session":    session,
			"request_id": RequestID(r.Context()),
		}).Warn("Description search did not complete")
		w.Header().Set(sessionHeader, session)
		h.writeJSONResponse(w, status, ResponseError{
			Error:   condition.Message(),
			Code:    string(condition),
			Message: err.Error(),
		})
		return
	}

	w.Header().Set(sessionHeader, session)
	h.writeSuccessResponse(w, condition.Message(), DiscoverResponse{Session: session, Resolution: res})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := validateQuery(q.Get("q"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	kind, err := parseOptionalKind(q.Get("kind"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}
	page, err := parsePage(q.Get("page"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid page", err.Error())
		return
	}

	result, err := h.appService.Catalog().Search(r.Context(), query, kind, page)
	if err != nil {
		h.writeServiceError(w, r, "Search failed", err)
		return
	}
	h.writeSuccessResponse(w, "Search results retrieved successfully", result)
}

func (h *Handler) handleTrending(w http.ResponseWriter, r *http.Request) {
	kind, err := parseOptionalKind(mux.Vars(r)["kind"])
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}
	window, err := validateWindow(r.URL.Query().Get("window"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid window", err.Error())
		return
	}

	result, err := h.appService.Catalog().Trending(r.Context(), kind, window)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get trending titles", err)
		return
	}
	h.writeSuccessResponse(w, "Trending titles retrieved successfully", result)
}

func (h *Handler) handleMovieList(w http.ResponseWriter, r *http.Request) {
	page, filter, ok := h.listParams(w, r)
	if !ok {
		return
	}

	result, err := h.appService.Catalog().Movies(r.Context(), mux.Vars(r)["list"], page, filter)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get movies", err)
		return
	}
	h.writeSuccessResponse(w, "Movies retrieved successfully", result)
}

func (h *Handler) handleTVList(w http.ResponseWriter, r *http.Request) {
	page, filter, ok := h.listParams(w, r)
	if !ok {
		return
	}

	result, err := h.appService.Catalog().TV(r.Context(), mux.Vars(r)["list"], page, filter)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get TV shows", err)
		return
	}
	h.writeSuccessResponse(w, "TV shows retrieved successfully", result)
}

// listParams reads paging and filter options shared by the list endpoints
func (h *Handler) listParams(w http.ResponseWriter, r *http.Request) (int, *models.ListFilter, bool) {
	q := r.URL.Query()
	page, err := parsePage(q.Get("page"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid page", err.Error())
		return 0, nil, false
	}
	filter, err := parseListFilter(q)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return 0, nil, false
	}
	return page, filter, true
}

func (h *Handler) handleGenres(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseMediaKind(mux.Vars(r)["kind"])
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}

	genres, err := h.appService.Catalog().Genres(r.Context(), kind)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get genres", err)
		return
	}
	h.writeSuccessResponse(w, "Genres retrieved successfully", map[string]interface{}{"genres": genres})
}

func (h *Handler) handleDetails(w http.ResponseWriter, r *http.Request) {
	kind, id, err := titleVars(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid title", err.Error())
		return
	}

	details, err := h.appService.Catalog().Details(r.Context(), kind, id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get details", err)
		return
	}
	h.writeSuccessResponse(w, "Details retrieved successfully", details)
}

func (h *Handler) handleSimilar(w http.ResponseWriter, r *http.Request) {
	kind, id, err := titleVars(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid title", err.Error())
		return
	}
	page, err := parsePage(r.URL.Query().Get("page"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid page", err.Error())
		return
	}

	result, err := h.appService.Catalog().Similar(r.Context(), kind, id, page)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get similar titles", err)
		return
	}
	h.writeSuccessResponse(w, "Similar titles retrieved successfully", result)
}

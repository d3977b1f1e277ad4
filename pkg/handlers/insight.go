package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/amaumene/cinesift/pkg/models"
)

// InsightRequest is the body of the per-title assistant endpoints. Title and
// overview are looked up from the metadata API when omitted.
type InsightRequest struct {
	Title       string               `json:"title,omitempty"`
	Overview    string               `json:"overview,omitempty"`
	Genres      []string             `json:"genres,omitempty"`
	Question    string               `json:"question,omitempty"`
	History     []models.ChatMessage `json:"history,omitempty"`
	Preferences string               `json:"preferences,omitempty"`
	Resolve     bool                 `json:"resolve,omitempty"`
}

// insightRequest decodes the body and fills in what the client left out
func (h *Handler) insightRequest(w http.ResponseWriter, r *http.Request) (*InsightRequest, bool) {
	kind, id, err := titleVars(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid title", err.Error())
		return nil, false
	}

	var req InsightRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return nil, false
	}
	if err := validateHistory(req.History); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid history", err.Error())
		return nil, false
	}

	if strings.TrimSpace(req.Title) == "" {
		if err := h.fillFromCatalog(r.Context(), kind, id, &req); err != nil {
			h.writeServiceError(w, r, "Failed to get details", err)
			return nil, false
		}
	}
	return &req, true
}

func (h *Handler) fillFromCatalog(ctx context.Context, kind models.MediaKind, id int64, req *InsightRequest) error {
	details, err := h.appService.Catalog().Details(ctx, kind, id)
	if err != nil {
		return err
	}
	item := details.Item()
	req.Title = item.Title
	if req.Overview == "" {
		req.Overview = item.Overview
	}
	if len(req.Genres) == 0 {
		req.Genres = details.GenreNames()
	}
	return nil
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.insightRequest(w, r)
	if !ok {
		return
	}
	summary, err := h.appService.Insight().Summarize(r.Context(), req.Title, req.Overview)
	if err != nil {
		h.writeServiceError(w, r, "Failed to summarize", err)
		return
	}
	h.writeSuccessResponse(w, "Summary generated successfully", map[string]string{"summary": summary})
}

func (h *Handler) handleThemes(w http.ResponseWriter, r *http.Request) {
	req, ok := h.insightRequest(w, r)
	if !ok {
		return
	}
	analysis, err := h.appService.Insight().AnalyzeThemes(r.Context(), req.Title, req.Overview)
	if err != nil {
		h.writeServiceError(w, r, "Failed to analyze themes", err)
		return
	}
	h.writeSuccessResponse(w, "Themes analyzed successfully", map[string]string{"analysis": analysis})
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	req, ok := h.insightRequest(w, r)
	if !ok {
		return
	}
	questions, err := h.appService.Insight().Quiz(r.Context(), req.Title, req.Overview)
	if err != nil {
		h.writeServiceError(w, r, "Failed to generate quiz", err)
		return
	}
	h.writeSuccessResponse(w, "Quiz generated successfully", map[string]interface{}{"questions": questions})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.insightRequest(w, r)
	if !ok {
		return
	}
	answer, err := h.appService.Insight().Chat(r.Context(), req.Title, req.Overview, req.Question, req.History)
	if err != nil {
		h.writeServiceError(w, r, "Failed to answer", err)
		return
	}
	h.writeSuccessResponse(w, "Answer generated successfully", models.ChatMessage{Role: "assistant", Text: answer})
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	req, ok := h.insightRequest(w, r)
	if !ok {
		return
	}
	recs, err := h.appService.Insight().Recommend(r.Context(), req.Title, req.Genres, req.Preferences, req.Resolve)
	if err != nil {
		h.writeServiceError(w, r, "Failed to recommend", err)
		return
	}
	h.writeSuccessResponse(w, "Recommendations generated successfully", recs)
}

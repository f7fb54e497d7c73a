// Package api provides HTTP handlers for the factory assistant API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"factorygpt/internal/engine"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// askRequest is the POST /api/ask payload.
type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// askResponse mirrors the original portal's response contract: the rendered
// answer, an optional chart reference, and a coarse status.
type askResponse struct {
	Answer    string `json:"answer"`
	Graph     string `json:"graph,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Status    string `json:"status"`
}

// Handler serves the assistant endpoints.
type Handler struct {
	engine   *engine.Engine
	chartDir string
}

// NewHandler creates a new Handler.
func NewHandler(eng *engine.Engine, chartDir string) *Handler {
	return &Handler{engine: eng, chartDir: chartDir}
}

// RegisterRoutes mounts the assistant endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/ask", h.Ask)
	r.Get("/api/status", h.Status)
	r.Handle("/charts/*", http.StripPrefix("/charts/",
		http.FileServer(http.Dir(h.chartDir))))
}

// Ask handles one question. Engine failures are rendered as user-safe answer
// text, never as raw internal errors.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		JSON(w, http.StatusOK, askResponse{
			Answer: "Please enter a valid question.",
			Status: "error",
		})
		return
	}

	answer, err := h.engine.Ask(r.Context(), req.SessionID, req.Question)
	if err != nil {
		var engErr *engine.Error
		if errors.As(err, &engErr) {
			status := "error"
			if engErr.Code == engine.ErrorNotReady {
				status = "initializing"
			}
			JSON(w, http.StatusOK, askResponse{
				Answer:    engErr.UserMessage,
				SessionID: req.SessionID,
				Status:    status,
			})
			return
		}
		slog.Error("Unexpected ask failure", "error", err)
		JSON(w, http.StatusOK, askResponse{
			Answer: "Something went wrong while answering. Please try again.",
			Status: "error",
		})
		return
	}

	JSON(w, http.StatusOK, askResponse{
		Answer:    answer.Text,
		Graph:     answer.Chart,
		SessionID: answer.SessionID,
		Status:    "success",
	})
}

// Status reports engine readiness for callers that want to hold questions
// until startup completes.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.engine.Status())
}

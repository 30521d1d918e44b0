package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/preload"
	"github.com/desertthunder/reelx/internal/shared"
)

const maxBodyBytes = 1 << 16

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FeedResponse is the body of GET /feed.
type FeedResponse struct {
	Count int               `json:"count"`
	Items []models.FeedItem `json:"items"`
}

// PositionRequest is the body of POST /window/position.
type PositionRequest struct {
	Index *int `json:"index"`
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// FeedHandler serves the stored feed.
type FeedHandler struct {
	feed   FeedSource
	logger *log.Logger
}

func NewFeedHandler(feed FeedSource, logger *log.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

func (h *FeedHandler) Routes() []string { return []string{"/feed"} }

func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	items, err := h.feed.Feed()
	if err != nil {
		h.logger.Error("failed to load feed", "err", err)
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.FeedItem{}
	}
	writeJSON(w, http.StatusOK, FeedResponse{Count: len(items), Items: items})
}

// WindowHandler reads and moves the preload window.
type WindowHandler struct {
	window Window
	feed   FeedSource
	logger *log.Logger
}

func NewWindowHandler(window Window, feed FeedSource, logger *log.Logger) *WindowHandler {
	return &WindowHandler{window: window, feed: feed, logger: logger}
}

func (h *WindowHandler) Routes() []string {
	return []string{"/window", "/window/position", "/window/refresh"}
}

func (h *WindowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/window":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, h.window.Snapshot())
	case "/window/position":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.position(w, r)
	case "/window/refresh":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.refresh(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *WindowHandler) position(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	if req.Index == nil {
		writeError(w, fmt.Errorf("%w: index", shared.ErrMissingArgument))
		return
	}

	if err := h.window.Move(r.Context(), *req.Index); err != nil {
		h.logger.Warn("window move failed", "index", *req.Index, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.window.Snapshot())
}

func (h *WindowHandler) refresh(w http.ResponseWriter, r *http.Request) {
	items, err := h.feed.Feed()
	if err != nil {
		h.logger.Error("failed to load feed", "err", err)
		writeError(w, err)
		return
	}

	if err := h.window.Refresh(r.Context(), preload.ItemsFromFeed(items)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.window.Snapshot())
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrIndexOutOfRange),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrFeedItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error()})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package http

import (
	"errors"
	"log/slog"
	"net/http"

	"housetab/internal/services"
	"housetab/internal/smart"
)

type parseRequest struct {
	Text string `json:"text"`
}

// handleParse turns free text into a validated draft without recording it.
// The caller reviews the draft and submits it through the create endpoint.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if s.smart == nil {
		writeError(w, http.StatusServiceUnavailable, "smart parsing is not configured")
		return
	}

	var req parseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft, err := s.smart.Parse(r.Context(), sanitizeInput(req.Text))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParseBusy):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, smart.ErrUnparseable):
			writeError(w, http.StatusUnprocessableEntity, "could not understand the input, please retry or enter manually")
		default:
			slog.ErrorContext(r.Context(), "Smart parse failed", "error", err)
			writeError(w, http.StatusUnprocessableEntity, "could not understand the input, please retry or enter manually")
		}
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

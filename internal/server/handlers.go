package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Stone-IT-Cloud/devsummary"
	"github.com/Stone-IT-Cloud/devsummary/internal/history"
)

// Stream delimiters understood by the UI.
const (
	ResponseStart = "RESPONSE_START"
	ResponseEnd   = "RESPONSE_END"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// stream runs fn while writing its progress lines to the response, then the
// delimited report or an error line.
func stream(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) (string, error)) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	writeLine := func(line string) {
		if _, err := w.Write([]byte(line + "\n")); err != nil {
			slog.Debug("client went away", "error", err)
			return
		}
		_ = rc.Flush()
	}

	// Generation outlives a disconnected client; its history entry is
	// still recorded.
	ctx := devsummary.WithProgress(context.WithoutCancel(r.Context()), writeLine)
	text, err := fn(ctx)
	if err != nil {
		writeLine("Error: " + err.Error())
		return
	}
	writeLine(ResponseStart)
	writeLine(text)
	writeLine(ResponseEnd)
}

func (s *Server) handleRunEOD(w http.ResponseWriter, r *http.Request) {
	stream(w, r, s.reports.EndOfDay)
}

func (s *Server) handleRunSprintReview(w http.ResponseWriter, r *http.Request) {
	var req devsummary.SprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	stream(w, r, func(ctx context.Context) (string, error) {
		return s.reports.SprintReview(ctx, req)
	})
}

func (s *Server) handleListHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.history.List())
}

func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	if err := s.history.Clear(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "History cleared successfully"})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := s.history.Get(r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Entry not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	removed, err := s.history.Delete(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Entry deleted successfully"})
}

func (s *Server) handleTerminate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageBody{Message: "Server shutting down"})
	s.RequestShutdown()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

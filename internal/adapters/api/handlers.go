package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mikey/phishing-scanner/internal/core"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

// ScanRequest is the body of POST /api/scans
type ScanRequest struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Wait    bool   `json:"wait"`
}

// PredictRequest is the body of POST /predict
type PredictRequest struct {
	Email string `json:"email"`
	URL   string `json:"url"`
}

// PredictResponse is the verdict document returned by POST /predict
type PredictResponse struct {
	Type       string   `json:"type,omitempty"`
	Label      string   `json:"label"`
	Confidence string   `json:"confidence,omitempty"`
	Reason     string   `json:"reason"`
	Threats    []string `json:"threats,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "running",
		"message": "AI Phishing Detection Backend Active",
		"endpoints": []string{
			"/predict",
			"/api/scans",
			"/api/session",
			"/api/history",
			"/api/stats",
		},
	})
}

// handlePredict accepts {"email": ...} or {"url": ...} and always answers
// 200 with either a verdict or an error label
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeJSON(w, http.StatusOK, PredictResponse{Label: "error", Reason: "No input provided."})
		return
	}

	var kind core.ContentKind
	var content string
	switch {
	case strings.TrimSpace(req.URL) != "":
		kind, content = core.KindURL, req.URL
	case strings.TrimSpace(req.Email) != "":
		kind, content = core.KindEmail, req.Email
	default:
		s.writeJSON(w, http.StatusOK, PredictResponse{Label: "error", Reason: "Please provide either 'email' or 'url'."})
		return
	}

	record, err := s.session.Analyze(r.Context(), content, kind)
	if err != nil {
		s.writeJSON(w, http.StatusOK, PredictResponse{Label: "error", Reason: err.Error()})
		return
	}

	label := "safe"
	if record.IsPhishing {
		label = "phishing"
	}
	s.writeJSON(w, http.StatusOK, PredictResponse{
		Type:       string(record.Kind),
		Label:      label,
		Confidence: fmt.Sprintf("%.2f%%", float64(record.Confidence)),
		Reason:     strings.Join(record.Reasons, " "),
		Threats:    record.Reasons,
		Timestamp:  record.CreatedAt.Format(time.DateTime),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, ok := core.ParseContentKind(req.Kind)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("kind must be %q or %q", core.KindEmail, core.KindURL))
		return
	}

	if !req.Wait {
		accepted := s.session.Submit(req.Content, kind)
		s.writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": accepted})
		return
	}

	record, err := s.session.Analyze(r.Context(), req.Content, kind)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, record)
	case errors.Is(err, core.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrConcurrentSubmit):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("Analysis failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleClearCurrent(w http.ResponseWriter, r *http.Request) {
	s.session.ClearCurrent()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.session.History(r.Context())
	if err != nil {
		s.logger.Error("Failed to read history", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if records == nil {
		records = []core.ClassificationRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ClearHistory(r.Context()); err != nil {
		s.logger.Error("Failed to clear history", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.session.Stats(r.Context())
	if err != nil {
		s.logger.Error("Failed to compute stats", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/crimson-sun/headlinescore/internal/model"
)

// DefaultMaxBodyBytes caps a scoring request body.
const DefaultMaxBodyBytes = 1 << 20

// Scorer is the classification service as the API sees it.
type Scorer interface {
	Classify(ctx context.Context, batch []string) ([]string, error)
	Status() model.Status
}

// Handler implements the API handlers.
type Handler struct {
	scorer       Scorer
	metrics      *Metrics
	maxBodyBytes int64
}

// NewHandler creates a Handler. A nil metrics disables batch metrics;
// maxBodyBytes <= 0 uses DefaultMaxBodyBytes.
func NewHandler(s Scorer, m *Metrics, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{scorer: s, metrics: m, maxBodyBytes: maxBodyBytes}
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status string `json:"status"`
}

// ScoreRequest is the body of POST /score_headlines. Headlines is a pointer
// so a missing field is told apart from an empty list.
type ScoreRequest struct {
	Headlines *[]string `json:"headlines"`
}

// ScoreResponse is the success body of POST /score_headlines.
type ScoreResponse struct {
	Labels []string `json:"labels"`
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.scorer.Status()
	code := http.StatusOK
	if st != model.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, StatusResponse{Status: st.String()})
}

// ScoreHeadlines handles POST /score_headlines.
func (h *Handler) ScoreHeadlines(w http.ResponseWriter, r *http.Request) {
	req, status, err := h.decodeScoreRequest(w, r)
	if err != nil {
		WriteProblem(w, r, status, err.Error())
		return
	}

	labels, err := h.scorer.Classify(r.Context(), *req.Headlines)
	if err != nil {
		MapClassifyError(w, r, err)
		return
	}
	if labels == nil {
		labels = []string{}
	}
	if h.metrics != nil {
		h.metrics.observeBatch(labels)
	}
	writeJSON(w, http.StatusOK, ScoreResponse{Labels: labels})
}

// decodeScoreRequest reads exactly one JSON object with a headlines array
// and nothing else. The returned status accompanies a non-nil error.
func (h *Handler) decodeScoreRequest(w http.ResponseWriter, r *http.Request) (*ScoreRequest, int, error) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req ScoreRequest
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("Request body exceeds %d bytes", maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return nil, http.StatusBadRequest, errors.New("Request body is empty")
		}
		return nil, http.StatusBadRequest, fmt.Errorf("Invalid JSON: %s", err.Error())
	}
	if dec.More() {
		return nil, http.StatusBadRequest, errors.New("Request body must contain a single JSON object")
	}
	if req.Headlines == nil {
		return nil, http.StatusBadRequest, errors.New(`Field "headlines" is required`)
	}
	return &req, 0, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

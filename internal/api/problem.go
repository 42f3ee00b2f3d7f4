package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/crimson-sun/headlinescore/internal/engine"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// FieldError points at one offending request field, e.g. "headlines[3]".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ProblemWithErrors extends Problem with field-level details.
type ProblemWithErrors struct {
	Problem
	Errors []FieldError `json:"errors,omitempty"`
}

const problemBase = "https://headlinescore.dev/errors/"

var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusBadRequest:            {problemBase + "bad-request", "Bad Request"},
	http.StatusNotFound:              {problemBase + "not-found", "Not Found"},
	http.StatusMethodNotAllowed:      {problemBase + "method-not-allowed", "Method Not Allowed"},
	http.StatusRequestEntityTooLarge: {problemBase + "payload-too-large", "Payload Too Large"},
	http.StatusUnprocessableEntity:   {problemBase + "validation-error", "Validation Error"},
	http.StatusInternalServerError:   {problemBase + "internal-error", "Internal Server Error"},
	http.StatusServiceUnavailable:    {problemBase + "service-unavailable", "Service Unavailable"},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt.typeURI = problemBase + "unknown"
		pt.title = http.StatusText(status)
	}
	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// WriteProblemWithErrors writes a Problem Details response carrying field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, status int, detail string, errs []FieldError) {
	writeProblemBody(w, status, ProblemWithErrors{Problem: newProblem(r, status, detail), Errors: errs})
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapClassifyError converts engine errors to Problem Details responses.
// Classification failures are logged in full and answered generically.
func MapClassifyError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *engine.ValidationError
	switch {
	case errors.As(err, &vErr) && errors.Is(err, engine.ErrEmptyHeadline):
		WriteProblemWithErrors(w, r, http.StatusUnprocessableEntity, "Request contains invalid headlines", []FieldError{{
			Field:   fmt.Sprintf("headlines[%d]", vErr.Index),
			Message: "must not be empty",
		}})
	case errors.As(err, &vErr) && errors.Is(err, engine.ErrBatchTooLarge):
		WriteProblem(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Batch of %d headlines exceeds the limit of %d", vErr.Size, vErr.Limit))
	default:
		slog.ErrorContext(r.Context(), "classification failed",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

package httpadapter

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/usecase"
)

// classify is the stateless classifier endpoint. An unparseable model
// reply still yields a usable verdict, while gateway failures surface as
// status codes.
func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	var req domain.ClassificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Symptoms) == 0 && strings.TrimSpace(req.Narrative) == "" {
		writeError(w, http.StatusBadRequest, "symptoms are required")
		return
	}

	verdict, err := rt.classifier.Classify(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, verdict)
	case domain.IsKind(err, domain.ErrMalformedResponse):
		slog.Warn("classify_fallback_verdict",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusOK, usecase.FallbackVerdict())
	case domain.IsKind(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsKind(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	case domain.IsKind(err, domain.ErrTemporary):
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
	default:
		slog.Error("classify_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusBadGateway, "AI gateway error")
	}
}

package gateway

import (
	"net/http"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/resilience"
)

// Throttling is reported to the caller, not retried.
func classifyGatewayError(err error) resilience.ErrorClassification {
	if domain.IsKind(err, domain.ErrMalformedResponse) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}
	if resilience.StatusCode(err) == http.StatusTooManyRequests {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	return resilience.ClassifyHTTPError(err)
}

func mapGatewayError(err error) error {
	switch resilience.StatusCode(err) {
	case http.StatusTooManyRequests:
		return domain.WrapError(domain.ErrRateLimited, "classify symptoms", err)
	case http.StatusPaymentRequired:
		return domain.WrapError(domain.ErrTemporary, "classify symptoms", err)
	}
	return resilience.WrapTemporary("classify symptoms", err, classifyGatewayError)
}

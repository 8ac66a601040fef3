package errorhandler

import (
	"context"
	"net/http"

	"github.com/spacehub/spacehub-api/internal/pkg/logger"
	"github.com/spacehub/spacehub-api/internal/pkg/response"
)

// HandleError logs the underlying error against the request and sends a
// sanitized error response. Internal error text never reaches the client.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Request error")

	response.Error(w, status, code, message)
}

// LogExternalServiceError logs errors from external service calls
func LogExternalServiceError(ctx context.Context, service, endpoint string, statusCode int, err error, body string) {
	logger.FromContext(ctx).Error().
		Str("external_service", service).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Err(err).
		Str("response_body", truncateString(body, 1000)).
		Msg("External service error")
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "...<truncated>"
	}
	return s
}

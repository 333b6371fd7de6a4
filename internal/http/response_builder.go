package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"insights/internal/core"
	"insights/internal/llm"
	"insights/internal/log"
	"insights/internal/services"
)

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response. Encoding failures after the header has
// been written can only be logged.
func (b *JSONResponseBuilder) Write(ctx context.Context, w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "error", err)
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string             `json:"error"`
	Message string             `json:"message"`
	Intent  *core.Intent       `json:"intent,omitempty"`
	Data    *core.RoutedResult `json:"data,omitempty"`
}

// ErrorResponse creates an error response with a machine-readable kind.
func ErrorResponse(statusCode int, kind, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: kind, Message: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "BadRequest", message)
}

// errorFor maps a service error to a response. Unknown errors become 500s
// and are logged, since they indicate a bug rather than bad input.
func errorFor(ctx context.Context, err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrInvalidDateRange), errors.Is(err, core.ErrInvalidIntent):
		return ErrorResponse(http.StatusBadRequest, "InvalidRequest", err.Error())
	case errors.Is(err, services.ErrEmptyQuestion):
		return BadRequestError("Field 'query' (non-empty string) is required.")
	case errors.Is(err, llm.ErrIntentParsing):
		return ErrorResponse(http.StatusBadRequest, "IntentParsingFailed", err.Error())
	case errors.Is(err, llm.ErrAnswerGeneration):
		return ErrorResponse(http.StatusBadGateway, "ResponseGenerationFailed", err.Error())
	case errors.Is(err, services.ErrChatUnavailable):
		return ErrorResponse(http.StatusServiceUnavailable, "ChatUnavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusGatewayTimeout, "Timeout", "request timed out")
	case errors.Is(err, core.ErrStoreUnavailable):
		return ErrorResponse(http.StatusServiceUnavailable, "StoreUnavailable", "the metrics store is unavailable")
	default:
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Unhandled request error", err, log.OpRoute, nil)
		return ErrorResponse(http.StatusInternalServerError, "InternalError", "internal error")
	}
}

// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses so every handler
// writes the same content type and error shape.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/middleware/trace"
	"financas/internal/services"
)

// Messages shown to API clients.
const (
	msgUnauthorized   = "Não autorizado"
	msgNotFound       = "Não encontrado"
	msgMissingID      = "ID não fornecido"
	msgInvalidJSON    = "JSON inválido"
	msgInvalidPeriod  = "Período inválido"
	msgInternal       = "Erro interno do servidor"
	msgRateLimited    = "Muitas requisições. Tente novamente em instantes."
	msgBadCredentials = "Email ou senha inválidos"
	msgEmailTaken     = "Email já cadastrado"
	msgWeakPassword   = "Senha deve ter pelo menos 8 caracteres"
	msgMissingName    = "Nome é obrigatório"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
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

// Body sets the value encoded as the response body. A nil body writes no content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to w.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"` + msgInternal + `"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, msgUnauthorized)
}

func NotFoundError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, msgNotFound)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, msgInternal)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request) {
	UnauthorizedError().Write(w)
}

// writeServiceError maps err onto a status code. Errors that are not the
// caller's fault are logged with the request id and hidden behind a generic
// message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequestError(verr.Message).Write(w)
	case errors.Is(err, errMalformedJSON):
		BadRequestError(msgInvalidJSON).Write(w)
	case errors.Is(err, services.ErrMissingID):
		BadRequestError(msgMissingID).Write(w)
	case errors.Is(err, services.ErrInvalidPeriod):
		BadRequestError(msgInvalidPeriod).Write(w)
	case errors.Is(err, services.ErrNotFound):
		NotFoundError().Write(w)
	case errors.Is(err, auth.ErrInvalidCredentials):
		ErrorResponse(http.StatusUnauthorized, msgBadCredentials).Write(w)
	case errors.Is(err, auth.ErrEmailExists):
		BadRequestError(msgEmailTaken).Write(w)
	case errors.Is(err, auth.ErrWeakPassword):
		BadRequestError(msgWeakPassword).Write(w)
	case errors.Is(err, auth.ErrMissingName):
		BadRequestError(msgMissingName).Write(w)
	default:
		ctx := r.Context()
		fields := log.NewFields().
			WithRequestID(trace.GetRequestID(ctx)).
			WithErrorType(log.ErrorTypeInternal).
			WithUser(auth.UserID(ctx)).
			WithHTTPRequest(r.Method, r.URL.Path, "", "")
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Request failed", err, log.ComponentHTTP, operation, fields)
		InternalServerError().Write(w)
	}
}

// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// EstoqueError is returned on 400 when a purchase asks for more than is in stock.
type EstoqueError struct {
	Detail     string `json:"detail"`
	Disponivel int    `json:"disponivel"`
}

func NewEstoque(msg string, disponivel int) *EstoqueError {
	return &EstoqueError{Detail: msg, Disponivel: disponivel}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}

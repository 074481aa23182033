package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"livraria/internal/apierror"
	"livraria/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery binds and validates query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return 0, false
	}
	return uint(id), true
}

// requestContext bounds the store work of one request.
func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// respondError maps a service error to its HTTP status. Store failures are
// attached to the context for middleware.ErrorHandler to log and answered
// with a generic message.
func respondError(c *gin.Context, err error) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		ae = &apperror.Error{Kind: apperror.KindStore, Msg: "erro inesperado", Err: err}
	}
	switch ae.Kind {
	case apperror.KindNotFound:
		c.JSON(http.StatusNotFound, apierror.New(ae.Msg))
	case apperror.KindInsufficientStock:
		c.JSON(http.StatusBadRequest, apierror.NewEstoque(ae.Msg, ae.Disponivel))
	case apperror.KindInvalid:
		c.JSON(http.StatusUnprocessableEntity, apierror.New(ae.Msg))
	default:
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		_ = c.Error(err)
		c.JSON(status, apierror.New("Erro interno do servidor"))
	}
}

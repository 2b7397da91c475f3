package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Sentinel errors for the whole API. Handlers wrap these with
// fmt.Errorf("%w: ...") and AbortWithError maps them to HTTP status codes.
var (
	ErrNotFound     = errors.New("no encontrado")
	ErrValidation   = errors.New("datos inválidos")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("permisos insuficientes")
	ErrConflict     = errors.New("conflicto")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes the JSON error response for err and aborts the
// request. Internal errors are not echoed back to the client.
func AbortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "error interno"
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

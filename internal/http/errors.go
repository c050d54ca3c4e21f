package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutritrack/internal/service"
)

// errorResponse es el sobre de error que consume el frontend.
type errorResponse struct {
	Status            string   `json:"status"`
	Message           string   `json:"message"`
	Reason            string   `json:"reason,omitempty"`
	RemainingAttempts *int     `json:"remaining_attempts,omitempty"`
	Fields            []string `json:"fields,omitempty"`
	Details           string   `json:"details,omitempty"`
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Status: "error", Message: message})
}

// errorWriter traduce errores de servicio a respuestas HTTP. Los detalles de
// errores internos solo se exponen en desarrollo.
type errorWriter struct {
	logger        *zap.Logger
	exposeDetails bool
}

func (w errorWriter) write(c *gin.Context, op string, err error) {
	var (
		verr  *service.ValidationError
		vcode *service.VerificationError
	)
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Status:  "error",
			Message: "Todos los campos son requeridos",
			Fields:  verr.Fields,
		})
	case errors.As(err, &vcode):
		resp := errorResponse{
			Status:  "error",
			Message: verificationMessage(vcode),
			Reason:  string(vcode.Reason),
		}
		if vcode.Reason == service.ReasonIncorrect {
			remaining := vcode.RemainingAttempts
			resp.RemainingAttempts = &remaining
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, resp)
	case errors.Is(err, service.ErrDuplicateAccount):
		abortWithError(c, http.StatusConflict, "El email ya está registrado")
	case errors.Is(err, service.ErrInvalidToken):
		abortWithError(c, http.StatusBadRequest, "Token inválido o expirado")
	case errors.Is(err, service.ErrInvalidCredentials):
		abortWithError(c, http.StatusUnauthorized, "Credenciales inválidas")
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, "Acceso denegado")
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Usuario no encontrado")
	case errors.Is(err, service.ErrRateLimited):
		c.Header("Retry-After", "60")
		abortWithError(c, http.StatusTooManyRequests, "Demasiadas solicitudes. Intenta más tarde.")
	case errors.Is(err, service.ErrDeliveryFailed):
		w.logger.Warn(op+" delivery failed", zap.Error(err))
		w.internal(c, http.StatusBadGateway, "No se pudo enviar el mensaje", err)
	case errors.Is(err, service.ErrMessageServiceNotConfigured):
		w.internal(c, http.StatusServiceUnavailable, "Servicio de mensajes no disponible", err)
	default:
		w.logger.Error(op+" failed", zap.Error(err))
		w.internal(c, http.StatusInternalServerError, "Error interno del servidor", err)
	}
}

func (w errorWriter) internal(c *gin.Context, status int, message string, err error) {
	resp := errorResponse{Status: "error", Message: message}
	if w.exposeDetails {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

func verificationMessage(e *service.VerificationError) string {
	switch e.Reason {
	case service.ReasonNotFound:
		return "Código no encontrado o expirado. Solicita un nuevo código."
	case service.ReasonExpired:
		return "El código ha expirado. Solicita un nuevo código."
	case service.ReasonTooManyAttempts:
		return "Demasiados intentos fallidos. Solicita un nuevo código."
	default:
		return fmt.Sprintf("Código incorrecto. Te quedan %d intentos", e.RemainingAttempts)
	}
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutritrack/internal/service"
)

type MessageHandler struct {
	logger        *zap.Logger
	messageSvc    *service.MessageService
	errs          errorWriter
	exposeDetails bool
}

func NewMessageHandler(logger *zap.Logger, messageSvc *service.MessageService, exposeDetails bool) *MessageHandler {
	return &MessageHandler{
		logger:        logger,
		messageSvc:    messageSvc,
		errs:          errorWriter{logger: logger, exposeDetails: exposeDetails},
		exposeDetails: exposeDetails,
	}
}

// SendEmail maneja POST /api/auth/send_email.
func (h *MessageHandler) SendEmail(c *gin.Context) {
	var req struct {
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send email request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	if err := h.messageSvc.SendEmail(c.Request.Context(), req.Email, req.Subject, req.Message); err != nil {
		h.errs.write(c, "send email", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Correo enviado correctamente"})
}

// SendWhatsApp maneja POST /api/auth/send_whatsapp.
func (h *MessageHandler) SendWhatsApp(c *gin.Context) {
	var req struct {
		RecipientNumber string `json:"recipient_number"`
		Message         string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send whatsapp request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Número de destinatario y mensaje son requeridos")
		return
	}

	res, err := h.messageSvc.SendWhatsApp(c.Request.Context(), req.RecipientNumber, req.Message)
	if err != nil {
		h.errs.write(c, "send whatsapp", err)
		return
	}

	body := gin.H{
		"status":  "success",
		"message": "Mensaje enviado correctamente",
		"data":    gin.H{"message_ids": res.MessageIDs},
	}
	if h.exposeDetails && len(res.Raw) > 0 {
		body["details"] = res.Raw
	}
	c.JSON(http.StatusOK, body)
}

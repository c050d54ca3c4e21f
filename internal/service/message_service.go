package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"nutritrack/internal/email"
	"nutritrack/internal/metrics"
	"nutritrack/internal/whatsapp"
)

var ErrMessageServiceNotConfigured = errors.New("message service not configured")

// MessageService envia mensajes libres por email o WhatsApp.
type MessageService struct {
	logger   *zap.Logger
	email    email.Sender
	whatsapp whatsapp.Sender
	metrics  metrics.Recorder
}

func NewMessageService(logger *zap.Logger, emailSender email.Sender, wa whatsapp.Sender, rec metrics.Recorder) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	return &MessageService{
		logger:   logger,
		email:    emailSender,
		whatsapp: wa,
		metrics:  rec,
	}
}

func (s *MessageService) SendEmail(ctx context.Context, to, subject, body string) error {
	if s == nil || s.email == nil {
		return ErrMessageServiceNotConfigured
	}
	to = normalizeEmail(to)
	subject = strings.TrimSpace(subject)

	var fc fieldCollector
	fc.require(isValidEmail(to), "email")
	fc.require(subject != "", "subject")
	fc.require(strings.TrimSpace(body) != "", "message")
	if err := fc.err(); err != nil {
		return err
	}

	if err := s.email.SendMessage(ctx, to, subject, body); err != nil {
		s.logger.Warn("send email failed", zap.String("email", to), zap.Error(err))
		s.metrics.RecordNotification("email", "failed")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	s.metrics.RecordNotification("email", "sent")
	return nil
}

// SendWhatsApp valida el numero en E.164 y envia un mensaje de texto.
func (s *MessageService) SendWhatsApp(ctx context.Context, recipient, message string) (whatsapp.SendResult, error) {
	if s == nil || s.whatsapp == nil {
		return whatsapp.SendResult{}, ErrMessageServiceNotConfigured
	}
	phone := normalizePhone(recipient)

	var fc fieldCollector
	fc.require(isValidPhone(phone), "recipient_number")
	fc.require(strings.TrimSpace(message) != "", "message")
	if err := fc.err(); err != nil {
		return whatsapp.SendResult{}, err
	}

	// La Graph API espera el numero sin '+'.
	res, err := s.whatsapp.SendText(ctx, strings.TrimPrefix(phone, "+"), message)
	if err != nil {
		s.logger.Warn("send whatsapp failed", zap.Error(err))
		s.metrics.RecordNotification("whatsapp", "failed")
		return whatsapp.SendResult{}, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	s.metrics.RecordNotification("whatsapp", "sent")
	return res, nil
}

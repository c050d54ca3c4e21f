package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender envia correos con Amazon SES.
type SESSender struct {
	client sesAPI
	from   string
}

// NewSESSender carga la configuracion AWS por defecto (variables de entorno,
// perfil compartido o rol) para la region indicada.
func NewSESSender(ctx context.Context, region, from string) (*SESSender, error) {
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("ses from is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESSender{client: ses.NewFromConfig(cfg), from: from}, nil
}

func (s *SESSender) SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error {
	body, err := renderVerification(code, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}
	return s.send(ctx, toEmail, verificationSubject, &types.Body{
		Html: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
	})
}

func (s *SESSender) SendMessage(ctx context.Context, toEmail string, subject string, body string) error {
	return s.send(ctx, toEmail, subject, &types.Body{
		Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
	})
}

func (s *SESSender) send(ctx context.Context, toEmail, subject string, body *types.Body) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(s.from),
	}
	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

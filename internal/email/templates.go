package email

import (
	"bytes"
	"html/template"
	"math"
	"time"
)

const verificationSubject = "Código de verificación - NutriTrack"

var verificationTmpl = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #065f46; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="color: white; margin: 0;">NutriTrack</h1>
  </div>
  <div style="padding: 30px; background: white; border: 1px solid #e5e7eb;">
    <h2 style="color: #065f46; margin-top: 0;">Verifica tu cuenta</h2>
    <p>Utiliza el siguiente código para completar tu registro:</p>
    <div style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #065f46; text-align: center;">{{.Code}}</div>
    <p style="color: #6b7280; font-size: 14px;">Este código expirará en {{.Minutes}} minutos. No compartas este código con nadie.</p>
    <p style="color: #9ca3af; font-size: 12px;">Si no solicitaste este código, puedes ignorar este mensaje.</p>
  </div>
</div>
`))

type verificationData struct {
	Code    string
	Minutes int
}

// renderVerification arma el cuerpo HTML; los minutos se calculan respecto a now.
func renderVerification(code string, expiresAt, now time.Time) (string, error) {
	minutes := int(math.Ceil(expiresAt.Sub(now).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, verificationData{Code: code, Minutes: minutes}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

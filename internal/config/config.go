package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort       string `env:"HTTP_PORT" envDefault:"4000"`
	AppEnv         string `env:"APP_ENV" envDefault:"production"`
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"nutritrack"`
	JWTTempTTL     time.Duration `env:"JWT_TEMP_TTL" envDefault:"15m"`
	JWTVerifiedTTL time.Duration `env:"JWT_VERIFIED_TTL" envDefault:"24h"`
	JWTLoginTTL    time.Duration `env:"JWT_LOGIN_TTL" envDefault:"1h"`

	VerificationTTL           time.Duration `env:"VERIFICATION_TTL" envDefault:"15m"`
	VerificationMaxAttempts   int           `env:"VERIFICATION_MAX_ATTEMPTS" envDefault:"5"`
	VerificationSweepInterval time.Duration `env:"VERIFICATION_SWEEP_INTERVAL" envDefault:"1h"`

	NotifyAsync   bool          `env:"NOTIFY_ASYNC" envDefault:"true"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"smtp"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPass      string `env:"SMTP_PASS"`
	SMTPFrom      string `env:"SMTP_FROM"`
	SMTPFromName  string `env:"SMTP_FROM_NAME" envDefault:"NutriTrack"`
	SMTPUseTLS    bool   `env:"SMTP_USE_TLS" envDefault:"true"`
	SESRegion     string `env:"SES_REGION"`
	SESFrom       string `env:"SES_FROM"`

	WhatsAppPhoneID string `env:"WHATSAPP_PHONE_ID"`
	WhatsAppToken   string `env:"WHATSAPP_TOKEN"`
	WhatsAppAPIBase string `env:"WHATSAPP_API_BASE" envDefault:"https://graph.facebook.com/v22.0"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	ResendWindow   time.Duration `env:"RESEND_WINDOW" envDefault:"10m"`
	ResendMax      int           `env:"RESEND_MAX" envDefault:"3"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment indica si se deben exponer detalles de errores internos.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

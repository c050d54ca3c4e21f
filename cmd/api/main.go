package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutritrack/internal/config"
	"nutritrack/internal/db"
	"nutritrack/internal/email"
	apihttp "nutritrack/internal/http"
	"nutritrack/internal/metrics"
	"nutritrack/internal/notify"
	"nutritrack/internal/repository"
	"nutritrack/internal/service"
	"nutritrack/internal/whatsapp"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	if cfg.MigrateOnStart {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(registry)

	accountRepo := repository.NewPgAccountRepository(pool)
	nutritionRepo := repository.NewPgNutritionRepository(pool)
	weightRepo := repository.NewPgWeightRepository(pool)
	consumptionRepo := repository.NewPgConsumptionRepository(pool)

	emailSender := newEmailSender(ctx, cfg, logger)

	var (
		otpLimiter  service.OTPRateLimiter
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory resend limiter", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, logger, cfg.ResendWindow, cfg.ResendMax)
		}
		cancel()
		defer redisClient.Close()
	}
	if otpLimiter == nil {
		otpLimiter = service.NewOTPRateLimiter(cfg.ResendWindow, cfg.ResendMax)
	}

	store := service.NewMemoryVerificationStore(logger, rec, cfg.VerificationTTL, cfg.VerificationMaxAttempts, cfg.VerificationSweepInterval)
	go store.Start(ctx)

	dispatcher := notify.NewDispatcher(logger, emailSender, rec, cfg.NotifyTimeout, cfg.NotifyAsync)
	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, service.TokenTTLs{
		Temp:     cfg.JWTTempTTL,
		Verified: cfg.JWTVerifiedTTL,
		Login:    cfg.JWTLoginTTL,
	})

	var waSender whatsapp.Sender
	if cfg.WhatsAppPhoneID != "" && cfg.WhatsAppToken != "" {
		waSender = whatsapp.NewClient(cfg.WhatsAppAPIBase, cfg.WhatsAppPhoneID, cfg.WhatsAppToken)
	} else {
		logger.Warn("whatsapp client not configured")
	}

	authSvc := service.NewAuthService(logger, accountRepo, store, jwtSvc, dispatcher, otpLimiter, rec)
	profileSvc := service.NewProfileService(logger, accountRepo, nutritionRepo, weightRepo, consumptionRepo)
	messageSvc := service.NewMessageService(logger, emailSender, waSender, rec)

	expose := cfg.IsDevelopment()
	authHandler := apihttp.NewAuthHandler(logger, authSvc, expose)
	profileHandler := apihttp.NewProfileHandler(logger, profileSvc, expose)
	messageHandler := apihttp.NewMessageHandler(logger, messageSvc, expose)

	limiter := apihttp.NewIPRateLimiter(logger, rec, cfg.RateLimitRPS, cfg.RateLimitBurst, 5*time.Minute)
	defer limiter.Stop()

	router := apihttp.NewRouter(logger, jwtSvc, limiter, metrics.Handler(registry), authHandler, profileHandler, messageHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications not delivered", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newEmailSender elige el proveedor segun EMAIL_PROVIDER. Sin configuracion
// valida devuelve un sender deshabilitado.
func newEmailSender(ctx context.Context, cfg *config.Config, logger *zap.Logger) email.Sender {
	switch cfg.EmailProvider {
	case "ses":
		sender, err := email.NewSESSender(ctx, cfg.SESRegion, cfg.SESFrom)
		if err != nil {
			logger.Warn("ses sender init failed", zap.Error(err))
			break
		}
		return sender
	case "smtp":
		if cfg.SMTPHost == "" {
			break
		}
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
			break
		}
		return sender
	}
	logger.Warn("email sender not configured", zap.String("provider", cfg.EmailProvider))
	return email.NewDisabledSender("email sender not configured")
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutritrack/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
// metricsHandler y limiter pueden ser nil.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	limiter *IPRateLimiter,
	metricsHandler http.Handler,
	authH *AuthHandler,
	profileH *ProfileHandler,
	messageH *MessageHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	requireFinal := JWTAuthMiddleware(jwtSvc)
	owner := RequireOwner("userId")

	public := api.Group("/auth")
	if limiter != nil {
		public.Use(limiter.Middleware())
	}
	public.POST("/register", authH.Register)
	public.POST("/verify-2fa", authH.Verify)
	public.POST("/resend-2fa", authH.Resend)
	public.POST("/login", authH.Login)

	private := api.Group("/auth", requireFinal)
	private.GET("/profile/:userId", owner, profileH.GetProfile)
	private.GET("/getProfile/:userId", owner, profileH.GetProfile)
	private.GET("/nutritional-requirements/:userId", owner, profileH.GetNutritionRequirements)
	private.PUT("/nutrition_requirements/:userId", owner, profileH.UpdateNutritionRequirements)
	private.GET("/weight-history/:userId", owner, profileH.GetWeightHistory)
	private.GET("/today-consumption/:userId", owner, profileH.GetTodayConsumption)
	private.PUT("/change_password/:userId", owner, profileH.ChangePassword)
	private.PUT("/change-password/:userId", owner, profileH.ChangePassword)
	private.POST("/send_email", messageH.SendEmail)
	private.POST("/send_whatsapp", messageH.SendWhatsApp)

	api.POST("/weight/log", requireFinal, profileH.LogWeight)
	api.POST("/nutrition/log-food", requireFinal, profileH.LogFood)

	return r
}

// zapLoggerMiddleware registra cada request con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json, salvo en /metrics.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path != "/metrics" {
			c.Writer.Header().Set("Content-Type", "application/json")
		}
		c.Next()
	}
}

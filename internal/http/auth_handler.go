package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutritrack/internal/service"
)

// AuthHandler expone registro, verificacion por codigo y login.
type AuthHandler struct {
	logger  *zap.Logger
	authSvc *service.AuthService
	errs    errorWriter
}

func NewAuthHandler(logger *zap.Logger, authSvc *service.AuthService, exposeDetails bool) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		authSvc: authSvc,
		errs:    errorWriter{logger: logger, exposeDetails: exposeDetails},
	}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name          string  `json:"name"`
		LastName      string  `json:"last_name"`
		Email         string  `json:"email"`
		Password      string  `json:"password"`
		Weight        float64 `json:"weight"`
		Height        float64 `json:"height"`
		Gender        string  `json:"gender"`
		Birthdate     string  `json:"birthdate"`
		ActivityLevel string  `json:"activity_level"`
		Objective     string  `json:"objective"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	res, err := h.authSvc.Register(c.Request.Context(), service.RegisterInput{
		Name:          req.Name,
		LastName:      req.LastName,
		Email:         req.Email,
		Password:      req.Password,
		Weight:        req.Weight,
		Height:        req.Height,
		Gender:        req.Gender,
		Birthdate:     req.Birthdate,
		ActivityLevel: req.ActivityLevel,
		Objective:     req.Objective,
	})
	if err != nil {
		h.errs.write(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":      "requires_2fa",
		"message":     "Registro exitoso. Se ha enviado un código de verificación a tu email.",
		"tempToken":   res.TempToken,
		"email":       res.Email,
		"requires2FA": true,
	})
}

// Verify maneja POST /api/auth/verify-2fa.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		Code      string `json:"code"`
		TempToken string `json:"tempToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verify request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Email y código son requeridos")
		return
	}

	res, err := h.authSvc.Verify(c.Request.Context(), req.Email, req.Code, req.TempToken)
	if err != nil {
		h.errs.write(c, "verify", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Verificación exitosa. Bienvenido a NutriTrack!",
		"token":   res.Token,
		"user":    res.User,
	})
}

// Resend maneja POST /api/auth/resend-2fa.
func (h *AuthHandler) Resend(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		TempToken string `json:"tempToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	emailAddr, err := h.authSvc.Resend(c.Request.Context(), req.Email, req.TempToken)
	if err != nil {
		h.errs.write(c, "resend", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Nuevo código enviado a tu email",
		"email":   emailAddr,
	})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Email y contraseña son requeridos")
		return
	}

	res, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.write(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"token":  res.Token,
		"user":   res.User,
	})
}

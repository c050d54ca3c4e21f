package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutritrack/internal/service"
)

// ProfileHandler sirve los datos del usuario autenticado. Las rutas con
// :userId pasan antes por RequireOwner.
type ProfileHandler struct {
	logger     *zap.Logger
	profileSvc *service.ProfileService
	errs       errorWriter
}

func NewProfileHandler(logger *zap.Logger, profileSvc *service.ProfileService, exposeDetails bool) *ProfileHandler {
	return &ProfileHandler{
		logger:     logger,
		profileSvc: profileSvc,
		errs:       errorWriter{logger: logger, exposeDetails: exposeDetails},
	}
}

// GetProfile maneja GET /api/auth/profile/:userId.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileSvc.GetProfile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.errs.write(c, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": profile})
}

// GetNutritionRequirements maneja GET /api/auth/nutritional-requirements/:userId.
func (h *ProfileHandler) GetNutritionRequirements(c *gin.Context) {
	target, err := h.profileSvc.GetNutritionRequirements(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No se encontraron requisitos nutricionales")
			return
		}
		h.errs.write(c, "get nutrition requirements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "requirements": target})
}

// UpdateNutritionRequirements maneja PUT /api/auth/nutrition_requirements/:userId.
func (h *ProfileHandler) UpdateNutritionRequirements(c *gin.Context) {
	var req struct {
		Weight        *float64 `json:"weight"`
		Height        *float64 `json:"height"`
		ActivityLevel *string  `json:"activity_level"`
		Objective     *string  `json:"objective"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid nutrition requirements request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	target, err := h.profileSvc.UpdateNutritionRequirements(c.Request.Context(), c.Param("userId"), service.RequirementsUpdate{
		Weight:        req.Weight,
		Height:        req.Height,
		ActivityLevel: req.ActivityLevel,
		Objective:     req.Objective,
	})
	if err != nil {
		h.errs.write(c, "update nutrition requirements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "macronutrientes": target})
}

// GetWeightHistory maneja GET /api/auth/weight-history/:userId.
func (h *ProfileHandler) GetWeightHistory(c *gin.Context) {
	history, err := h.profileSvc.GetWeightHistory(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.errs.write(c, "get weight history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "weightHistory": history})
}

// GetTodayConsumption maneja GET /api/auth/today-consumption/:userId.
func (h *ProfileHandler) GetTodayConsumption(c *gin.Context) {
	totals, err := h.profileSvc.GetTodayConsumption(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.errs.write(c, "get today consumption", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "consumption": totals})
}

// ChangePassword maneja PUT /api/auth/change_password/:userId.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid change password request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Todos los campos son requeridos")
		return
	}

	err := h.profileSvc.ChangePassword(c.Request.Context(), c.Param("userId"), req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			abortWithError(c, http.StatusUnauthorized, "Contraseña antigua incorrecta")
			return
		}
		h.errs.write(c, "change password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Contraseña actualizada correctamente"})
}

// LogWeight maneja POST /api/weight/log.
func (h *ProfileHandler) LogWeight(c *gin.Context) {
	var req struct {
		UserID string  `json:"userId"`
		Weight float64 `json:"weight"`
		Date   string  `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid weight log request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	personID, err := subjectFor(c, req.UserID)
	if err != nil {
		h.errs.write(c, "log weight", err)
		return
	}

	target, err := h.profileSvc.RecordWeight(c.Request.Context(), personID, req.Weight, req.Date)
	if err != nil {
		h.errs.write(c, "log weight", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "requirements": target})
}

// LogFood maneja POST /api/nutrition/log-food.
func (h *ProfileHandler) LogFood(c *gin.Context) {
	var req struct {
		UserID        string  `json:"userId"`
		Barcode       string  `json:"barcode"`
		QuantityGrams float64 `json:"quantity_grams"`
		Date          string  `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid log food request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	personID, err := subjectFor(c, req.UserID)
	if err != nil {
		h.errs.write(c, "log food", err)
		return
	}

	consumption, err := h.profileSvc.LogConsumption(c.Request.Context(), personID, req.Barcode, req.QuantityGrams, req.Date)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Alimento no encontrado")
			return
		}
		h.errs.write(c, "log food", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "consumption": consumption})
}

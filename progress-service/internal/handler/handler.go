package handler

import (
	"museo-server/progress-service/internal/service"
	"museo-server/shared/interfaces"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProgressHandler struct {
	service            service.ProgressService
	verifier           interfaces.TokenVerifier
	interServiceSecret string
	logger             *zap.Logger
}

func NewProgressHandler(svc service.ProgressService, verifier interfaces.TokenVerifier, interServiceSecret string, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:            svc,
		verifier:           verifier,
		interServiceSecret: interServiceSecret,
		logger:             logger.Named("ProgressHandler"),
	}
}

// RegisterRoutes mounts the user API and the internal API. finalCodeLimiter runs
// after authentication on the final-code route only; nil disables it.
func (h *ProgressHandler) RegisterRoutes(router *gin.Engine, finalCodeLimiter gin.HandlerFunc) {
	api := router.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/rooms", h.listRooms)
		api.GET("/rooms/:room_id", h.getRoom)
		api.POST("/hints/:hint_id/complete", h.completeHint)
		if finalCodeLimiter != nil {
			api.POST("/rooms/:room_id/verify", finalCodeLimiter, h.verifyFinalCode)
		} else {
			api.POST("/rooms/:room_id/verify", h.verifyFinalCode)
		}
		api.GET("/me/progress", h.getProgress)
	}

	internal := router.Group("/internal/users/:user_id")
	internal.Use(h.InternalAuthMiddleware())
	{
		internal.POST("/progress/init", h.initializeUserInternal)
		internal.POST("/hints/:hint_id/complete", h.completeHintInternal)
	}
}

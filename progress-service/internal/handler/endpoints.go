package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"museo-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type verifyFinalCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type initializeUserResponse struct {
	UnlockedRoomIDs []int `json:"unlockedRoomIds"`
}

func (h *ProgressHandler) listRooms(c *gin.Context) {
	userID, ok := h.userIDFromContext(c)
	if !ok {
		return
	}
	rooms, err := h.service.ListRooms(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *ProgressHandler) getRoom(c *gin.Context) {
	userID, ok := h.userIDFromContext(c)
	if !ok {
		return
	}
	roomID, err := parseIDParam(c, "room_id")
	if err != nil {
		handleServiceError(c, err)
		return
	}
	detail, err := h.service.GetRoomHints(c.Request.Context(), userID, roomID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ProgressHandler) completeHint(c *gin.Context) {
	userID, ok := h.userIDFromContext(c)
	if !ok {
		return
	}
	h.doCompleteHint(c, userID)
}

func (h *ProgressHandler) verifyFinalCode(c *gin.Context) {
	userID, ok := h.userIDFromContext(c)
	if !ok {
		return
	}
	roomID, err := parseIDParam(c, "room_id")
	if err != nil {
		handleServiceError(c, err)
		return
	}
	var req verifyFinalCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid final code request body", zap.Stringer("userID", userID), zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: field 'code' is required", models.ErrBadRequest))
		return
	}

	res, err := h.service.VerifyFinalCode(c.Request.Context(), userID, roomID, req.Code)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProgressHandler) getProgress(c *gin.Context) {
	userID, ok := h.userIDFromContext(c)
	if !ok {
		return
	}
	summary, err := h.service.GetProgress(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- Internal API ---

func (h *ProgressHandler) initializeUserInternal(c *gin.Context) {
	userID, err := parseUUIDParam(c, "user_id")
	if err != nil {
		handleServiceError(c, err)
		return
	}
	unlocked, err := h.service.InitializeUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, initializeUserResponse{UnlockedRoomIDs: unlocked})
}

// completeHintInternal is called when a survey reports a finished hint on the user's behalf.
func (h *ProgressHandler) completeHintInternal(c *gin.Context) {
	userID, err := parseUUIDParam(c, "user_id")
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.doCompleteHint(c, userID)
}

func (h *ProgressHandler) doCompleteHint(c *gin.Context, userID uuid.UUID) {
	hintID, err := parseIDParam(c, "hint_id")
	if err != nil {
		handleServiceError(c, err)
		return
	}
	res, err := h.service.CompleteHint(c.Request.Context(), userID, hintID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Helpers ---

func (h *ProgressHandler) userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get("user_id")
	userID, ok := val.(uuid.UUID)
	if !exists || !ok || userID == uuid.Nil {
		h.logger.Error("user_id missing from gin context after AuthMiddleware", zap.String("path", c.FullPath()))
		handleServiceError(c, models.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, name string) (int, error) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", models.ErrBadRequest, name, raw)
	}
	return id, nil
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", models.ErrBadRequest, name, raw)
	}
	return id, nil
}

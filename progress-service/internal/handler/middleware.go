package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"museo-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *ProgressHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			h.logger.Warn("Authorization header missing")
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			h.logger.Warn("Invalid Authorization header format")
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		claims, err := h.verifier.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			h.logger.Warn("Access token verification failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("access", "success").Inc()
		c.Set("user_id", claims.UserID)
		c.Request = c.Request.WithContext(models.WithUser(c.Request.Context(), claims.UserID, claims.Roles))
		c.Next()
	}
}

// InternalAuthMiddleware admits callers presenting the shared inter-service secret.
func (h *ProgressHandler) InternalAuthMiddleware() gin.HandlerFunc {
	staticSecret := h.interServiceSecret
	if staticSecret == "" {
		h.logger.Warn("INTER_SERVICE_SECRET is not configured; internal routes will reject every request")
	}

	return func(c *gin.Context) {
		token := c.GetHeader("X-Internal-Service-Token")
		if token == "" {
			tokenVerificationsTotal.WithLabelValues("inter-service", "failure").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeTokenInvalid,
				Message: "Missing internal service token",
			})
			return
		}
		if staticSecret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(staticSecret)) != 1 {
			h.logger.Warn("Invalid internal service token", zap.String("path", c.FullPath()))
			tokenVerificationsTotal.WithLabelValues("inter-service", "failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}
		tokenVerificationsTotal.WithLabelValues("inter-service", "success").Inc()
		c.Next()
	}
}

// FinalCodeRateLimitKey keys the final-code limiter by authenticated user,
// falling back to the client IP.
func FinalCodeRateLimitKey(c *gin.Context) string {
	if userID, ok := c.Get("user_id"); ok {
		if id, ok := userID.(uuid.UUID); ok {
			return "final_code:" + id.String()
		}
	}
	return "final_code:ip:" + c.ClientIP()
}

// RateLimitExceeded replies 429 in the service's error format.
func RateLimitExceeded(c *gin.Context, retryAfter string) {
	zap.L().Warn("Rate limit exceeded",
		zap.String("clientIP", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
		Code:    models.ErrCodeTooManyRequests,
		Message: "Too many attempts. Try again in " + retryAfter,
	})
}

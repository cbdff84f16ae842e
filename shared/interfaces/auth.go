package interfaces

import (
	"context"

	"museo-server/shared/models"
)

// TokenVerifier validates access tokens issued by the auth service.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error)
}

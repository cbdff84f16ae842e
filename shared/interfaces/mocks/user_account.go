package mocks

import (
	"context"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// UserAccount is a testify mock for interfaces.UserAccount.
type UserAccount struct {
	mock.Mock
}

var _ interfaces.UserAccount = (*UserAccount)(nil)

func (m *UserAccount) GetUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, querier, userID)
	var user *models.User
	if u := args.Get(0); u != nil {
		user = u.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserAccount) LockUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, querier, userID)
	var user *models.User
	if u := args.Get(0); u != nil {
		user = u.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserAccount) AddPoints(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, delta int) (int, error) {
	args := m.Called(ctx, querier, userID, delta)
	return args.Int(0), args.Error(1)
}

func (m *UserAccount) GetStanding(ctx context.Context, querier interfaces.DBTX, points int) (int, error) {
	args := m.Called(ctx, querier, points)
	return args.Int(0), args.Error(1)
}

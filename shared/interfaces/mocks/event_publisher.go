package mocks

import (
	"context"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/stretchr/testify/mock"
)

// ProgressEventPublisher is a testify mock for interfaces.ProgressEventPublisher.
type ProgressEventPublisher struct {
	mock.Mock
}

var _ interfaces.ProgressEventPublisher = (*ProgressEventPublisher)(nil)

func (m *ProgressEventPublisher) PublishProgressEvent(ctx context.Context, event models.ProgressEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

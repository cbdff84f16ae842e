package interfaces

import (
	"context"

	"museo-server/shared/models"
)

// ProgressEventPublisher defines the interface for publishing progress events.
type ProgressEventPublisher interface {
	PublishProgressEvent(ctx context.Context, event models.ProgressEvent) error
}

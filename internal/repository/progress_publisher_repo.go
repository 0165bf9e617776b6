package repository

//go:generate mockgen -source=$GOFILE -destination=mocks/mock_$GOFILE -package=mocks

import (
	"context"

	"github.com/user/alt-audit-service/internal/progress"
)

// ProgressPublisher forwards progress events to consumers outside the process.
type ProgressPublisher interface {
	Publish(ctx context.Context, event progress.Event) error
	Close() error
}

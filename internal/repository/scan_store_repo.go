package repository

//go:generate mockgen -source=$GOFILE -destination=mocks/mock_$GOFILE -package=mocks

import (
	"context"
	"time"

	"github.com/user/alt-audit-service/internal/entity"
)

// ScanStore keeps scan snapshots for the lifetime of a session.
type ScanStore interface {
	// Create stores a freshly prepared scan, replacing any previous value.
	Create(ctx context.Context, scan *entity.Scan) error
	// SavePage replaces the page at index with a newer snapshot.
	SavePage(ctx context.Context, scanID string, index int, page entity.PageResult) error
	// Finish records the final state of a scan.
	Finish(ctx context.Context, scanID string, state entity.ScanState, finishedAt time.Time) error
	// Get returns a copy of the scan or ErrScanNotFound.
	Get(ctx context.Context, scanID string) (*entity.Scan, error)
}

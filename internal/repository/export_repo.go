package repository

//go:generate mockgen -source=$GOFILE -destination=mocks/mock_$GOFILE -package=mocks

import (
	"context"

	"github.com/user/alt-audit-service/internal/entity"
)

// AuditExportRepository writes finished audits to an external system of
// record. The service never reads exported data back.
type AuditExportRepository interface {
	// SaveScan writes the scan and the images of its completed pages,
	// replacing an earlier export of the same scan.
	SaveScan(ctx context.Context, scan *entity.Scan) error
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_scans (
	id             TEXT PRIMARY KEY,
	requested      INTEGER NOT NULL,
	dropped        INTEGER NOT NULL,
	demo           BOOLEAN NOT NULL,
	state          TEXT NOT NULL,
	total_urls     INTEGER NOT NULL,
	failed_urls    INTEGER NOT NULL,
	total_images   INTEGER NOT NULL,
	missing_alt    INTEGER NOT NULL,
	empty_alt      INTEGER NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ,
	exported_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_pages (
	scan_id          TEXT NOT NULL REFERENCES audit_scans (id) ON DELETE CASCADE,
	page_id          TEXT NOT NULL,
	position         INTEGER NOT NULL,
	url              TEXT NOT NULL,
	status           TEXT NOT NULL,
	images_count     INTEGER NOT NULL,
	missing_alt      INTEGER NOT NULL,
	empty_alt        INTEGER NOT NULL,
	error            TEXT,
	synthetic        BOOLEAN NOT NULL,
	fallback_reason  TEXT,
	PRIMARY KEY (scan_id, page_id)
);

CREATE TABLE IF NOT EXISTS audit_images (
	scan_id    TEXT NOT NULL REFERENCES audit_scans (id) ON DELETE CASCADE,
	image_id   TEXT NOT NULL,
	page_id    TEXT NOT NULL,
	page_url   TEXT NOT NULL,
	image_src  TEXT NOT NULL,
	alt_text   TEXT,
	status     TEXT NOT NULL,
	synthetic  BOOLEAN NOT NULL,
	PRIMARY KEY (scan_id, image_id)
);

CREATE INDEX IF NOT EXISTS audit_images_status_idx ON audit_images (scan_id, status);
`

var (
	pageColumns  = []string{"scan_id", "page_id", "position", "url", "status", "images_count", "missing_alt", "empty_alt", "error", "synthetic", "fallback_reason"}
	imageColumns = []string{"scan_id", "image_id", "page_id", "page_url", "image_src", "alt_text", "status", "synthetic"}
)

// DB is satisfied by *pgxpool.Pool and *pgx.Conn.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditExportRepoImpl writes finished scans into PostgreSQL. Rows are only
// ever written; the service keeps its own session state elsewhere.
type AuditExportRepoImpl struct {
	db  DB
	now func() time.Time
}

var _ repository.AuditExportRepository = (*AuditExportRepoImpl)(nil)

func NewAuditExportRepo(db DB) *AuditExportRepoImpl {
	return &AuditExportRepoImpl{db: db, now: time.Now}
}

// EnsureSchema creates the export tables when they do not exist yet.
func (r *AuditExportRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// SaveScan upserts the scan summary and replaces its page and image rows in
// a single transaction. Exporting the same scan twice leaves one copy.
func (r *AuditExportRepoImpl) SaveScan(ctx context.Context, scan *entity.Scan) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		stats := scan.Stats()
		_, err := tx.Exec(ctx, `
			INSERT INTO audit_scans (id, requested, dropped, demo, state, total_urls, failed_urls, total_images, missing_alt, empty_alt, created_at, finished_at, exported_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				requested = EXCLUDED.requested,
				dropped = EXCLUDED.dropped,
				demo = EXCLUDED.demo,
				state = EXCLUDED.state,
				total_urls = EXCLUDED.total_urls,
				failed_urls = EXCLUDED.failed_urls,
				total_images = EXCLUDED.total_images,
				missing_alt = EXCLUDED.missing_alt,
				empty_alt = EXCLUDED.empty_alt,
				created_at = EXCLUDED.created_at,
				finished_at = EXCLUDED.finished_at,
				exported_at = EXCLUDED.exported_at;`,
			scan.ID,
			scan.Requested,
			scan.Dropped,
			scan.Demo,
			string(scan.State),
			stats.TotalURLs,
			stats.FailedURLs,
			stats.TotalImages,
			stats.MissingAltImages,
			stats.EmptyAltImages,
			scan.CreatedAt,
			scan.FinishedAt,
			r.now(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert scan %s: %w", scan.ID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM audit_images WHERE scan_id = $1;`, scan.ID); err != nil {
			return fmt.Errorf("failed to clear images of scan %s: %w", scan.ID, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM audit_pages WHERE scan_id = $1;`, scan.ID); err != nil {
			return fmt.Errorf("failed to clear pages of scan %s: %w", scan.ID, err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"audit_pages"}, pageColumns, pgx.CopyFromRows(pageRows(scan))); err != nil {
			return fmt.Errorf("failed to copy pages of scan %s: %w", scan.ID, err)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"audit_images"}, imageColumns, pgx.CopyFromRows(imageRows(scan))); err != nil {
			return fmt.Errorf("failed to copy images of scan %s: %w", scan.ID, err)
		}
		return nil
	})
}

func pageRows(scan *entity.Scan) [][]any {
	rows := make([][]any, 0, len(scan.Pages))
	for i, p := range scan.Pages {
		rows = append(rows, []any{
			scan.ID,
			p.ID,
			i,
			p.URL,
			string(p.Status),
			p.ImagesCount,
			p.MissingAltCount,
			p.EmptyAltCount,
			nullIfEmpty(p.Error),
			p.Synthetic,
			nullIfEmpty(p.FallbackReason),
		})
	}
	return rows
}

// imageRows covers completed pages only. A missing alt attribute becomes
// NULL so it stays distinct from an empty one.
func imageRows(scan *entity.Scan) [][]any {
	var rows [][]any
	for _, p := range scan.Pages {
		if p.Status != entity.StatusCompleted {
			continue
		}
		for _, img := range p.Images {
			rows = append(rows, []any{
				scan.ID,
				img.ID,
				img.PageID,
				img.PageURL,
				img.ImageSrc,
				img.AltText.Ptr(),
				string(img.Status),
				img.Synthetic,
			})
		}
	}
	return rows
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

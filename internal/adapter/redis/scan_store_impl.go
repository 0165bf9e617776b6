package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/repository"
)

const (
	scanKeyPrefix = "altaudit:scan:"
	metaField     = "meta"
	pageFieldPref = "page:"
)

// scanMeta is the scan without its pages. Pages live in their own hash
// fields so a snapshot update rewrites a single page.
type scanMeta struct {
	ID         string           `json:"id"`
	PageCount  int              `json:"page_count"`
	Requested  int              `json:"requested"`
	Dropped    int              `json:"dropped"`
	Demo       bool             `json:"demo"`
	State      entity.ScanState `json:"state"`
	CreatedAt  time.Time        `json:"created_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// ScanStoreImpl keeps each scan in one Redis hash that expires after the
// retention period.
type ScanStoreImpl struct {
	client    redis.Cmdable
	retention time.Duration
}

var _ repository.ScanStore = (*ScanStoreImpl)(nil)

// NewScanStore creates a store. A zero retention keeps scans until they are
// overwritten.
func NewScanStore(client redis.Cmdable, retention time.Duration) *ScanStoreImpl {
	return &ScanStoreImpl{client: client, retention: retention}
}

func scanKey(scanID string) string {
	return scanKeyPrefix + scanID
}

func pageField(index int) string {
	return pageFieldPref + strconv.Itoa(index)
}

func (s *ScanStoreImpl) Create(ctx context.Context, scan *entity.Scan) error {
	fields, err := encodeScan(scan)
	if err != nil {
		return err
	}
	key := scanKey(scan.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		if s.retention > 0 {
			pipe.Expire(ctx, key, s.retention)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store scan %s: %w", scan.ID, err)
	}
	return nil
}

func (s *ScanStoreImpl) SavePage(ctx context.Context, scanID string, index int, page entity.PageResult) error {
	meta, err := s.meta(ctx, scanID)
	if err != nil {
		return err
	}
	if index < 0 || index >= meta.PageCount {
		return fmt.Errorf("page index %d out of range for scan %s", index, scanID)
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode page %s: %w", page.ID, err)
	}
	return s.client.HSet(ctx, scanKey(scanID), pageField(index), raw).Err()
}

func (s *ScanStoreImpl) Finish(ctx context.Context, scanID string, state entity.ScanState, finishedAt time.Time) error {
	meta, err := s.meta(ctx, scanID)
	if err != nil {
		return err
	}
	meta.State = state
	meta.FinishedAt = &finishedAt
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode scan %s: %w", scanID, err)
	}
	return s.client.HSet(ctx, scanKey(scanID), metaField, raw).Err()
}

func (s *ScanStoreImpl) Get(ctx context.Context, scanID string) (*entity.Scan, error) {
	fields, err := s.client.HGetAll(ctx, scanKey(scanID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load scan %s: %w", scanID, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrScanNotFound, scanID)
	}
	return decodeScan(scanID, fields)
}

func (s *ScanStoreImpl) meta(ctx context.Context, scanID string) (*scanMeta, error) {
	raw, err := s.client.HGet(ctx, scanKey(scanID), metaField).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", repository.ErrScanNotFound, scanID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scan %s: %w", scanID, err)
	}
	var meta scanMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("corrupt scan %s: %w", scanID, err)
	}
	return &meta, nil
}

// encodeScan flattens a scan into hash fields.
func encodeScan(scan *entity.Scan) (map[string]any, error) {
	meta := scanMeta{
		ID:         scan.ID,
		PageCount:  len(scan.Pages),
		Requested:  scan.Requested,
		Dropped:    scan.Dropped,
		Demo:       scan.Demo,
		State:      scan.State,
		CreatedAt:  scan.CreatedAt,
		FinishedAt: scan.FinishedAt,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scan %s: %w", scan.ID, err)
	}
	fields := map[string]any{metaField: string(raw)}
	for i, p := range scan.Pages {
		pageRaw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %s: %w", p.ID, err)
		}
		fields[pageField(i)] = string(pageRaw)
	}
	return fields, nil
}

func decodeScan(scanID string, fields map[string]string) (*entity.Scan, error) {
	raw, ok := fields[metaField]
	if !ok {
		return nil, fmt.Errorf("corrupt scan %s: missing %s field", scanID, metaField)
	}
	var meta scanMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("corrupt scan %s: %w", scanID, err)
	}

	scan := &entity.Scan{
		ID:         meta.ID,
		Pages:      make([]entity.PageResult, meta.PageCount),
		Requested:  meta.Requested,
		Dropped:    meta.Dropped,
		Demo:       meta.Demo,
		State:      meta.State,
		CreatedAt:  meta.CreatedAt,
		FinishedAt: meta.FinishedAt,
	}
	for field, value := range fields {
		idxText, isPage := strings.CutPrefix(field, pageFieldPref)
		if !isPage {
			continue
		}
		idx, err := strconv.Atoi(idxText)
		if err != nil || idx < 0 || idx >= meta.PageCount {
			return nil, fmt.Errorf("corrupt scan %s: unexpected field %q", scanID, field)
		}
		if err := json.Unmarshal([]byte(value), &scan.Pages[idx]); err != nil {
			return nil, fmt.Errorf("corrupt scan %s page %d: %w", scanID, idx, err)
		}
	}
	return scan, nil
}

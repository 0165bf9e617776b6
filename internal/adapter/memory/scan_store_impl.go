package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/repository"
)

type storedScan struct {
	scan     *entity.Scan
	storedAt time.Time
}

// ScanStoreImpl keeps scans in process memory. Scans older than the
// retention period are evicted lazily.
type ScanStoreImpl struct {
	mu        sync.RWMutex
	scans     map[string]*storedScan
	retention time.Duration
	now       func() time.Time
}

// NewScanStore creates a store. A zero retention keeps scans forever.
func NewScanStore(retention time.Duration) *ScanStoreImpl {
	return &ScanStoreImpl{
		scans:     make(map[string]*storedScan),
		retention: retention,
		now:       time.Now,
	}
}

func (s *ScanStoreImpl) Create(_ context.Context, scan *entity.Scan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	s.scans[scan.ID] = &storedScan{scan: cloneScan(scan), storedAt: s.now()}
	return nil
}

func (s *ScanStoreImpl) SavePage(_ context.Context, scanID string, index int, page entity.PageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.scans[scanID]
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrScanNotFound, scanID)
	}
	if index < 0 || index >= len(stored.scan.Pages) {
		return fmt.Errorf("page index %d out of range for scan %s", index, scanID)
	}
	stored.scan.Pages[index] = page.Snapshot()
	return nil
}

func (s *ScanStoreImpl) Finish(_ context.Context, scanID string, state entity.ScanState, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.scans[scanID]
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrScanNotFound, scanID)
	}
	stored.scan.State = state
	stored.scan.FinishedAt = &finishedAt
	return nil
}

func (s *ScanStoreImpl) Get(_ context.Context, scanID string) (*entity.Scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.scans[scanID]
	if !ok || s.expired(stored) {
		return nil, fmt.Errorf("%w: %s", repository.ErrScanNotFound, scanID)
	}
	return cloneScan(stored.scan), nil
}

func (s *ScanStoreImpl) expired(stored *storedScan) bool {
	return s.retention > 0 && s.now().Sub(stored.storedAt) > s.retention
}

func (s *ScanStoreImpl) evictExpired() {
	for id, stored := range s.scans {
		if s.expired(stored) {
			delete(s.scans, id)
		}
	}
}

func cloneScan(scan *entity.Scan) *entity.Scan {
	c := *scan
	c.Pages = make([]entity.PageResult, len(scan.Pages))
	for i, p := range scan.Pages {
		c.Pages[i] = p.Snapshot()
	}
	if scan.FinishedAt != nil {
		t := *scan.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

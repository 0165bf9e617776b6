package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/progress"
	"github.com/user/alt-audit-service/internal/repository"
)

var (
	ErrNoURLs         = errors.New("no URLs to scan")
	ErrExportDisabled = errors.New("database export is not configured")
	ErrScanRunning    = errors.New("scan is still running")
)

const storeTimeout = 5 * time.Second

// SubmitOptions tunes a single submitted scan.
type SubmitOptions struct {
	Demo bool
}

// ScanManager runs submitted scans in the background and mirrors their
// progress into a ScanStore and any external publishers.
type ScanManager struct {
	orchestrator *ScanOrchestrator
	store        repository.ScanStore
	hub          *progress.Hub
	publishers   []repository.ProgressPublisher
	exporter     repository.AuditExportRepository
	logger       *zap.Logger

	baseCtx     context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()

	mu      sync.Mutex
	running map[string]chan struct{}
}

type ManagerOption func(*ScanManager)

// WithPublishers forwards every progress event to the given publishers.
func WithPublishers(publishers ...repository.ProgressPublisher) ManagerOption {
	return func(m *ScanManager) {
		m.publishers = append(m.publishers, publishers...)
	}
}

// WithExporter enables Export.
func WithExporter(exporter repository.AuditExportRepository) ManagerOption {
	return func(m *ScanManager) {
		m.exporter = exporter
	}
}

// NewScanManager subscribes to hub, which must be the publisher the
// orchestrator reports to.
func NewScanManager(
	orchestrator *ScanOrchestrator,
	store repository.ScanStore,
	hub *progress.Hub,
	logger *zap.Logger,
	opts ...ManagerOption,
) *ScanManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &ScanManager{
		orchestrator: orchestrator,
		store:        store,
		hub:          hub,
		logger:       logger,
		baseCtx:      ctx,
		cancel:       cancel,
		running:      make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.unsubscribe = hub.Subscribe(m.mirror)
	return m
}

// Hub returns the hub progress is published on.
func (m *ScanManager) Hub() *progress.Hub {
	return m.hub
}

func (m *ScanManager) ExportEnabled() bool {
	return m.exporter != nil
}

// Submit prepares a scan over urls, stores its skeleton and starts it in the
// background. The returned scan is a copy taken before scanning started.
func (m *ScanManager) Submit(ctx context.Context, urls []string, opts SubmitOptions) (*entity.Scan, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	if err := m.baseCtx.Err(); err != nil {
		return nil, fmt.Errorf("scan manager is shut down: %w", err)
	}

	scan := m.orchestrator.Prepare(urls, opts.Demo)
	if err := m.store.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to store scan %s: %w", scan.ID, err)
	}
	accepted := copyScan(scan)

	done := make(chan struct{})
	m.mu.Lock()
	m.running[scan.ID] = done
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.running, scan.ID)
			m.mu.Unlock()
			close(done)
		}()

		if err := m.orchestrator.Run(m.baseCtx, scan); err != nil {
			m.logger.Warn("scan stopped early", zap.String("scan_id", scan.ID), zap.Error(err))
		}
	}()

	m.logger.Info("scan submitted",
		zap.String("scan_id", scan.ID),
		zap.Int("urls", len(scan.Pages)),
		zap.Int("dropped", scan.Dropped),
		zap.Bool("demo", scan.Demo),
	)
	return accepted, nil
}

func (m *ScanManager) Get(ctx context.Context, scanID string) (*entity.Scan, error) {
	return m.store.Get(ctx, scanID)
}

// Wait blocks until the scan has finished or ctx is done.
func (m *ScanManager) Wait(ctx context.Context, scanID string) error {
	m.mu.Lock()
	done, ok := m.running[scanID]
	m.mu.Unlock()
	if !ok {
		_, err := m.store.Get(ctx, scanID)
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Export writes a finished scan to the configured export repository.
func (m *ScanManager) Export(ctx context.Context, scanID string) error {
	if m.exporter == nil {
		return ErrExportDisabled
	}
	scan, err := m.store.Get(ctx, scanID)
	if err != nil {
		return err
	}
	if scan.State == entity.ScanRunning {
		return ErrScanRunning
	}
	if err := m.exporter.SaveScan(ctx, scan); err != nil {
		return fmt.Errorf("failed to export scan %s: %w", scanID, err)
	}
	return nil
}

// Shutdown cancels running scans and waits for them to wind down.
func (m *ScanManager) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	m.unsubscribe()
	for _, p := range m.publishers {
		if cerr := p.Close(); cerr != nil {
			m.logger.Warn("failed to close progress publisher", zap.Error(cerr))
		}
	}
	return err
}

// mirror persists page snapshots and the final state, then forwards the
// event to external publishers.
func (m *ScanManager) mirror(e progress.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	switch e.Kind {
	case progress.KindPage:
		if e.Page != nil {
			if err := m.store.SavePage(ctx, e.ScanID, e.Index, *e.Page); err != nil {
				m.logger.Error("failed to store page snapshot",
					zap.String("scan_id", e.ScanID), zap.Int("index", e.Index), zap.Error(err))
			}
		}
	case progress.KindFinished:
		if err := m.store.Finish(ctx, e.ScanID, e.State, e.At); err != nil {
			m.logger.Error("failed to store scan result", zap.String("scan_id", e.ScanID), zap.Error(err))
		}
	}

	for _, p := range m.publishers {
		if err := p.Publish(ctx, e); err != nil {
			m.logger.Warn("failed to publish progress", zap.String("scan_id", e.ScanID), zap.Error(err))
		}
	}
}

func copyScan(scan *entity.Scan) *entity.Scan {
	c := *scan
	c.Pages = make([]entity.PageResult, len(scan.Pages))
	for i, p := range scan.Pages {
		c.Pages[i] = p.Snapshot()
	}
	return &c
}

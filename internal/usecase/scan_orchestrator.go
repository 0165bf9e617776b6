package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/progress"
	"github.com/user/alt-audit-service/pkg/metrics"
)

// ScanConfig tunes the scan pipeline.
type ScanConfig struct {
	// BatchSize is the number of pages scanned concurrently. Values below 1
	// scan one page at a time.
	BatchSize int
	// InterBatchDelay is the pause between two consecutive batches. Zero
	// starts the next batch immediately.
	InterBatchDelay time.Duration
	// FetchTimeout bounds the live retrieval of a single page.
	FetchTimeout time.Duration
	// MaxURLs caps the number of pages in one scan. Extra URLs are dropped
	// with a warning. Zero means no cap.
	MaxURLs int
	// DemoDelay is how long a demo scan pretends to fetch each page.
	DemoDelay time.Duration
}

func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		BatchSize:       5,
		InterBatchDelay: time.Second,
		FetchTimeout:    10 * time.Second,
		MaxURLs:         100,
		DemoDelay:       1500 * time.Millisecond,
	}
}

// ScanOrchestrator runs the page scanner over an ordered list of URLs in
// fixed-size concurrent batches.
type ScanOrchestrator struct {
	cfg       ScanConfig
	scanner   *PageScanner
	publisher progress.Publisher
	logger    *zap.Logger
}

func NewScanOrchestrator(cfg ScanConfig, scanner *PageScanner, publisher progress.Publisher, logger *zap.Logger) *ScanOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if publisher == nil {
		publisher = progress.NewHub(logger)
	}
	return &ScanOrchestrator{
		cfg:       cfg,
		scanner:   scanner,
		publisher: publisher,
		logger:    logger,
	}
}

// Prepare builds a running scan with one pending page per URL, keeping the
// input order. URLs beyond MaxURLs are dropped and counted in Dropped.
func (o *ScanOrchestrator) Prepare(urls []string, demo bool) *entity.Scan {
	requested := len(urls)
	dropped := 0
	if o.cfg.MaxURLs > 0 && len(urls) > o.cfg.MaxURLs {
		dropped = len(urls) - o.cfg.MaxURLs
		urls = urls[:o.cfg.MaxURLs]
		o.logger.Warn("URL list truncated",
			zap.Int("requested", requested),
			zap.Int("limit", o.cfg.MaxURLs),
			zap.Int("dropped", dropped),
		)
	}

	pages := make([]entity.PageResult, len(urls))
	for i, u := range urls {
		pages[i] = entity.NewPageResult(uuid.NewString(), u)
	}

	return &entity.Scan{
		ID:        ulid.Make().String(),
		Pages:     pages,
		Requested: requested,
		Dropped:   dropped,
		Demo:      demo,
		State:     entity.ScanRunning,
		CreatedAt: time.Now(),
	}
}

// Run scans every page of scan and updates scan.Pages in place. All pending
// pages are published before the first batch starts. When ctx is cancelled
// the remaining pages move through processing to failed, a finished event is still published and
// ctx.Err() is returned.
func (o *ScanOrchestrator) Run(ctx context.Context, scan *entity.Scan) error {
	metrics.ScanStarted()
	defer metrics.ScanFinished()

	for i := range scan.Pages {
		o.publish(scan.ID, i, scan.Pages[i])
	}

	n := len(scan.Pages)
	for start := 0; start < n; start += o.cfg.BatchSize {
		if start > 0 {
			if err := sleepContext(ctx, o.cfg.InterBatchDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		end := min(start+o.cfg.BatchSize, n)
		o.logger.Debug("starting batch", zap.String("scan_id", scan.ID), zap.Int("from", start), zap.Int("to", end))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				emit := func(p entity.PageResult) { o.publish(scan.ID, i, p) }
				scan.Pages[i] = o.scanner.Scan(ctx, scan.Pages[i], scan.Demo, emit)
			}()
		}
		wg.Wait()
	}

	err := ctx.Err()
	scan.State = entity.ScanFinished
	if err != nil {
		scan.State = entity.ScanCancelled
		for i := range scan.Pages {
			if scan.Pages[i].Status.Terminal() {
				continue
			}
			if scan.Pages[i].Status == entity.StatusPending {
				if startErr := scan.Pages[i].StartProcessing(); startErr != nil {
					continue
				}
				o.publish(scan.ID, i, scan.Pages[i])
			}
			if failErr := scan.Pages[i].Fail(msgCancelled); failErr == nil {
				o.publish(scan.ID, i, scan.Pages[i])
			}
		}
	}
	finishedAt := time.Now()
	scan.FinishedAt = &finishedAt

	o.publisher.Publish(progress.FinishedEvent(scan.ID, scan.State, scan.Stats()))
	return err
}

// Scan prepares and runs a scan over urls.
func (o *ScanOrchestrator) Scan(ctx context.Context, urls []string, demo bool) (*entity.Scan, error) {
	scan := o.Prepare(urls, demo)
	err := o.Run(ctx, scan)
	return scan, err
}

func (o *ScanOrchestrator) publish(scanID string, index int, page entity.PageResult) {
	o.publisher.Publish(progress.PageEvent(scanID, index, page))
}

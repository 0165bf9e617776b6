package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/extractor"
	"github.com/user/alt-audit-service/internal/repository"
	"github.com/user/alt-audit-service/internal/synthetic"
	"github.com/user/alt-audit-service/pkg/metrics"
	"github.com/user/alt-audit-service/pkg/utils"
)

const (
	msgCancelled  = "scan cancelled"
	reasonParse   = "parse"
	reasonNoFetch = "no_fetcher"
)

// Emitter receives a snapshot of a page after each state change.
type Emitter func(entity.PageResult)

// outcome is the result of live retrieval: either extracted or unavailable.
type outcome interface {
	isOutcome()
}

type extracted struct {
	images []entity.ImageEntry
}

type unavailable struct {
	reason string
	err    error
}

func (extracted) isOutcome()   {}
func (unavailable) isOutcome() {}

// PageScanner scans exactly one URL end to end.
type PageScanner struct {
	fetcher      repository.PageFetcher
	fetchTimeout time.Duration
	demoDelay    time.Duration
	logger       *zap.Logger
}

// NewPageScanner creates a scanner. fetcher may be nil for demo-only use;
// live scans then always fall back to synthetic data.
func NewPageScanner(fetcher repository.PageFetcher, cfg ScanConfig, logger *zap.Logger) *PageScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultScanConfig().FetchTimeout
	}
	return &PageScanner{
		fetcher:      fetcher,
		fetchTimeout: cfg.FetchTimeout,
		demoDelay:    cfg.DemoDelay,
		logger:       logger,
	}
}

// ScanURL creates a pending page for rawURL, emits it and scans it.
func (s *PageScanner) ScanURL(ctx context.Context, rawURL string, demo bool, emit Emitter) entity.PageResult {
	page := entity.NewPageResult(uuid.NewString(), rawURL)
	safeEmit(s.logger, emit, page)
	return s.Scan(ctx, page, demo, emit)
}

// Scan drives a pending page through processing to a terminal state and
// emits a snapshot after every transition. Retrieval failures are answered
// with synthetic data; only bookkeeping failures and panics end in failed.
func (s *PageScanner) Scan(ctx context.Context, page entity.PageResult, demo bool, emit Emitter) (result entity.PageResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("page scan panicked", zap.String("url", page.URL), zap.Any("panic", r))
			result = s.fail(page, fmt.Sprintf("internal error: %v", r), emit)
		}
		metrics.ObservePageScan(utils.Hostname(page.URL), time.Since(start).Seconds())
	}()

	if err := page.StartProcessing(); err != nil {
		return s.fail(page, err.Error(), emit)
	}
	safeEmit(s.logger, emit, page)

	if u, err := url.Parse(page.URL); err != nil || !u.IsAbs() || u.Host == "" {
		return s.fail(page, fmt.Sprintf("invalid page URL %q", page.URL), emit)
	}
	if ctx.Err() != nil {
		return s.fail(page, msgCancelled, emit)
	}

	var (
		images   []entity.ImageEntry
		isSynth  bool
		fallback string
	)
	if demo {
		if err := sleepContext(ctx, s.demoDelay); err != nil {
			return s.fail(page, msgCancelled, emit)
		}
		images, isSynth = synthetic.Generate(page.URL, page.ID, synthetic.ModeDemo), true
	} else {
		switch o := s.retrieve(ctx, page).(type) {
		case extracted:
			images = o.images
		case unavailable:
			if ctx.Err() != nil {
				return s.fail(page, msgCancelled, emit)
			}
			s.logger.Debug("live retrieval unavailable, using synthetic data",
				zap.String("url", page.URL), zap.String("reason", o.reason), zap.Error(o.err))
			images, isSynth, fallback = synthetic.Generate(page.URL, page.ID, synthetic.ModeFallback), true, o.reason
		}
	}

	if err := page.Complete(images, isSynth, fallback); err != nil {
		return s.fail(page, err.Error(), emit)
	}
	if err := page.CheckCounts(); err != nil {
		return s.fail(page, err.Error(), emit)
	}
	safeEmit(s.logger, emit, page)
	return page
}

func (s *PageScanner) retrieve(ctx context.Context, page entity.PageResult) outcome {
	if s.fetcher == nil {
		return unavailable{reason: reasonNoFetch, err: errors.New("no page fetcher configured")}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	fetched, err := s.fetcher.Fetch(fetchCtx, page.URL)
	if err == nil && fetched == nil {
		err = repository.ErrEmptyBody
	}
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, repository.ErrFetchTimeout) {
			err = fmt.Errorf("%w: %w", repository.ErrFetchTimeout, err)
		}
		return unavailable{reason: repository.FailureReason(err), err: err}
	}

	images, err := extractor.Extract(fetched, page.ID)
	if err != nil {
		return unavailable{reason: reasonParse, err: err}
	}
	return extracted{images: images}
}

// fail moves page to failed and emits it. Pages that are already terminal
// are returned unchanged.
func (s *PageScanner) fail(page entity.PageResult, msg string, emit Emitter) entity.PageResult {
	if err := page.Fail(msg); err != nil {
		s.logger.Warn("cannot fail page", zap.String("url", page.URL), zap.Error(err))
		return page
	}
	safeEmit(s.logger, emit, page)
	return page
}

// safeEmit hands a snapshot to emit. Emitter panics are logged and swallowed.
func safeEmit(logger *zap.Logger, emit Emitter, page entity.PageResult) {
	if emit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("progress emitter panicked", zap.String("url", page.URL), zap.Any("panic", r))
		}
	}()
	emit(page.Snapshot())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

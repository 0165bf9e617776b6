package progress

import (
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/pkg/metrics"
)

// LogListener logs every page transition and the end of each scan.
func LogListener(logger *zap.Logger) Listener {
	return func(e Event) {
		if e.Kind == KindFinished {
			fields := []zap.Field{zap.String("scan_id", e.ScanID)}
			if e.Stats != nil {
				fields = append(fields,
					zap.Int("total_urls", e.Stats.TotalURLs),
					zap.Int("failed_urls", e.Stats.FailedURLs),
					zap.Int("total_images", e.Stats.TotalImages),
					zap.Int("missing_alt", e.Stats.MissingAltImages),
					zap.Int("empty_alt", e.Stats.EmptyAltImages),
				)
			}
			logger.Info("scan finished", fields...)
			return
		}

		p := e.Page
		if p == nil {
			return
		}
		fields := []zap.Field{
			zap.String("scan_id", e.ScanID),
			zap.Int("index", e.Index),
			zap.String("url", p.URL),
			zap.String("status", string(p.Status)),
		}
		switch p.Status {
		case entity.StatusCompleted:
			fields = append(fields,
				zap.Int("images", p.ImagesCount),
				zap.Int("missing_alt", p.MissingAltCount),
				zap.Int("empty_alt", p.EmptyAltCount),
			)
			if p.FallbackReason != "" {
				logger.Warn("page answered with synthetic data", append(fields, zap.String("reason", p.FallbackReason))...)
				return
			}
			logger.Info("page scanned", fields...)
		case entity.StatusFailed:
			logger.Warn("page scan failed", append(fields, zap.String("error", p.Error))...)
		default:
			logger.Debug("page status changed", fields...)
		}
	}
}

// MetricsListener records terminal page outcomes.
func MetricsListener() Listener {
	return func(e Event) {
		p := e.Page
		if e.Kind != KindPage || p == nil || !p.Status.Terminal() {
			return
		}
		metrics.PageScanned(string(p.Status), Source(*p))
		if p.Status != entity.StatusCompleted {
			return
		}
		present := p.ImagesCount - p.MissingAltCount - p.EmptyAltCount
		metrics.ImagesClassified(string(entity.AltStatusPresent), present)
		metrics.ImagesClassified(string(entity.AltStatusMissing), p.MissingAltCount)
		metrics.ImagesClassified(string(entity.AltStatusEmpty), p.EmptyAltCount)
		if p.FallbackReason != "" {
			metrics.Fallback(p.FallbackReason)
		}
	}
}

// Source names where the images of p came from: live, fallback or demo.
func Source(p entity.PageResult) string {
	switch {
	case p.FallbackReason != "":
		return "fallback"
	case p.Synthetic:
		return "demo"
	default:
		return "live"
	}
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/repository"
	"github.com/user/alt-audit-service/internal/repository/mocks"
	"github.com/user/alt-audit-service/internal/synthetic"
)

const sampleHTML = `<html><body>
	<img src="/logo.png" alt="Company logo">
	<img src="hero.jpg" alt="">
	<img src="https://cdn.example.org/banner.webp">
</body></html>`

func testConfig() ScanConfig {
	return ScanConfig{
		BatchSize:       5,
		InterBatchDelay: 0,
		FetchTimeout:    time.Second,
		MaxURLs:         100,
		DemoDelay:       0,
	}
}

type recorder struct {
	pages []entity.PageResult
}

func (r *recorder) emit(p entity.PageResult) {
	r.pages = append(r.pages, p)
}

func (r *recorder) statuses() []entity.ProcessingStatus {
	out := make([]entity.ProcessingStatus, len(r.pages))
	for i, p := range r.pages {
		out[i] = p.Status
	}
	return out
}

func htmlPage(url, html string) *repository.FetchedPage {
	return &repository.FetchedPage{URL: url, StatusCode: 200, HTML: html}
}

func TestScanURLLiveExtraction(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), "https://example.com/shop/index.html").
		Return(htmlPage("https://example.com/shop/index.html", sampleHTML), nil)

	scanner := NewPageScanner(fetcher, testConfig(), zap.NewNop())
	rec := &recorder{}

	page := scanner.ScanURL(context.Background(), "https://example.com/shop/index.html", false, rec.emit)

	assert.Equal(t, []entity.ProcessingStatus{entity.StatusPending, entity.StatusProcessing, entity.StatusCompleted}, rec.statuses())
	for _, snap := range rec.pages {
		assert.Equal(t, page.ID, snap.ID)
	}

	require.Equal(t, entity.StatusCompleted, page.Status)
	assert.False(t, page.Synthetic)
	assert.Empty(t, page.FallbackReason)
	assert.Equal(t, 3, page.ImagesCount)
	assert.Equal(t, 1, page.MissingAltCount)
	assert.Equal(t, 1, page.EmptyAltCount)
	assert.NoError(t, page.CheckCounts())

	assert.Equal(t, "https://example.com/logo.png", page.Images[0].ImageSrc)
	assert.Equal(t, "https://example.com/shop/hero.jpg", page.Images[1].ImageSrc)
	for _, img := range page.Images {
		assert.Equal(t, page.ID, img.PageID)
	}
}

func TestScanFallsBackOnRetrievalFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"restricted", repository.ErrContentRestricted, "restricted"},
		{"bad status", repository.ErrBadStatus, "bad_status"},
		{"network", errors.New("connection refused"), "network"},
		{"not html", repository.ErrNotHTML, "not_html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			fetcher := mocks.NewMockPageFetcher(ctrl)
			fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			scanner := NewPageScanner(fetcher, testConfig(), zap.NewNop())
			page := scanner.Scan(context.Background(), entity.NewPageResult("p1", "https://blocked.example.com/"), false, nil)

			require.Equal(t, entity.StatusCompleted, page.Status)
			assert.True(t, page.Synthetic)
			assert.Equal(t, tt.reason, page.FallbackReason)
			assert.Empty(t, page.Error)
			assert.GreaterOrEqual(t, page.ImagesCount, 3)
			assert.NoError(t, page.CheckCounts())

			expected := synthetic.Generate(page.URL, page.ID, synthetic.ModeFallback)
			assert.Equal(t, expected, page.Images)
			for _, img := range page.Images {
				if img.Status == entity.AltStatusPresent {
					assert.True(t, strings.HasSuffix(img.AltText.Text(), synthetic.SyntheticMarker))
				}
			}
		})
	}
}

func TestScanFallsBackOnTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (*repository.FetchedPage, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	cfg := testConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	scanner := NewPageScanner(fetcher, cfg, zap.NewNop())

	page := scanner.Scan(context.Background(), entity.NewPageResult("p1", "https://slow.example.com/"), false, nil)

	require.Equal(t, entity.StatusCompleted, page.Status)
	assert.Equal(t, "timeout", page.FallbackReason)
	assert.True(t, page.Synthetic)
}

func TestScanFallsBackOnUnparsableDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(htmlPage("https://example.com/", "  "), nil)

	scanner := NewPageScanner(fetcher, testConfig(), zap.NewNop())
	page := scanner.Scan(context.Background(), entity.NewPageResult("p1", "https://example.com/"), false, nil)

	require.Equal(t, entity.StatusCompleted, page.Status)
	assert.Equal(t, "parse", page.FallbackReason)
}

func TestScanFailsOnPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string) (*repository.FetchedPage, error) {
			panic("boom")
		})

	scanner := NewPageScanner(fetcher, testConfig(), zap.NewNop())
	rec := &recorder{}
	page := scanner.Scan(context.Background(), entity.NewPageResult("p1", "https://example.com/"), false, rec.emit)

	assert.Equal(t, entity.StatusFailed, page.Status)
	assert.Contains(t, page.Error, "boom")
	assert.Empty(t, page.Images)
	assert.Equal(t, []entity.ProcessingStatus{entity.StatusProcessing, entity.StatusFailed}, rec.statuses())
}

func TestScanFailsOnInvalidURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)

	scanner := NewPageScanner(fetcher, testConfig(), zap.NewNop())
	page := scanner.Scan(context.Background(), entity.NewPageResult("p1", "not a url"), false, nil)

	assert.Equal(t, entity.StatusFailed, page.Status)
	assert.Contains(t, page.Error, "invalid page URL")
}

func TestScanRejectsNonPendingPage(t *testing.T) {
	scanner := NewPageScanner(nil, testConfig(), zap.NewNop())
	done := entity.NewPageResult("p1", "https://example.com/")
	require.NoError(t, done.StartProcessing())
	require.NoError(t, done.Fail("earlier"))

	rec := &recorder{}
	page := scanner.Scan(context.Background(), done, false, rec.emit)

	assert.Equal(t, "earlier", page.Error)
	assert.Empty(t, rec.pages)
}

func TestScanDemoSkipsRetrieval(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)

	scanner := NewPageScanner(fetcher, testConfig(), zap.NewNop())
	page := scanner.Scan(context.Background(), entity.NewPageResult("p1", "https://demo.example.com/"), true, nil)

	require.Equal(t, entity.StatusCompleted, page.Status)
	assert.True(t, page.Synthetic)
	assert.Empty(t, page.FallbackReason)
	for _, img := range page.Images {
		assert.NotContains(t, img.AltText.Text(), synthetic.SyntheticMarker)
	}
}

func TestScanCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewPageScanner(fetcher, testConfig(), zap.NewNop())
	page := scanner.Scan(ctx, entity.NewPageResult("p1", "https://example.com/"), false, nil)

	assert.Equal(t, entity.StatusFailed, page.Status)
	assert.Equal(t, msgCancelled, page.Error)
}

func TestScanSurvivesPanickingEmitter(t *testing.T) {
	scanner := NewPageScanner(nil, testConfig(), zap.NewNop())
	page := scanner.Scan(context.Background(), entity.NewPageResult("p1", "https://example.com/"), true,
		func(entity.PageResult) { panic("listener bug") })

	assert.Equal(t, entity.StatusCompleted, page.Status)
}

func TestScanSnapshotsAreIndependent(t *testing.T) {
	scanner := NewPageScanner(nil, testConfig(), zap.NewNop())
	rec := &recorder{}
	page := scanner.Scan(context.Background(), entity.NewPageResult("p1", "https://example.com/"), true, rec.emit)

	last := rec.pages[len(rec.pages)-1]
	last.Images[0].ImageSrc = "mutated"
	assert.NotEqual(t, "mutated", page.Images[0].ImageSrc)
}

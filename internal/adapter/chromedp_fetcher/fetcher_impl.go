// Package chromedp_fetcher retrieves pages with a headless Chrome so that
// script-rendered markup and computed background images are visible.
package chromedp_fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/repository"
)

// styledImagesJS lists elements other than <img> whose computed style has a
// background image, together with their aria-label.
const styledImagesJS = `(() => {
	const out = [];
	for (const el of document.querySelectorAll('body *')) {
		if (el.tagName === 'IMG') continue;
		const bg = getComputedStyle(el).backgroundImage;
		if (!bg || bg === 'none') continue;
		const m = bg.match(/url\(["']?(.*?)["']?\)/);
		if (!m || !m[1]) continue;
		out.push({
			src: m[1],
			hasLabel: el.hasAttribute('aria-label'),
			label: el.getAttribute('aria-label') || ''
		});
	}
	return out;
})()`

type styledResult struct {
	Src      string `json:"src"`
	HasLabel bool   `json:"hasLabel"`
	Label    string `json:"label"`
}

// Options configures the browser.
type Options struct {
	UserAgent string
	// Proxy is passed to Chrome as --proxy-server.
	Proxy string
}

// Fetcher implements repository.PageFetcher with one shared browser and a
// fresh tab per fetch.
type Fetcher struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        *zap.Logger
}

var _ repository.PageFetcher = (*Fetcher)(nil)

// New starts the browser. Close must be called to stop it.
func New(opts Options, logger *zap.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Fetcher{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}, nil
}

// Fetch loads rawURL in a new tab and returns the rendered document.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*repository.FetchedPage, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
	); err != nil {
		return nil, f.classify(ctx, rawURL, err)
	}

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(rawURL))
	if err != nil {
		return nil, f.classify(ctx, rawURL, err)
	}
	status := 0
	if resp != nil {
		status = int(resp.Status)
		if err := classifyStatus(status); err != nil {
			return nil, fmt.Errorf("%w: %s returned %d", err, rawURL, status)
		}
		if ct := resp.MimeType; ct != "" && !strings.Contains(ct, "html") {
			return nil, fmt.Errorf("%w: %s has content type %q", repository.ErrNotHTML, rawURL, ct)
		}
	}

	var (
		html     string
		location string
		styled   []styledResult
	)
	if err := chromedp.Run(tabCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.Evaluate(styledImagesJS, &styled),
	); err != nil {
		return nil, f.classify(ctx, rawURL, err)
	}
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("%w: %s", repository.ErrEmptyBody, rawURL)
	}

	f.logger.Debug("page rendered",
		zap.String("url", rawURL),
		zap.Int("status", status),
		zap.Int("styled_images", len(styled)),
	)

	return &repository.FetchedPage{
		URL:          rawURL,
		FinalURL:     location,
		StatusCode:   status,
		HTML:         html,
		StyledImages: toStyledImages(styled),
	}, nil
}

// Close stops the browser.
func (f *Fetcher) Close() error {
	f.browserCancel()
	f.allocCancel()
	return nil
}

func (f *Fetcher) classify(ctx context.Context, rawURL string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", repository.ErrFetchTimeout, rawURL, err)
	}
	return fmt.Errorf("browser navigation to %s failed: %w", rawURL, err)
}

func classifyStatus(code int) error {
	switch {
	case code == 401, code == 403, code == 407, code == 451:
		return repository.ErrContentRestricted
	case code >= 400:
		return repository.ErrBadStatus
	}
	return nil
}

// toStyledImages never returns nil, so an empty result still tells the
// extractor that computed styles were available.
func toStyledImages(results []styledResult) []repository.StyledImage {
	out := make([]repository.StyledImage, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Src) == "" {
			continue
		}
		out = append(out, repository.StyledImage{
			Src:   r.Src,
			Label: entity.AltFromAttr(r.Label, r.HasLabel),
		})
	}
	return out
}

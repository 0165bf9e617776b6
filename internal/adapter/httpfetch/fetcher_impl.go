// Package httpfetch retrieves pages over plain HTTP with browser-like
// requests.
package httpfetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/user/alt-audit-service/internal/repository"
)

const defaultMaxBody = 10 << 20

// Options configures a Fetcher.
type Options struct {
	// Proxies are rotated round-robin per request.
	Proxies []string
	// UserAgents are picked at random per request.
	UserAgents []string
	// ChromeTLS dials HTTPS with a Chrome TLS fingerprint.
	ChromeTLS bool
	// MaxBodyBytes caps the amount of body read. Defaults to 10 MB.
	MaxBodyBytes int64
	// Transport replaces the default transport, mainly for tests.
	Transport http.RoundTripper
}

// Fetcher implements repository.PageFetcher over net/http.
type Fetcher struct {
	client  *http.Client
	rotator *Rotator
	maxBody int64
	logger  *zap.Logger
}

var _ repository.PageFetcher = (*Fetcher)(nil)

func New(opts Options, logger *zap.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rotator, err := NewRotator(opts.Proxies, opts.UserAgents)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy list: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.Proxy = rotator.Proxy
		if opts.ChromeTLS {
			t.DialTLSContext = dialChromeTLS
			t.ForceAttemptHTTP2 = false
		}
		transport = t
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		rotator: rotator,
		maxBody: maxBody,
		logger:  logger,
	}, nil
}

// Fetch retrieves rawURL. The caller bounds the request through ctx.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*repository.FetchedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.rotator.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: %w", repository.ErrFetchTimeout, rawURL, err)
		}
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("%w: %s returned %d", err, rawURL, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, fmt.Errorf("%w: %s has content type %q", repository.ErrNotHTML, rawURL, contentType)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: reading %s: %w", repository.ErrFetchTimeout, rawURL, err)
		}
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}

	body, err := decodeBody(raw, resp.Header.Get("Content-Encoding"), contentType, f.maxBody)
	if err != nil {
		return nil, fmt.Errorf("decode body of %s: %w", rawURL, err)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: %s", repository.ErrEmptyBody, rawURL)
	}

	f.logger.Debug("page fetched",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)

	return &repository.FetchedPage{
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       body,
	}, nil
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden,
		code == http.StatusProxyAuthRequired, code == http.StatusUnavailableForLegalReasons:
		return repository.ErrContentRestricted
	case code >= 400:
		return repository.ErrBadStatus
	}
	return nil
}

// isHTMLContentType accepts a missing content type.
func isHTMLContentType(ct string) bool {
	if ct == "" {
		return true
	}
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

func decodeBody(raw []byte, encoding, contentType string, limit int64) (string, error) {
	var r io.Reader = bytes.NewReader(raw)
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		r = gz
	case "br":
		r = brotli.NewReader(r)
	default:
		return "", fmt.Errorf("unsupported content encoding %q", encoding)
	}

	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(io.LimitReader(utf8Reader, limit))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

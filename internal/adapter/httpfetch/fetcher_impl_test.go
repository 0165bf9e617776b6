package httpfetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/repository"
)

const page = `<html><body><img src="/a.png" alt="A"></body></html>`

func newFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f, err := New(Options{}, zap.NewNop())
	require.NoError(t, err)
	return f
}

func TestFetchPlainHTML(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	fetched, err := newFetcher(t).Fetch(context.Background(), srv.URL+"/index.html")
	require.NoError(t, err)

	assert.Equal(t, page, fetched.HTML)
	assert.Equal(t, http.StatusOK, fetched.StatusCode)
	assert.Equal(t, srv.URL+"/index.html", fetched.URL)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new/page.html", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fetched, err := newFetcher(t).Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/old", fetched.URL)
	assert.Equal(t, srv.URL+"/new/page.html", fetched.FinalURL)
}

func TestFetchDecodesCompressedBodies(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte(page))
	require.NoError(t, zw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte(page))
	require.NoError(t, bw.Close())

	tests := []struct {
		encoding string
		body     []byte
	}{
		{"gzip", gz.Bytes()},
		{"br", br.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.Header.Get("Accept-Encoding"), tt.encoding)
				w.Header().Set("Content-Type", "text/html")
				w.Header().Set("Content-Encoding", tt.encoding)
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			fetched, err := newFetcher(t).Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, page, fetched.HTML)
		})
	}
}

func TestFetchConvertsCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<img src=\"a.png\" alt=\"Caf\xe9\">"))
	}))
	defer srv.Close()

	fetched, err := newFetcher(t).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, fetched.HTML, "Café")
}

func TestFetchClassifiesFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        error
	}{
		{"forbidden", http.StatusForbidden, "text/html", "denied", repository.ErrContentRestricted},
		{"unauthorized", http.StatusUnauthorized, "text/html", "login", repository.ErrContentRestricted},
		{"legal", http.StatusUnavailableForLegalReasons, "text/html", "no", repository.ErrContentRestricted},
		{"server error", http.StatusInternalServerError, "text/html", "oops", repository.ErrBadStatus},
		{"not found", http.StatusNotFound, "text/html", "missing", repository.ErrBadStatus},
		{"json", http.StatusOK, "application/json", `{"a":1}`, repository.ErrNotHTML},
		{"empty", http.StatusOK, "text/html", "   \n", repository.ErrEmptyBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newFetcher(t).Fetch(context.Background(), srv.URL)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newFetcher(t).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, repository.ErrFetchTimeout)
}

func TestFetchCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
	}))
	defer srv.Close()

	f, err := New(Options{MaxBodyBytes: 100}, zap.NewNop())
	require.NoError(t, err)

	fetched, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, fetched.HTML, 100)
}

func TestRotator(t *testing.T) {
	r, err := NewRotator([]string{"http://p1:8080", "http://p2:8080"}, nil)
	require.NoError(t, err)

	p1, _ := r.Proxy(nil)
	p2, _ := r.Proxy(nil)
	p3, _ := r.Proxy(nil)
	assert.Equal(t, "p1:8080", p1.Host)
	assert.Equal(t, "p2:8080", p2.Host)
	assert.Equal(t, "p1:8080", p3.Host)
	assert.Contains(t, defaultUserAgents, r.UserAgent())

	none, err := NewRotator(nil, []string{"custom"})
	require.NoError(t, err)
	p, err := none.Proxy(nil)
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, "custom", none.UserAgent())

	_, err = NewRotator([]string{"://bad"}, nil)
	assert.Error(t, err)
}

package repository

//go:generate mockgen -source=$GOFILE -destination=mocks/mock_$GOFILE -package=mocks

import (
	"context"

	"github.com/user/alt-audit-service/internal/entity"
)

// StyledImage is an element rendered with a CSS background image, as seen by
// a fetcher that can compute styles.
type StyledImage struct {
	Src   string
	Label entity.AltText
}

// FetchedPage is the raw material handed to the extractor.
type FetchedPage struct {
	// URL is the requested URL.
	URL string
	// FinalURL is the URL after redirects, empty when unknown.
	FinalURL   string
	StatusCode int
	HTML       string
	// StyledImages is nil when the fetcher cannot compute styles.
	StyledImages []StyledImage
}

// BaseURL returns the URL relative references on the page resolve against,
// ignoring any <base> element.
func (p *FetchedPage) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// PageFetcher retrieves the HTML of one page.
type PageFetcher interface {
	// Fetch retrieves url. Errors are classified with the sentinels in this
	// package where possible.
	Fetch(ctx context.Context, url string) (*FetchedPage, error)
}

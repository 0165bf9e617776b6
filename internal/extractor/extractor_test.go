package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/repository"
)

const pageID = "page-1"

func extract(t *testing.T, pageURL, html string) []entity.ImageEntry {
	t.Helper()
	images, err := Extract(&repository.FetchedPage{URL: pageURL, HTML: html}, pageID)
	require.NoError(t, err)
	return images
}

func TestExtractClassifiesAltAttribute(t *testing.T) {
	html := `<html><body>
		<img src="/a.png" alt="A cat">
		<img src="/b.png" alt="">
		<img src="/c.png">
	</body></html>`

	images := extract(t, "http://example.com/", html)
	require.Len(t, images, 3)

	assert.Equal(t, entity.AltStatusPresent, images[0].Status)
	assert.Equal(t, "A cat", images[0].AltText.Text())

	assert.Equal(t, entity.AltStatusEmpty, images[1].Status)
	assert.False(t, images[1].AltText.IsMissing())

	assert.Equal(t, entity.AltStatusMissing, images[2].Status)
	assert.True(t, images[2].AltText.IsMissing())

	for _, img := range images {
		assert.NoError(t, img.Validate())
		assert.Equal(t, pageID, img.PageID)
		assert.Equal(t, "http://example.com/", img.PageURL)
	}
}

func TestExtractResolvesSources(t *testing.T) {
	html := `<img src="/img/a.png" alt="root"><img src="a.png" alt="relative"><img src="https://cdn.test/x.png" alt="abs">`

	images := extract(t, "http://example.com/dir/page.html", html)
	require.Len(t, images, 3)

	assert.Equal(t, "http://example.com/img/a.png", images[0].ImageSrc)
	assert.Equal(t, "http://example.com/dir/a.png", images[1].ImageSrc)
	assert.Equal(t, "https://cdn.test/x.png", images[2].ImageSrc)
}

func TestExtractHonorsBaseElementAndFinalURL(t *testing.T) {
	images, err := Extract(&repository.FetchedPage{
		URL:      "http://example.com/old/",
		FinalURL: "http://example.com/new/index.html",
		HTML:     `<img src="a.png" alt="x">`,
	}, pageID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "http://example.com/new/a.png", images[0].ImageSrc)
	assert.Equal(t, "http://example.com/old/", images[0].PageURL)

	images = extract(t, "http://example.com/dir/page.html",
		`<head><base href="/static/"></head><img src="a.png" alt="x">`)
	require.Len(t, images, 1)
	assert.Equal(t, "http://example.com/static/a.png", images[0].ImageSrc)
}

func TestExtractSkipsUnresolvableSources(t *testing.T) {
	html := `<img alt="no src"><img src="  " alt="blank"><img src="#top"><img src="javascript:void(0)">
		<img data-src="/lazy.png" alt="lazy">`

	images := extract(t, "http://example.com/", html)
	require.Len(t, images, 1)
	assert.Equal(t, "http://example.com/lazy.png", images[0].ImageSrc)
}

func TestExtractInlineBackgroundImages(t *testing.T) {
	html := `<div style="background-image: url('/hero.jpg')" aria-label="Hero"></div>
		<section style="color:red; background: #fff url(bg.png) no-repeat"></section>
		<p style="color: blue"></p>`

	images := extract(t, "http://example.com/shop/", html)
	require.Len(t, images, 2)

	assert.Equal(t, "http://example.com/hero.jpg", images[0].ImageSrc)
	assert.Equal(t, entity.AltStatusPresent, images[0].Status)
	assert.Equal(t, "http://example.com/shop/bg.png", images[1].ImageSrc)
	assert.Equal(t, entity.AltStatusMissing, images[1].Status)
}

func TestExtractPrefersComputedStyles(t *testing.T) {
	page := &repository.FetchedPage{
		URL:  "http://example.com/",
		HTML: `<img src="/a.png" alt="a"><div style="background-image:url(/inline.png)"></div>`,
		StyledImages: []repository.StyledImage{
			{Src: "/computed.png", Label: entity.AltOf("")},
		},
	}

	images, err := Extract(page, pageID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "http://example.com/computed.png", images[1].ImageSrc)
	assert.Equal(t, entity.AltStatusEmpty, images[1].Status)
}

func TestExtractAssignsUniqueIDs(t *testing.T) {
	html := `<img src="/a.png"><img src="/a.png"><img src="/b.png">`

	first := extract(t, "http://example.com/", html)
	second := extract(t, "http://example.com/", html)

	seen := map[string]bool{}
	for i, img := range first {
		assert.False(t, seen[img.ID], "duplicate id %s", img.ID)
		seen[img.ID] = true
		assert.Equal(t, img.ID, second[i].ID)
	}

	other, err := Extract(&repository.FetchedPage{URL: "http://example.com/", HTML: html}, "page-2")
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestExtractErrors(t *testing.T) {
	_, err := Extract(&repository.FetchedPage{URL: "http://example.com/", HTML: "   "}, pageID)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Extract(&repository.FetchedPage{URL: "/relative", HTML: "<img src=a.png>"}, pageID)
	assert.ErrorIs(t, err, ErrBadPageURL)
}

func TestExtractNoImages(t *testing.T) {
	images := extract(t, "http://example.com/", "<p>text only</p>")
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func TestBackgroundImageURL(t *testing.T) {
	tests := []struct {
		style string
		want  string
		ok    bool
	}{
		{`background-image: url("a.png")`, "a.png", true},
		{`BACKGROUND: url(b.png) center`, "b.png", true},
		{`background-image: url()`, "", false},
		{`color: red`, "", false},
	}
	for _, tt := range tests {
		got, ok := BackgroundImageURL(tt.style)
		assert.Equal(t, tt.ok, ok, tt.style)
		assert.Equal(t, tt.want, got, tt.style)
	}
}

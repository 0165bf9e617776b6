// Package extractor turns fetched HTML into classified image entries.
package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/google/uuid"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/repository"
	"github.com/user/alt-audit-service/pkg/utils"
)

var (
	ErrEmptyDocument = errors.New("document is empty")
	ErrBadPageURL    = errors.New("page URL cannot be used as a base")
)

var (
	imgMatcher    = cascadia.MustCompile("img")
	baseMatcher   = cascadia.MustCompile("base[href]")
	styledMatcher = cascadia.MustCompile("[style]")

	backgroundURL = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;]*?url\(\s*(['"]?)([^'")]*)(['"]?)\s*\)`)
)

// Extract returns every image-bearing element of page in document order:
// <img> elements first, then elements rendered with a background image.
// Computed styles reported by the fetcher take precedence over inline style
// attributes. Elements whose source cannot be resolved are skipped.
func Extract(page *repository.FetchedPage, pageID string) ([]entity.ImageEntry, error) {
	if strings.TrimSpace(page.HTML) == "" {
		return nil, ErrEmptyDocument
	}

	base, err := url.Parse(page.BaseURL())
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadPageURL, page.BaseURL())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if href, ok := doc.FindMatcher(baseMatcher).First().Attr("href"); ok {
		if resolved, err := resolve(base, href); err == nil {
			if u, err := url.Parse(resolved); err == nil {
				base = u
			}
		}
	}

	c := collector{base: base, pageURL: page.URL, pageID: pageID, images: []entity.ImageEntry{}}

	doc.FindMatcher(imgMatcher).Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			src = s.AttrOr("data-src", "")
		}
		c.add(src, entity.AltFromAttr(s.Attr("alt")))
	})

	if page.StyledImages != nil {
		for _, styled := range page.StyledImages {
			c.add(styled.Src, styled.Label)
		}
	} else {
		doc.FindMatcher(styledMatcher).Each(func(_ int, s *goquery.Selection) {
			if src, ok := BackgroundImageURL(s.AttrOr("style", "")); ok {
				c.add(src, entity.AltFromAttr(s.Attr("aria-label")))
			}
		})
	}

	return c.images, nil
}

// BackgroundImageURL returns the first url(...) reference of a background or
// background-image declaration.
func BackgroundImageURL(style string) (string, bool) {
	m := backgroundURL.FindStringSubmatch(style)
	if m == nil || strings.TrimSpace(m[2]) == "" {
		return "", false
	}
	return strings.TrimSpace(m[2]), true
}

type collector struct {
	base    *url.URL
	pageURL string
	pageID  string
	images  []entity.ImageEntry
}

func (c *collector) add(src string, alt entity.AltText) {
	abs, err := resolve(c.base, src)
	if err != nil {
		return
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.pageID+"#"+strconv.Itoa(len(c.images)))).String()
	c.images = append(c.images, entity.NewImageEntry(id, c.pageURL, c.pageID, abs, alt))
}

var errUnresolvable = errors.New("unresolvable image source")

func resolve(base *url.URL, src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "#") || strings.HasPrefix(strings.ToLower(src), "javascript:") {
		return "", errUnresolvable
	}
	return utils.ToAbsoluteURL(base, src)
}

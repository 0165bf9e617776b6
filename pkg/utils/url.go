package utils

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

var ErrInvalidURL = errors.New("invalid URL")

// NormalizeURL trims raw, prefixes https:// when it carries no scheme and
// checks that the result is an absolute http(s) URL with a host.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidURL
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", errors.Join(ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}

var listSeparators = regexp.MustCompile(`[\n,;]`)

// ParseURLList splits free text on newlines, commas and semicolons and
// returns the normalized URLs in input order. Entries that cannot be
// normalized are returned separately.
func ParseURLList(text string) (urls []string, rejected []string) {
	for _, part := range listSeparators.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		u, err := NormalizeURL(part)
		if err != nil {
			rejected = append(rejected, part)
			continue
		}
		urls = append(urls, u)
	}
	return urls, rejected
}

// Hostname returns the host of rawURL without port, or "unknown".
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

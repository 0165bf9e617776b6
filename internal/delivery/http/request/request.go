package request

import (
	"strings"

	"github.com/user/alt-audit-service/pkg/utils"
)

// SubmitScanRequest accepts URLs as a JSON list, as free text in the same
// format the URL input box takes, or both.
type SubmitScanRequest struct {
	URLs []string `json:"urls"`
	Text string   `json:"text"`
	Demo bool     `json:"demo"`
}

// Normalize returns the valid URLs in submission order and the entries that
// could not be parsed. List entries are taken whole; only Text is split.
func (r SubmitScanRequest) Normalize() (urls []string, rejected []string) {
	for _, raw := range r.URLs {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		u, err := utils.NormalizeURL(raw)
		if err != nil {
			rejected = append(rejected, strings.TrimSpace(raw))
			continue
		}
		urls = append(urls, u)
	}
	textURLs, textRejected := utils.ParseURLList(r.Text)
	return append(urls, textURLs...), append(rejected, textRejected...)
}

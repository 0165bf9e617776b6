package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMergesListAndText(t *testing.T) {
	req := SubmitScanRequest{
		URLs: []string{"example.com", "https://b.example.com/x"},
		Text: "c.example.com; not a url\nftp://files.example.com",
	}

	urls, rejected := req.Normalize()

	assert.Equal(t, []string{"https://example.com", "https://b.example.com/x", "https://c.example.com"}, urls)
	assert.Equal(t, []string{"not a url", "ftp://files.example.com"}, rejected)
}

func TestNormalizeEmpty(t *testing.T) {
	urls, rejected := SubmitScanRequest{}.Normalize()
	assert.Empty(t, urls)
	assert.Empty(t, rejected)
}

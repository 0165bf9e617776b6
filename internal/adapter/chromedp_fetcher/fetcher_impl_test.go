package chromedp_fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/repository"
)

func TestToStyledImages(t *testing.T) {
	out := toStyledImages([]styledResult{
		{Src: "https://example.com/hero.jpg", HasLabel: true, Label: "Hero"},
		{Src: "https://example.com/bg.png", HasLabel: true, Label: ""},
		{Src: "https://example.com/plain.png"},
		{Src: "  "},
	})

	require.Len(t, out, 3)
	assert.Equal(t, entity.AltStatusPresent, out[0].Label.Status())
	assert.Equal(t, entity.AltStatusEmpty, out[1].Label.Status())
	assert.Equal(t, entity.AltStatusMissing, out[2].Label.Status())

	empty := toStyledImages(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestClassifyStatus(t *testing.T) {
	assert.ErrorIs(t, classifyStatus(403), repository.ErrContentRestricted)
	assert.ErrorIs(t, classifyStatus(407), repository.ErrContentRestricted)
	assert.ErrorIs(t, classifyStatus(502), repository.ErrBadStatus)
	assert.NoError(t, classifyStatus(200))
	assert.NoError(t, classifyStatus(304))
}

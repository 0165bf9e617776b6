package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/alt-audit-service/internal/entity"
)

func TestWriteCSVMissingAltRoundTrip(t *testing.T) {
	entry := entity.NewImageEntry("i1", "http://x/a", "p1", "http://x/a/1.jpg", entity.MissingAlt())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []entity.ImageEntry{entry}, FilterAll))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Page ID", "Page URL", "Image Source", "Alt Text", "Status"}, records[0])
	assert.Equal(t, []string{"p1", "http://x/a", "http://x/a/1.jpg", "", "missing"}, records[1])
}

func TestWriteCSVQuotesSpecialCharacters(t *testing.T) {
	alt := "A \"quoted\", multi\nline alt"
	entry := entity.NewImageEntry("i1", "http://x/a", "p1", "http://x/a/1.jpg", entity.AltOf(alt))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []entity.ImageEntry{entry}, FilterAll))
	assert.Contains(t, buf.String(), `"A ""quoted"", multi`)

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, alt, records[1][3])
	assert.Equal(t, "present", records[1][4])
}

func TestWriteCSVAppliesFilter(t *testing.T) {
	images := []entity.ImageEntry{
		entity.NewImageEntry("1", "http://x", "p", "http://x/1.png", entity.AltOf("a")),
		entity.NewImageEntry("2", "http://x", "p", "http://x/2.png", entity.AltOf("")),
		entity.NewImageEntry("3", "http://x", "p", "http://x/3.png", entity.MissingAlt()),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, images, FilterEmpty))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "http://x/2.png", records[1][2])
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, "alt-audit-missing-2024-05-01.csv", FileName(FilterMissing, now))
	assert.Equal(t, "alt-audit-all-2024-05-01.csv", FileName("", now))
}

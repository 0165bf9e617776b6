package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/user/alt-audit-service/internal/entity"
)

var csvHeader = []string{"Page ID", "Page URL", "Image Source", "Alt Text", "Status"}

// WriteCSV writes the images matching filter as CSV. A missing alt attribute
// is written as an empty field.
func WriteCSV(w io.Writer, images []entity.ImageEntry, filter StatusFilter) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, img := range images {
		if !filter.Match(img) {
			continue
		}
		record := []string{img.PageID, img.PageURL, img.ImageSrc, img.AltText.Text(), string(img.Status)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record for image %s: %w", img.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName names an export, e.g. alt-audit-missing-2024-05-01.csv.
func FileName(filter StatusFilter, now time.Time) string {
	if filter == "" {
		filter = FilterAll
	}
	return fmt.Sprintf("alt-audit-%s-%s.csv", filter, now.Format(time.DateOnly))
}

// Package report builds read-only views over scan results: flattening,
// filtering, search, pagination and CSV export.
package report

import (
	"fmt"
	"strings"

	"github.com/user/alt-audit-service/internal/entity"
)

const DefaultPageSize = 10

// StatusFilter selects images by alt status. FilterAll keeps everything.
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterPresent StatusFilter = "present"
	FilterMissing StatusFilter = "missing"
	FilterEmpty   StatusFilter = "empty"
)

// ParseStatusFilter accepts "" as FilterAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	f := StatusFilter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" || f == FilterAll {
		return FilterAll, nil
	}
	if _, err := entity.ParseAltStatus(string(f)); err != nil {
		return "", fmt.Errorf("unknown status filter %q", s)
	}
	return f, nil
}

func (f StatusFilter) Match(img entity.ImageEntry) bool {
	return f == FilterAll || f == "" || string(img.Status) == string(f)
}

// Flatten returns the images of completed pages in page order.
func Flatten(pages []entity.PageResult) []entity.ImageEntry {
	var images []entity.ImageEntry
	for _, p := range pages {
		if p.Status == entity.StatusCompleted {
			images = append(images, p.Images...)
		}
	}
	return images
}

// Dedupe drops later entries with an already seen (page URL, image source)
// pair.
func Dedupe(images []entity.ImageEntry) []entity.ImageEntry {
	type key struct{ page, src string }
	seen := make(map[key]struct{}, len(images))
	out := make([]entity.ImageEntry, 0, len(images))
	for _, img := range images {
		k := key{img.PageURL, img.ImageSrc}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, img)
	}
	return out
}

// Filter keeps images matching the status filter and the case-insensitive
// search term, which is looked up in page URL, image source and alt text.
func Filter(images []entity.ImageEntry, status StatusFilter, search string) []entity.ImageEntry {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]entity.ImageEntry, 0, len(images))
	for _, img := range images {
		if !status.Match(img) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(img.PageURL), term) &&
			!strings.Contains(strings.ToLower(img.ImageSrc), term) &&
			!strings.Contains(strings.ToLower(img.AltText.Text()), term) {
			continue
		}
		out = append(out, img)
	}
	return out
}

// Query describes one page of the image table.
type Query struct {
	Search   string
	Status   StatusFilter
	Page     int
	PageSize int
	Dedupe   bool
}

// View is one page of filtered images. Window lists the page numbers to
// offer for navigation; 0 stands for an ellipsis.
type View struct {
	Items      []entity.ImageEntry `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
	Window     []int               `json:"window"`
}

// Apply filters images and cuts out the requested page. Out-of-range page
// numbers are clamped.
func Apply(images []entity.ImageEntry, q Query) View {
	if q.Dedupe {
		images = Dedupe(images)
	}
	filtered := Filter(images, q.Status, q.Search)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := (len(filtered) + size - 1) / size
	page := q.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := min((page-1)*size, len(filtered))
	end := min(start+size, len(filtered))

	return View{
		Items:      filtered[start:end],
		Total:      len(filtered),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Window:     PageWindow(page, totalPages),
	}
}

// PageWindow lists the first and last page and every page within two of
// current. Gaps are marked with a single 0.
func PageWindow(current, total int) []int {
	out := []int{}
	for p := 1; p <= total; p++ {
		if p == 1 || p == total || abs(p-current) <= 2 {
			out = append(out, p)
			continue
		}
		if len(out) > 0 && out[len(out)-1] != 0 {
			out = append(out, 0)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

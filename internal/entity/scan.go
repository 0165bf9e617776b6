package entity

import "time"

// ScanState is the state of a whole scan batch.
type ScanState string

const (
	ScanRunning   ScanState = "running"
	ScanFinished  ScanState = "finished"
	ScanCancelled ScanState = "cancelled"
)

// Scan is one run of the pipeline over an ordered list of URLs. Pages keeps
// the input order.
type Scan struct {
	ID         string       `json:"id"`
	Pages      []PageResult `json:"pages"`
	Requested  int          `json:"requested"`
	Dropped    int          `json:"dropped"`
	Demo       bool         `json:"demo"`
	State      ScanState    `json:"state"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// Stats derives the aggregate view of the scan.
func (s *Scan) Stats() ScanStats {
	return ComputeStats(s.Pages)
}

// ScanStats is a pure aggregate over a set of PageResults.
type ScanStats struct {
	TotalURLs        int `json:"total_urls"`
	ProcessedURLs    int `json:"processed_urls"`
	FailedURLs       int `json:"failed_urls"`
	TotalImages      int `json:"total_images"`
	MissingAltImages int `json:"missing_alt_images"`
	EmptyAltImages   int `json:"empty_alt_images"`
}

// ComputeStats counts terminal pages as processed. Image totals come from the
// page counters, which are zero until a page completes.
func ComputeStats(pages []PageResult) ScanStats {
	stats := ScanStats{TotalURLs: len(pages)}
	for _, p := range pages {
		if p.Status.Terminal() {
			stats.ProcessedURLs++
		}
		if p.Status == StatusFailed {
			stats.FailedURLs++
		}
		stats.TotalImages += p.ImagesCount
		stats.MissingAltImages += p.MissingAltCount
		stats.EmptyAltImages += p.EmptyAltCount
	}
	return stats
}

func (s ScanStats) PresentAltImages() int {
	return s.TotalImages - s.MissingAltImages - s.EmptyAltImages
}

// Progress is the processed fraction in [0, 1].
func (s ScanStats) Progress() float64 {
	if s.TotalURLs == 0 {
		return 0
	}
	return float64(s.ProcessedURLs) / float64(s.TotalURLs)
}

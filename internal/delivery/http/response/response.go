package response

import (
	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/progress"
	"github.com/user/alt-audit-service/internal/report"
)

type ErrorResponse struct {
	Error    string   `json:"error"`
	Rejected []string `json:"rejected,omitempty"`
}

type SubmitScanResponse struct {
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	ScanID   string   `json:"scan_id"`
	Accepted int      `json:"accepted"`
	Dropped  int      `json:"dropped"`
	Rejected []string `json:"rejected,omitempty"`
}

// ScanResponse is a scan together with its derived statistics.
type ScanResponse struct {
	*entity.Scan
	Stats    entity.ScanStats `json:"stats"`
	Progress float64          `json:"progress"`
}

func NewScanResponse(scan *entity.Scan) ScanResponse {
	stats := scan.Stats()
	return ScanResponse{Scan: scan, Stats: stats, Progress: stats.Progress()}
}

type ImagesResponse struct {
	ScanID string `json:"scan_id"`
	Status string `json:"status"`
	Search string `json:"search,omitempty"`
	report.View
}

// StreamMessage is one websocket frame. Snapshot frames carry the whole
// scan; event frames carry a progress event.
type StreamMessage struct {
	Type  string          `json:"type"`
	Scan  *ScanResponse   `json:"scan,omitempty"`
	Event *progress.Event `json:"event,omitempty"`
}

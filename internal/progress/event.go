// Package progress delivers scan progress to any number of consumers.
package progress

import (
	"time"

	"github.com/user/alt-audit-service/internal/entity"
)

// Kind tells page snapshots apart from the end of a scan.
type Kind string

const (
	KindPage     Kind = "page"
	KindFinished Kind = "finished"
)

// Event is one progress notification. Page is a snapshot owned by the event
// and must not be modified by consumers.
type Event struct {
	ScanID string             `json:"scan_id"`
	Kind   Kind               `json:"kind"`
	Index  int                `json:"index"`
	Page   *entity.PageResult `json:"page,omitempty"`
	State  entity.ScanState   `json:"state,omitempty"`
	Stats  *entity.ScanStats  `json:"stats,omitempty"`
	At     time.Time          `json:"at"`
}

// PageEvent wraps a snapshot of page at position index of a scan.
func PageEvent(scanID string, index int, page entity.PageResult) Event {
	snap := page.Snapshot()
	return Event{ScanID: scanID, Kind: KindPage, Index: index, Page: &snap, At: time.Now()}
}

// FinishedEvent marks the end of a scan in its final state.
func FinishedEvent(scanID string, state entity.ScanState, stats entity.ScanStats) Event {
	return Event{ScanID: scanID, Kind: KindFinished, Index: -1, State: state, Stats: &stats, At: time.Now()}
}

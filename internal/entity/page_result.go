package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTransition = errors.New("invalid page status transition")
	ErrCountMismatch     = errors.New("page counts do not match images")
)

// ProcessingStatus is the lifecycle state of a PageResult.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// PageResult is the scan result of a single URL. The counters always describe
// Images; they are only filled in by Complete.
type PageResult struct {
	ID              string           `json:"id"`
	URL             string           `json:"url"`
	Status          ProcessingStatus `json:"status"`
	ImagesCount     int              `json:"images_count"`
	MissingAltCount int              `json:"missing_alt_count"`
	EmptyAltCount   int              `json:"empty_alt_count"`
	Images          []ImageEntry     `json:"images"`
	Error           string           `json:"error,omitempty"`
	Synthetic       bool             `json:"synthetic,omitempty"`
	FallbackReason  string           `json:"fallback_reason,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewPageResult returns a pending page.
func NewPageResult(id, url string) PageResult {
	return PageResult{
		ID:        id,
		URL:       url,
		Status:    StatusPending,
		Images:    []ImageEntry{},
		UpdatedAt: time.Now(),
	}
}

// StartProcessing moves a pending page to processing.
func (p *PageResult) StartProcessing() error {
	if p.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusProcessing)
	}
	p.Status = StatusProcessing
	p.UpdatedAt = time.Now()
	return nil
}

// Complete attaches images, recomputes the counters and moves a processing
// page to completed. The page is left untouched when an error is returned.
func (p *PageResult) Complete(images []ImageEntry, synthetic bool, fallbackReason string) error {
	if p.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusCompleted)
	}
	for _, img := range images {
		if err := img.Validate(); err != nil {
			return err
		}
		if img.PageID != p.ID {
			return fmt.Errorf("image %s belongs to page %q, not %q", img.ID, img.PageID, p.ID)
		}
	}

	owned := make([]ImageEntry, len(images))
	copy(owned, images)

	p.Images = owned
	p.ImagesCount, p.MissingAltCount, p.EmptyAltCount = countImages(owned)
	p.Synthetic = synthetic
	p.FallbackReason = fallbackReason
	p.Status = StatusCompleted
	p.UpdatedAt = time.Now()
	return nil
}

// Fail moves a processing page to failed with a human readable message.
func (p *PageResult) Fail(message string) error {
	if p.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusFailed)
	}
	p.Status = StatusFailed
	p.Error = message
	p.Images = []ImageEntry{}
	p.ImagesCount, p.MissingAltCount, p.EmptyAltCount = 0, 0, 0
	p.UpdatedAt = time.Now()
	return nil
}

// CheckCounts verifies the counters against Images.
func (p PageResult) CheckCounts() error {
	total, missing, empty := countImages(p.Images)
	if p.ImagesCount != total || p.MissingAltCount != missing || p.EmptyAltCount != empty {
		return fmt.Errorf("%w: page %s has %d/%d/%d, images give %d/%d/%d", ErrCountMismatch,
			p.ID, p.ImagesCount, p.MissingAltCount, p.EmptyAltCount, total, missing, empty)
	}
	return nil
}

// Snapshot returns a copy that shares no memory with p.
func (p PageResult) Snapshot() PageResult {
	snap := p
	snap.Images = make([]ImageEntry, len(p.Images))
	copy(snap.Images, p.Images)
	return snap
}

func countImages(images []ImageEntry) (total, missing, empty int) {
	for _, img := range images {
		switch img.Status {
		case AltStatusMissing:
			missing++
		case AltStatusEmpty:
			empty++
		}
	}
	return len(images), missing, empty
}

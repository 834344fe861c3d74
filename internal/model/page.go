package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PageStatus enumerates the classification outcomes for a scanned page.
type PageStatus string

const (
	PageStatusUnread  PageStatus = "UNREAD"
	PageStatusKnown   PageStatus = "KNOWN"
	PageStatusUnknown PageStatus = "UNKNOWN"
	PageStatusExtra   PageStatus = "EXTRA"
	PageStatusDiscard PageStatus = "DISCARD"
	PageStatusError   PageStatus = "ERROR"
)

// Page represents one scanned page image inside a bundle.
//
// Which optional fields are set depends on the status:
//   - KNOWN requires PaperNumber, PageNumber and Version.
//   - EXTRA requires PaperNumber and a non-empty QuestionIdxList.
//   - ERROR / DISCARD carry a reason.
//   - UNREAD and UNKNOWN carry no position data.
type Page struct {
	ID          uuid.UUID       `json:"id"`
	BundleID    uuid.UUID       `json:"bundle_id"`
	BundleOrder int             `json:"bundle_order"` // 1-indexed position within the bundle PDF
	Status      PageStatus      `json:"status"`
	ImageRef    string          `json:"image_ref"`
	QRData      json.RawMessage `json:"qr_data,omitempty"`
	Rotation    int             `json:"rotation"`

	PaperNumber    *int   `json:"paper_number,omitempty"`
	PageNumber     *int   `json:"page_number,omitempty"`
	Version        *int   `json:"version,omitempty"`
	QuestionIdxs   []int  `json:"question_idx_list,omitempty"`
	ErrorReason    string `json:"error_reason,omitempty"`
	DiscardReason  string `json:"discard_reason,omitempty"`
	CommittedPaper *int   `json:"committed_paper,omitempty"` // Set once the owning bundle is pushed

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QRCorner is the raw decode result for one corner of a page image, as
// delivered by the external QR decoding service.
type QRCorner struct {
	Raw string  `json:"raw"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

// QRGroup maps corner labels (NE/NW/SE/SW) to decoded QR payloads.
// Corners where nothing decoded are absent.
type QRGroup map[string]QRCorner

// StagePageRequest is one page entry of a bundle staging request.
type StagePageRequest struct {
	ImageRef string  `json:"image_ref" binding:"required"`
	QR       QRGroup `json:"qr"`
	Rotation int     `json:"rotation" binding:"omitempty,oneof=0 90 180 270 -90"`
}

// ExtralisePageRequest assigns paper/question data to an extra page.
type ExtralisePageRequest struct {
	PaperNumber  int   `json:"paper_number" binding:"required,min=1"`
	QuestionIdxs []int `json:"question_idx_list" binding:"required,min=1,dive,min=1"`
}

// DiscardPageRequest casts a staged page to DISCARD.
type DiscardPageRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

// KnowifyPageRequest casts a staged page to KNOWN at an explicit slot.
type KnowifyPageRequest struct {
	PaperNumber int `json:"paper_number" binding:"required,min=1"`
	PageNumber  int `json:"page_number" binding:"required,min=1"`
}

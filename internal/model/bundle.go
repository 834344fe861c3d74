package model

import (
	"time"

	"github.com/google/uuid"
)

// Bundle represents one uploaded scan batch (a source PDF split into
// page images). Bundles are mutable while staged and frozen once pushed.
type Bundle struct {
	ID                uuid.UUID  `json:"id"`
	Slug              string     `json:"slug"`
	PDFHash           string     `json:"pdf_hash"`
	NumberOfPages     int        `json:"number_of_pages"`
	HasPageImages     bool       `json:"has_page_images"`
	FinishedReadingQR bool       `json:"finished_reading_qr"`
	IsPushed          bool       `json:"is_pushed"`
	PushedAt          *time.Time `json:"pushed_at,omitempty"`
	UploadedBy        int        `json:"uploaded_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BundleCounts summarizes a bundle's pages by classification.
type BundleCounts struct {
	Total    int `json:"total"`
	Unread   int `json:"unread"`
	Known    int `json:"known"`
	Unknown  int `json:"unknown"`
	Extra    int `json:"extra"`
	Discard  int `json:"discard"`
	Error    int `json:"error"`
	// ExtraWithoutData counts EXTRA pages still missing paper/question
	// assignment; they block push just like unread pages.
	ExtraWithoutData int `json:"extra_without_data"`
}

// StageBundleRequest is the payload for staging a new bundle.
type StageBundleRequest struct {
	Slug    string             `json:"slug" binding:"required,min=1,max=255"`
	PDFHash string             `json:"pdf_hash" binding:"required,len=64,hexadecimal"`
	Pages   []StagePageRequest `json:"pages" binding:"required,min=1,dive"`
}

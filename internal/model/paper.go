package model

import (
	"time"

	"github.com/google/uuid"
)

// SlotKind enumerates the kinds of fixed page slots a paper owns.
type SlotKind string

const (
	SlotKindID       SlotKind = "ID"       // The student-ID page
	SlotKindQuestion SlotKind = "QUESTION" // A page belonging to a question
	SlotKindDNM      SlotKind = "DNM"      // Do-not-mark page (instructions, formula sheets)
)

// Paper is one logical exam instance. Its fixed slots pre-exist from the
// moment papers are built; pages arrive over time, possibly from many
// bundles. Completeness is never stored; it is recomputed from slot
// occupancy on demand.
type Paper struct {
	PaperNumber int       `json:"paper_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// FixedSlot is one expected page position of a paper. At most one
// non-discarded page may ever own a slot.
type FixedSlot struct {
	PaperNumber int        `json:"paper_number"`
	PageNumber  int        `json:"page_number"`
	Kind        SlotKind   `json:"kind"`
	QuestionIdx *int       `json:"question_idx,omitempty"` // Set for QUESTION slots
	Version     int        `json:"version"`
	PageID      *uuid.UUID `json:"page_id,omitempty"` // The owning page, nil while unscanned
	ImageRef    string     `json:"image_ref,omitempty"`
}

// MobilePage is an extra page attached to one question of a paper.
// A single scanned extra page fans out into one MobilePage per question
// it was assigned to.
type MobilePage struct {
	ID          int64     `json:"id"`
	PaperNumber int       `json:"paper_number"`
	QuestionIdx int       `json:"question_idx"`
	Version     int       `json:"version"`
	PageID      uuid.UUID `json:"page_id"`
	ImageRef    string    `json:"image_ref,omitempty"`
}

// PaperState is the assembled view of a paper: its slot map, extra pages
// and lazily computed completeness.
type PaperState struct {
	Paper      Paper        `json:"paper"`
	Slots      []FixedSlot  `json:"slots"`
	Extras     []MobilePage `json:"extras"`
	IsComplete bool         `json:"is_complete"`
	Identified bool         `json:"identified"`
}

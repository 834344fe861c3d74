package model

import (
	"time"

	"github.com/google/uuid"
)

// CollisionStatus enumerates the lifecycle of a collision record.
type CollisionStatus string

const (
	CollisionStatusOpen     CollisionStatus = "OPEN"
	CollisionStatusResolved CollisionStatus = "RESOLVED"
)

// CollisionResolution enumerates operator choices for a collision.
type CollisionResolution string

const (
	// ResolutionKeepIncoming discards the previously committed (or earlier
	// staged) page and lets the incoming page take the slot at push time.
	ResolutionKeepIncoming CollisionResolution = "KEEP_INCOMING"
	// ResolutionKeepExisting casts the incoming page to DISCARD.
	ResolutionKeepExisting CollisionResolution = "KEEP_EXISTING"
)

// Collision records two candidate pages claiming the same
// (paper_number, page_number) slot. A bundle cannot push while any of
// its collisions are open. Resolution is idempotent.
type Collision struct {
	ID             uuid.UUID            `json:"id"`
	BundleID       uuid.UUID            `json:"bundle_id"`
	PaperNumber    int                  `json:"paper_number"`
	PageNumber     int                  `json:"page_number"`
	IncomingPageID uuid.UUID            `json:"incoming_page_id"`
	ExistingPageID uuid.UUID            `json:"existing_page_id"`
	Status         CollisionStatus      `json:"status"`
	Resolution     *CollisionResolution `json:"resolution,omitempty"`
	ResolvedBy     *int                 `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time           `json:"resolved_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// ResolveCollisionRequest is the payload for resolving a collision.
type ResolveCollisionRequest struct {
	Resolution CollisionResolution `json:"resolution" binding:"required,oneof=KEEP_INCOMING KEEP_EXISTING"`
}

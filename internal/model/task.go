package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskKind enumerates the kinds of claimable work units.
type TaskKind string

const (
	TaskKindID        TaskKind = "ID"        // Identify the student on a paper
	TaskKindMarking   TaskKind = "MARKING"   // Mark one question of a paper
	TaskKindTotalling TaskKind = "TOTALLING" // Total the marks of a complete paper
)

// TaskState enumerates the claim states of a task.
type TaskState string

const (
	TaskStateAvailable TaskState = "AVAILABLE"
	TaskStateClaimed   TaskState = "CLAIMED"
	TaskStateComplete  TaskState = "COMPLETE"
)

// Task is a generic claimable unit of work tied to a paper (and, for
// marking tasks, a question). At most one active claim exists at any
// instant; the claim token proves ownership of the active claim.
//
// Tasks are never deleted. When the underlying paper loses a page the
// task is force-unclaimed and flagged out-of-date instead, and comes
// back once the paper re-completes.
type Task struct {
	ID          uuid.UUID       `json:"id"`
	Kind        TaskKind        `json:"kind"`
	PaperNumber int             `json:"paper_number"`
	QuestionIdx *int            `json:"question_idx,omitempty"` // Marking tasks only
	State       TaskState       `json:"state"`
	OutOfDate   bool            `json:"out_of_date"`
	Priority    float64         `json:"priority"`
	Owner       *string         `json:"owner,omitempty"`
	ClaimToken  *string         `json:"-"` // Never serialized back to listings
	ClaimedAt   *time.Time      `json:"claimed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TaskPayload is what a successful claim hands to the worker: the images
// it needs to do the work, plus kind-specific context.
type TaskPayload struct {
	PaperNumber int            `json:"paper_number"`
	QuestionIdx *int           `json:"question_idx,omitempty"`
	Images      []TaskImage    `json:"images"`
	Predictions []IDPrediction `json:"predictions,omitempty"` // ID tasks only
}

// TaskImage is one page image reference in a task payload.
type TaskImage struct {
	ImageRef   string `json:"image_ref"`
	PageNumber *int   `json:"page_number,omitempty"`
	Rotation   int    `json:"rotation"`
	Extra      bool   `json:"extra"`
}

// CompleteTaskRequest is the payload for submitting a task result.
type CompleteTaskRequest struct {
	ClaimToken string          `json:"claim_token" binding:"required,uuid"`
	Result     json.RawMessage `json:"result" binding:"required"`
}

// UnclaimTaskRequest is the payload for surrendering a claim.
type UnclaimTaskRequest struct {
	ClaimToken string `json:"claim_token" binding:"required,uuid"`
}

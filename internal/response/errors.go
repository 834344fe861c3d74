package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrOperatorAccessOnly ErrCode = "OPERATOR_ACCESS_ONLY"
	ErrWorkerAccessOnly   ErrCode = "WORKER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Scanning ──────────────────────────────────────────────────────
	ErrNoLayout          ErrCode = "NO_LAYOUT"
	ErrDuplicateBundle   ErrCode = "DUPLICATE_BUNDLE"
	ErrBundlePushed      ErrCode = "BUNDLE_ALREADY_PUSHED"
	ErrBundleNotReady    ErrCode = "BUNDLE_NOT_READY"
	ErrPageImmutable     ErrCode = "PAGE_IMMUTABLE"
	ErrPaperNotBuilt     ErrCode = "PAPER_NOT_BUILT"
	ErrCollisionConflict ErrCode = "COLLISION_ALREADY_RESOLVED"

	// ─── Tasks ─────────────────────────────────────────────────────────
	ErrClaimLost         ErrCode = "CLAIM_LOST"
	ErrInvalidClaimToken ErrCode = "INVALID_CLAIM_TOKEN"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrOperatorAccessOnly:
		return "This resource is restricted to scanning operators."
	case ErrWorkerAccessOnly:
		return "This resource is restricted to worker clients."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Scanning ──────────────────────────────────────────────────────
	case ErrNoLayout:
		return "The exam layout has not been configured yet."
	case ErrDuplicateBundle:
		return "A bundle with this PDF hash is already staged."
	case ErrBundlePushed:
		return "The bundle has already been pushed and is read-only."
	case ErrBundleNotReady:
		return "The bundle still has untriaged pages or open collisions."
	case ErrPageImmutable:
		return "The page cannot be modified in its current state."
	case ErrPaperNotBuilt:
		return "The referenced paper has not been built."
	case ErrCollisionConflict:
		return "The collision was already resolved with a different decision."

	// ─── Tasks ─────────────────────────────────────────────────────────
	case ErrClaimLost:
		return "The task claim was not acquired. Pick another task."
	case ErrInvalidClaimToken:
		return "The claim token does not match the active claim. Claim the task again."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}

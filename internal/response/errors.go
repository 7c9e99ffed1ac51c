package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrAccessDenied      ErrCode = "ACCESS_DENIED"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrFacultyAccessOnly ErrCode = "FACULTY_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrExamNotFound    ErrCode = "EXAM_NOT_FOUND"
	ErrAttemptNotFound ErrCode = "ATTEMPT_NOT_FOUND"

	// ─── Exam catalog ──────────────────────────────────────────────────
	ErrInvalidTimeWindow ErrCode = "INVALID_TIME_WINDOW"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrExamNotYetOpen      ErrCode = "EXAM_NOT_YET_OPEN"
	ErrExamClosed          ErrCode = "EXAM_CLOSED"
	ErrAttemptLimitReached ErrCode = "ATTEMPT_LIMIT_REACHED"
	ErrNoActiveAttempt     ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrInvalidState        ErrCode = "INVALID_STATE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."
	case ErrAccessDenied:
		return "You do not have permission to perform this action."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrFacultyAccessOnly:
		return "This resource is restricted to faculty and administrators."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The identifier in the request is not valid."
	case ErrExamNotFound:
		return "The requested exam does not exist."
	case ErrAttemptNotFound:
		return "No attempt exists for this student and exam."
	case ErrInvalidTimeWindow:
		return "The exam end time must be after its start time."
	case ErrExamNotYetOpen:
		return "This exam has not opened yet."
	case ErrExamClosed:
		return "This exam is already closed."
	case ErrAttemptLimitReached:
		return "You have used all allowed attempts for this exam."
	case ErrNoActiveAttempt:
		return "You have no attempt in progress for this exam."
	case ErrInvalidState:
		return "The attempt is not in a state that allows this operation."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}

package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired     ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid      ErrCode = "TOKEN_INVALID"
	ErrTokenExpired      ErrCode = "TOKEN_EXPIRED"
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Session guards ────────────────────────────────────────────────
	ErrAssessmentNotFound ErrCode = "ASSESSMENT_NOT_FOUND"
	ErrAssessmentNotOpen  ErrCode = "ASSESSMENT_NOT_OPEN"
	ErrAssessmentEnded    ErrCode = "ASSESSMENT_ENDED"
	ErrAlreadyCompleted   ErrCode = "ALREADY_COMPLETED"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrNoActiveSession    ErrCode = "NO_ACTIVE_SESSION"
	ErrIndexOutOfRange    ErrCode = "INDEX_OUT_OF_RANGE"

	// ─── Submission ────────────────────────────────────────────────────
	ErrUnansweredQuestions ErrCode = "UNANSWERED_QUESTIONS"
	ErrSubmissionInFlight  ErrCode = "SUBMISSION_IN_FLIGHT"
	ErrSubmissionRejected  ErrCode = "SUBMISSION_REJECTED"
	ErrUpstreamUnavailable ErrCode = "UPSTREAM_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."
	case ErrTokenExpired:
		return "Session expired. Please login again."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Session guards ────────────────────────────────────────────────
	case ErrAssessmentNotFound:
		return "Assessment not found."
	case ErrAssessmentNotOpen:
		return "Assessment has not started yet."
	case ErrAssessmentEnded:
		return "Assessment has ended."
	case ErrAlreadyCompleted:
		return "You have already completed this assessment."
	case ErrSessionActive:
		return "Another assessment session is already in progress."
	case ErrNoActiveSession:
		return "No active assessment session."
	case ErrIndexOutOfRange:
		return "Question or option index is out of range."

	// ─── Submission ────────────────────────────────────────────────────
	case ErrUnansweredQuestions:
		return "Some questions are unanswered. Confirm to submit anyway."
	case ErrSubmissionInFlight:
		return "Your submission is already being processed."
	case ErrSubmissionRejected:
		return "Invalid submission data. Please check your answers and try again."
	case ErrUpstreamUnavailable:
		return "Failed to submit assessment. Please try again."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}

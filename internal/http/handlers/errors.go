// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. The constants below give clients a stable, machine-readable
// taxonomy alongside the human-readable messages in the error envelope.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes (bad_request, not_found, conflict, ...) mirror common
//     HTTP status semantics.
//   - Domain codes (generate_failed, capture_failed, idea_sold, ...) carry
//     business outcomes that status alone cannot convey.
//
// Handlers select the most specific matching code and pass it to fail()
// together with the HTTP status and message.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeGenerateFailed    = "generate_failed"
	ErrCodeOrderFailed       = "order_failed"
	ErrCodeCaptureFailed     = "capture_failed"
	ErrCodeCaptureDeclined   = "capture_declined"
	ErrCodeCaptureInProgress = "capture_in_progress"
	ErrCodeIdeaSold          = "idea_sold"
	ErrCodeSaveFailed        = "save_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodePaymentRequired   = "payment_required"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)

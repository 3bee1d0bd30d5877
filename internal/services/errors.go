// Package services defines the business logic for daily ideas, purchases,
// owned ideas, and profiles. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrIdeaNotFound indicates that the requested idea does not exist or is
	// not accessible to the current user.
	ErrIdeaNotFound = errors.New("idea not found")

	// ErrIdeaSold is returned when a purchase targets a daily idea that has
	// already been claimed by another buyer or no longer exists. The capture
	// is rejected and no fulfillment side effects run.
	ErrIdeaSold = errors.New("idea already sold")

	// ErrProfileNotFound indicates that no profile row exists for the user.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrEmptyIdea is returned when a save request carries no usable idea
	// content (no title and no problem statement).
	ErrEmptyIdea = errors.New("idea content is empty")

	// ErrInvalidFitScore is returned when a founder-fit score falls outside
	// the 0-100 range.
	ErrInvalidFitScore = errors.New("fit score must be between 0 and 100")

	// ErrCaptureInProgress is returned when a capture is requested for an
	// order whose first capture attempt has not finished yet.
	ErrCaptureInProgress = errors.New("capture already in progress")

	// ErrCaptureDeclined is returned when a capture is retried for an order
	// whose capture attempt already failed at the payment provider.
	ErrCaptureDeclined = errors.New("capture was declined")

	// ErrOrderNotFound indicates that no purchase record exists for the
	// given provider order id.
	ErrOrderNotFound = errors.New("order not found")
)

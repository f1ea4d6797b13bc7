// Package apperr defines the sentinel error taxonomy shared across the
// dispatch pipeline, per the error handling design.
package apperr

import "errors"

var (
	// ErrInvalidArgument marks a request that failed schema/enum/size validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRecipientMissing marks a resolver that yielded no address or token.
	ErrRecipientMissing = errors.New("recipient missing")

	// ErrTemplateRender marks a non-fatal render failure; caller should fall
	// back to the raw title/message fields.
	ErrTemplateRender = errors.New("template render failed")

	// ErrAdapterTransient marks a retryable channel-adapter failure.
	ErrAdapterTransient = errors.New("adapter transient error")

	// ErrAdapterPermanent marks a non-retryable channel-adapter failure
	// (bad token, blacklisted address).
	ErrAdapterPermanent = errors.New("adapter permanent error")

	// ErrStoreUnavailable marks a persistence failure that must surface to the caller.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrQueueUnavailable marks an enqueue failure that must surface to the caller.
	ErrQueueUnavailable = errors.New("queue unavailable")

	// ErrEventMalformed marks a bulk/event message that could not be parsed.
	ErrEventMalformed = errors.New("event malformed")

	// ErrNotificationNotFound marks a lookup miss on the notifications table.
	ErrNotificationNotFound = errors.New("notification not found")
)

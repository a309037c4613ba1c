// Package services defines the business logic for order submission and voice
// conversation handling. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"

	"github.com/shamstack/voice-order-backend/internal/nlu"
)

var (
	// ErrInvalidOrder is returned when an order submission has a missing or
	// blank customer name, no items, or a blank item entry.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrOrderNotFound indicates that the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrLedgerWriteFailed is returned when the order could not be durably
	// recorded. No order ID has been consumed when this error is returned.
	ErrLedgerWriteFailed = errors.New("ledger write failed")

	// ErrTranscriptionFailed is returned when the speech-to-text provider
	// errored, timed out, or its circuit is open.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrSynthesisFailed wraps text-to-speech provider errors, timeouts, and
	// open-circuit rejections. It is degradation, not failure: the turn still
	// succeeds with text only and the error is only logged.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrUnsupportedLanguage mirrors the generator's sentinel so callers can
	// check it without importing the nlu package.
	ErrUnsupportedLanguage = nlu.ErrUnsupportedLanguage
)

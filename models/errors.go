package models

import "errors"

// Domain error kinds returned by the economy services. Callers match them
// with errors.Is; repositories translate store-level failures (unique
// violations, serialization aborts, connection loss) into these before they
// cross the service boundary.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrReferrerNotFound    = errors.New("referrer not found")
	ErrRateLimited         = errors.New("tapping too fast")
	ErrInsufficientFunds   = errors.New("not enough coins for upgrade")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyClaimed      = errors.New("daily reward already claimed")
	ErrAlreadyReferred     = errors.New("account already referred")
	ErrSelfReferral        = errors.New("cannot refer yourself")
	ErrInvalidMethod       = errors.New("invalid withdrawal method")
	ErrInvalidAddress      = errors.New("invalid withdrawal address")
	ErrStoreConflict       = errors.New("concurrent update conflict")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

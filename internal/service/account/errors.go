package account

import "errors"

// Sentinel errors for the account service layer.
var (
	// ErrNoAddress rejects enrollment with an empty identity.
	ErrNoAddress = errors.New("no address")

	// ErrAlreadyEnrolled reports a duplicate enrollment. The existing
	// account is never overwritten.
	ErrAlreadyEnrolled = errors.New("address already enrolled")

	// ErrNotFound reports that no account exists for an address.
	ErrNotFound = errors.New("sender account not found")
)

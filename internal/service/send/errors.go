package send

import "errors"

// Sentinel errors for the send pipeline. Each maps to a distinct
// caller-facing rejection; anything else surfaces as a generic send
// failure.
var (
	// ErrNoBalance covers every permission failure uniformly (missing
	// account, disabled account, exhausted balance) so callers cannot
	// probe which addresses exist.
	ErrNoBalance = errors.New("no balance")

	ErrNoAddress      = errors.New("no address")
	ErrInvalidToMail  = errors.New("invalid to mail")
	ErrBlocked        = errors.New("to_mail address is blocked")
	ErrInvalidSubject = errors.New("invalid subject")
	ErrInvalidContent = errors.New("invalid content")

	// ErrDeliveryFailed reports that the provider rejected the message
	// or was unreachable. Dispatch is attempted exactly once.
	ErrDeliveryFailed = errors.New("delivery failed")
)

package sendbox

import "errors"

// Sentinel errors for the sendbox service layer.
var (
	ErrNoAddress     = errors.New("no address")
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrInvalidOffset = errors.New("invalid offset")
)

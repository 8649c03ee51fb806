package domain

import "time"

// SenderAccount tracks the send quota for one address. One row per
// address, created at enrollment.
//
// Enabled is derived from the initial balance at creation time and is
// never recomputed afterwards: later debits reduce Balance but leave
// Enabled untouched. An account enrolled with balance 0 therefore stays
// disabled even if the balance is credited out of band.
type SenderAccount struct {
	Address   string    `json:"address"`
	Balance   int       `json:"balance"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// CanSend reports whether the account may enter the send pipeline.
func (a *SenderAccount) CanSend() bool {
	return a.Enabled && a.Balance > 0
}

// Package sendbox implements the append-only audit log of send
// attempts. Every dispatched message is recorded as a redacted payload
// owned by the sending address; the owner can page through its history
// newest-first. Records are never mutated or deleted.
package sendbox

// Package account implements sender enrollment and quota lookup.
//
// Every address that wants to send mail must enroll once. Enrollment
// creates a SenderAccount with the configured default balance; the
// enabled flag is derived from that balance at creation time and is not
// recomputed afterwards. Duplicate enrollment is a conflict, detected
// through the store's unique constraint rather than a separate
// existence lookup.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package account

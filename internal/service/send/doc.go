// Package send implements the quota-gated send pipeline:
//
//	permission check -> field validation -> block-list filter ->
//	envelope assembly -> provider dispatch -> quota debit -> audit write
//
// Everything before dispatch fails the request with a caller-actionable
// error. Once the provider has accepted the message, nothing fails it:
// a missed debit or a failed audit insert is logged and the caller
// still gets success, because failing the response after the mail has
// left would make the caller retry and double-send.
package send

// Package subscriber manages subscriber records after admission: status
// transitions, tags, deletion, export, and the public unsubscribe and
// verification token flows.
//
// Status machine:
//
//	active   -> inactive     owner toggle, or unsubscribe link (logged)
//	inactive -> active       owner toggle, or verification link
//	any      -> blacklisted  owner action; also writes a list-scoped blacklist entry
//
// Deletion is a hard delete, not a status.
package subscriber

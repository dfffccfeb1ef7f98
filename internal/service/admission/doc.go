// Package admission decides whether a candidate email may join a
// subscription list.
//
// Every candidate is normalized, checked against the blacklist and the
// list's existing subscribers, then evaluated against the list policy.
// Policy failures are collected rather than short-circuited so the caller
// sees every reason at once. Depending on the list, a failure also adds a
// list-scoped blacklist entry. Bulk import and list copy run the same
// pipeline row by row under a per-list lock.
package admission

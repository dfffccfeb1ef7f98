// Package blacklist implements the email deny-list consulted before every
// subscriber admission.
//
// Entries are either global (no list id, applying to every list) or scoped
// to one subscription list. Lookups match an email against both.
package blacklist

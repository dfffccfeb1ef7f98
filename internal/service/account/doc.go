// Package account handles tenancy: users, API tokens, organizations and
// invitations, and the list access rule.
//
// A user may operate on a list when they own it, belong to the list's
// organization, or are an admin. Bearer tokens are random strings shown
// once at issue time; only their SHA-256 hash is stored.
package account

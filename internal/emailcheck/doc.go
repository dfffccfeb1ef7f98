// Package emailcheck holds the leaf checks used when admitting a subscriber:
// address normalization, free/disposable provider classification, and DNS
// validation of the address domain.
//
// None of the checks return errors for "bad" addresses. A lookup that
// fails or times out is reported as a negative answer, because an
// unverifiable domain is treated the same as a missing one.
package emailcheck

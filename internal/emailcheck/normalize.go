package emailcheck

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidAddress is returned by Parse for syntactically invalid input.
var ErrInvalidAddress = errors.New("invalid email address")

var syntax = validator.New()

// Address is a normalized email split at the last '@'.
type Address struct {
	Email  string
	Local  string
	Domain string
}

// Normalize trims and lower-cases an address for comparison.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Parse normalizes email and checks its syntax.
func Parse(email string) (Address, error) {
	e := Normalize(email)
	if e == "" || syntax.Var(e, "email") != nil {
		return Address{}, ErrInvalidAddress
	}
	at := strings.LastIndex(e, "@")
	return Address{Email: e, Local: e[:at], Domain: e[at+1:]}, nil
}

// DomainOf returns the normalized domain part of email, or "" when there is none.
func DomainOf(email string) string {
	e := Normalize(email)
	at := strings.LastIndex(e, "@")
	if at < 0 || at == len(e)-1 {
		return ""
	}
	return e[at+1:]
}

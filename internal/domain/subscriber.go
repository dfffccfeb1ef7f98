package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberActive      SubscriberStatus = "active"
	SubscriberInactive    SubscriberStatus = "inactive"
	SubscriberBlacklisted SubscriberStatus = "blacklisted"
)

// Valid reports whether s is one of the known statuses.
func (s SubscriberStatus) Valid() bool {
	switch s {
	case SubscriberActive, SubscriberInactive, SubscriberBlacklisted:
		return true
	}
	return false
}

// TokenLength is the length of unsubscribe and verification tokens.
const TokenLength = 32

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Subscriber represents a single email recipient within a subscription list.
type Subscriber struct {
	ID                string           `json:"id" db:"id"`
	ListID            string           `json:"list_id" db:"list_id"`
	Name              string           `json:"name,omitempty" db:"name"`
	Email             string           `json:"email" db:"email"`
	Status            SubscriberStatus `json:"status" db:"status"`
	Metadata          map[string]any   `json:"metadata" db:"metadata"`
	UnsubscribeToken  string           `json:"-" db:"unsubscribe_token"`
	VerificationToken *string          `json:"-" db:"verification_token"`
	VerifiedAt        *time.Time       `json:"verified_at,omitempty" db:"verified_at"`
	Tags              []string         `json:"tags"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// NewSubscriber builds an active subscriber with a fresh unsubscribe token.
// When requireVerification is set the subscriber starts inactive and
// carries a verification token until the address is confirmed.
func NewSubscriber(listID, email, name string, metadata map[string]any, requireVerification bool) (*Subscriber, error) {
	unsub, err := NewToken()
	if err != nil {
		return nil, fmt.Errorf("unsubscribe token: %w", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := time.Now().UTC()
	s := &Subscriber{
		ListID:           listID,
		Name:             name,
		Email:            email,
		Status:           SubscriberActive,
		Metadata:         metadata,
		UnsubscribeToken: unsub,
		Tags:             []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if requireVerification {
		vt, err := NewToken()
		if err != nil {
			return nil, fmt.Errorf("verification token: %w", err)
		}
		s.Status = SubscriberInactive
		s.VerificationToken = &vt
	}
	return s, nil
}

// NewToken returns a random alphanumeric token of TokenLength characters.
func NewToken() (string, error) {
	b := make([]byte, TokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return string(b), nil
}

// SubscriberTag is a free-text label attached to a subscriber.
type SubscriberTag struct {
	ID           string    `json:"id" db:"id"`
	SubscriberID string    `json:"subscriber_id" db:"subscriber_id"`
	Tag          string    `json:"tag" db:"tag"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UnsubscribeLog is an append-only audit row written when a subscriber
// leaves a list through the unsubscribe link.
type UnsubscribeLog struct {
	ID             string    `json:"id" db:"id"`
	ListID         string    `json:"list_id" db:"list_id"`
	SubscriberID   string    `json:"subscriber_id" db:"subscriber_id"`
	UnsubscribedAt time.Time `json:"unsubscribed_at" db:"unsubscribed_at"`
	Reason         string    `json:"reason" db:"reason"`
}

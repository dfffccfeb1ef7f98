package subscriber

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Links builds the public unsubscribe and verification URLs embedded in
// outgoing mail. Verification links carry an HMAC-SHA256 signature over the
// token so that only links minted by this deployment are honoured.
type Links struct {
	baseURL string
	key     []byte
}

// NewLinks returns a link builder rooted at baseURL and signing with key.
func NewLinks(baseURL, key string) *Links {
	return &Links{baseURL: strings.TrimRight(baseURL, "/"), key: []byte(key)}
}

// Sign returns the hex signature for token.
func (l *Links) Sign(token string) string {
	mac := hmac.New(sha256.New, l.key)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Valid reports whether signature matches token.
func (l *Links) Valid(token, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, l.key)
	mac.Write([]byte(token))
	return hmac.Equal(mac.Sum(nil), want)
}

// UnsubscribeURL is the public one-click unsubscribe link for a subscriber.
func (l *Links) UnsubscribeURL(token string) string {
	return l.baseURL + "/unsubscribe/" + url.PathEscape(token)
}

// VerifyURL is the signed confirmation link sent to unverified subscribers.
func (l *Links) VerifyURL(token string) string {
	return l.baseURL + "/verify/" + url.PathEscape(token) + "?signature=" + l.Sign(token)
}

package emailcheck

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultFreeProviders are consumer webmail domains.
var DefaultFreeProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk", "yahoo.co.in", "yahoo.fr", "yahoo.de", "ymail.com", "rocketmail.com",
	"outlook.com", "hotmail.com", "hotmail.co.uk", "live.com", "msn.com",
	"aol.com", "aim.com",
	"icloud.com", "me.com", "mac.com",
	"protonmail.com", "proton.me", "pm.me",
	"gmx.com", "gmx.de", "gmx.net", "web.de",
	"mail.com", "zoho.com", "yandex.com", "yandex.ru", "mail.ru",
	"comcast.net", "att.net", "sbcglobal.net", "verizon.net", "cox.net",
	"qq.com", "163.com", "126.com",
}

// DefaultDisposableProviders are throwaway-mailbox domains.
var DefaultDisposableProviders = []string{
	"mailinator.com", "guerrillamail.com", "guerrillamail.net", "sharklasers.com",
	"10minutemail.com", "10minutemail.net", "tempmail.com", "temp-mail.org",
	"throwawaymail.com", "yopmail.com", "yopmail.net", "trashmail.com",
	"getnada.com", "dispostable.com", "maildrop.cc", "mintemail.com",
	"fakeinbox.com", "mohmal.com", "emailondeck.com", "tempail.com",
	"spamgourmet.com", "mailnesia.com", "mytemp.email", "burnermail.io",
}

// Classifier answers free-provider and disposable-provider questions from
// injected domain sets. It is safe for concurrent use once built.
type Classifier struct {
	free       map[string]struct{}
	disposable map[string]struct{}
}

// NewClassifier builds a classifier from the given domain lists.
func NewClassifier(free, disposable []string) *Classifier {
	return &Classifier{free: toSet(free), disposable: toSet(disposable)}
}

// DefaultClassifier uses the built-in provider lists.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultFreeProviders, DefaultDisposableProviders)
}

func toSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

// IsFreeProvider reports whether domain is a consumer webmail domain.
func (c *Classifier) IsFreeProvider(domain string) bool {
	_, ok := c.free[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// IsDisposable reports whether domain, or any parent of it, is a known
// disposable-mail provider.
func (c *Classifier) IsDisposable(domain string) bool {
	d := strings.ToLower(strings.TrimSpace(domain))
	for d != "" {
		if _, ok := c.disposable[d]; ok {
			return true
		}
		dot := strings.IndexByte(d, '.')
		if dot < 0 {
			return false
		}
		d = d[dot+1:]
	}
	return false
}

// Sizes returns the number of free and disposable domains loaded.
func (c *Classifier) Sizes() (free, disposable int) {
	return len(c.free), len(c.disposable)
}

// ReadDomainList parses one domain per line; blank lines and '#' comments
// are skipped.
func ReadDomainList(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.ToLower(strings.TrimSpace(line))
		if line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// LoadDomainFile reads a domain list file.
func LoadDomainFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domain list %s: %w", path, err)
	}
	defer f.Close()
	return ReadDomainList(f)
}

// BuildClassifier merges inline lists and optional files. Empty inputs for
// a category fall back to the built-in defaults.
func BuildClassifier(free, disposable []string, freeFile, disposableFile string) (*Classifier, error) {
	if freeFile != "" {
		extra, err := LoadDomainFile(freeFile)
		if err != nil {
			return nil, err
		}
		free = append(free, extra...)
	}
	if disposableFile != "" {
		extra, err := LoadDomainFile(disposableFile)
		if err != nil {
			return nil, err
		}
		disposable = append(disposable, extra...)
	}
	if len(free) == 0 {
		free = DefaultFreeProviders
	}
	if len(disposable) == 0 {
		disposable = DefaultDisposableProviders
	}
	return NewClassifier(free, disposable), nil
}

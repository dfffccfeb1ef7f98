package emailcheck

import (
	"context"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ignite/listguard/internal/pkg/logger"
)

// Resolver abstracts DNS resolution for testability. *net.Resolver
// satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// Cache stores boolean lookup outcomes. Implementations must treat errors
// as misses; the validator never fails because of the cache.
type Cache interface {
	Get(ctx context.Context, key string) (value bool, found bool)
	Set(ctx context.Context, key string, value bool, ttl time.Duration)
}

const (
	kindExists = "exists"
	kindMail   = "mail"
)

// DNSValidator answers domain existence and mail-record questions with a
// single bounded lookup per record type.
type DNSValidator struct {
	resolver Resolver
	timeout  time.Duration
	cache    Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

// Option configures a DNSValidator.
type Option func(*DNSValidator)

// WithCache stores results in c for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(v *DNSValidator) {
		v.cache = c
		v.cacheTTL = ttl
	}
}

// NewDNSValidator creates a validator. A nil resolver uses net.DefaultResolver;
// a non-positive timeout defaults to 5s.
func NewDNSValidator(resolver Resolver, timeout time.Duration, opts ...Option) *DNSValidator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	v := &DNSValidator{resolver: resolver, timeout: timeout}
	for _, o := range opts {
		o(v)
	}
	return v
}

// DomainExists reports whether domain has any A/AAAA, MX or NS record.
func (v *DNSValidator) DomainExists(ctx context.Context, domain string) bool {
	return v.cached(ctx, kindExists, domain, func(ctx context.Context, d string) bool {
		if v.hasHost(ctx, d) {
			return true
		}
		if v.hasMX(ctx, d) {
			return true
		}
		lctx, cancel := context.WithTimeout(ctx, v.timeout)
		defer cancel()
		ns, err := v.resolver.LookupNS(lctx, d)
		return err == nil && len(ns) > 0
	})
}

// HasMailRecords reports whether domain can receive mail: an MX record,
// or failing that an A/AAAA record (implicit MX).
func (v *DNSValidator) HasMailRecords(ctx context.Context, domain string) bool {
	return v.cached(ctx, kindMail, domain, func(ctx context.Context, d string) bool {
		return v.hasMX(ctx, d) || v.hasHost(ctx, d)
	})
}

func (v *DNSValidator) hasMX(ctx context.Context, domain string) bool {
	lctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	records, err := v.resolver.LookupMX(lctx, domain)
	if err != nil {
		logger.Debug("mx lookup failed", "domain", domain, "error", err)
		return false
	}
	for _, mx := range records {
		// a null MX (".") declares that the domain accepts no mail
		if mx.Host != "." && mx.Host != "" {
			return true
		}
	}
	return false
}

func (v *DNSValidator) hasHost(ctx context.Context, domain string) bool {
	lctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	addrs, err := v.resolver.LookupHost(lctx, domain)
	if err != nil {
		logger.Debug("host lookup failed", "domain", domain, "error", err)
		return false
	}
	return len(addrs) > 0
}

func (v *DNSValidator) cached(ctx context.Context, kind, domain string, lookup func(context.Context, string) bool) bool {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return false
	}
	key := "emailcheck:dns:" + kind + ":" + d
	if v.cache != nil {
		if val, ok := v.cache.Get(ctx, key); ok {
			return val
		}
	}
	res, _, _ := v.group.Do(key, func() (interface{}, error) {
		ok := lookup(ctx, d)
		if v.cache != nil {
			v.cache.Set(ctx, key, ok, v.cacheTTL)
		}
		return ok, nil
	})
	return res.(bool)
}

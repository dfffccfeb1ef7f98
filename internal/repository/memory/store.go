// Package memory holds every repository in process memory. It backs the
// server when no DATABASE_URL is configured and the handler tests.
// Nothing survives a restart.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/ignite/listguard/internal/domain"
)

// Store is the shared state behind the repository views. Views returned by
// the accessor methods share one lock so list deletion can cascade.
type Store struct {
	mu sync.RWMutex

	lists       map[string]*domain.SubscriptionList
	subscribers map[string]*domain.Subscriber
	subOrder    []string
	tags        map[string][]string // subscriber id -> tags
	unsubLogs   []domain.UnsubscribeLog
	blacklist   map[string]*domain.EmailBlacklist
	blOrder     []string
	analytics   map[string]map[string]int // list id -> date -> count
	templates   map[string]*domain.EmailTemplate
	users       map[string]*domain.User
	tokens      map[string]*domain.ApiToken
	orgs        map[string]*domain.Organization
	members     map[string]map[string]domain.OrganizationMember // org id -> user id
	invitations map[string]*domain.OrganizationInvitation      // token -> invitation
}

// New returns an empty store.
func New() *Store {
	return &Store{
		lists:       map[string]*domain.SubscriptionList{},
		subscribers: map[string]*domain.Subscriber{},
		tags:        map[string][]string{},
		blacklist:   map[string]*domain.EmailBlacklist{},
		analytics:   map[string]map[string]int{},
		templates:   map[string]*domain.EmailTemplate{},
		users:       map[string]*domain.User{},
		tokens:      map[string]*domain.ApiToken{},
		orgs:        map[string]*domain.Organization{},
		members:     map[string]map[string]domain.OrganizationMember{},
		invitations: map[string]*domain.OrganizationInvitation{},
	}
}

// Blacklist returns the blacklist repository view.
func (s *Store) Blacklist() *BlacklistRepo { return &BlacklistRepo{s} }

// Subscribers returns the subscriber repository view.
func (s *Store) Subscribers() *SubscriberRepo { return &SubscriberRepo{s} }

// Lists returns the list repository view.
func (s *Store) Lists() *ListRepo { return &ListRepo{s} }

// Analytics returns the analytics repository view.
func (s *Store) Analytics() *AnalyticsRepo { return &AnalyticsRepo{s} }

// Templates returns the template repository view.
func (s *Store) Templates() *TemplateRepo { return &TemplateRepo{s} }

// Accounts returns the account repository view.
func (s *Store) Accounts() *AccountRepo { return &AccountRepo{s} }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func dateKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortedCopy(tags []string) []string {
	out := append([]string{}, tags...)
	sort.Strings(out)
	return out
}

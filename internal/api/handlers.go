package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/listguard/internal/auth"
	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/export"
	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/service/account"
	"github.com/ignite/listguard/internal/service/admission"
	"github.com/ignite/listguard/internal/service/analytics"
	"github.com/ignite/listguard/internal/service/blacklist"
	"github.com/ignite/listguard/internal/service/list"
	"github.com/ignite/listguard/internal/service/subscriber"
	"github.com/ignite/listguard/internal/service/template"
)

// Services is everything the handlers call into. Archiver may be nil when
// export archiving is not configured.
type Services struct {
	Lists       *list.Service
	Subscribers *subscriber.Service
	Admission   *admission.Pipeline
	Blacklist   *blacklist.Service
	Analytics   *analytics.Service
	Templates   *template.Service
	Accounts    *account.Service
	Archiver    *export.Archiver
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	Services
}

// NewHandlers creates handlers over svc.
func NewHandlers(svc Services) *Handlers {
	return &Handlers{Services: svc}
}

func actor(r *http.Request) *domain.User {
	return auth.UserFromContext(r.Context())
}

// listFromPath loads {listID} and checks the actor may use it. On failure it
// has already written the response.
func (h *Handlers) listFromPath(w http.ResponseWriter, r *http.Request) (*domain.SubscriptionList, bool) {
	id, ok := pathID(w, r, "listID", list.ErrNotFound)
	if !ok {
		return nil, false
	}
	l, err := h.Lists.Get(r.Context(), actor(r), id)
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	return l, true
}

// subscriberFromPath loads {id} and checks access through its list.
func (h *Handlers) subscriberFromPath(w http.ResponseWriter, r *http.Request) (*domain.Subscriber, bool) {
	return h.accessibleSubscriber(w, r, chi.URLParam(r, "id"))
}

func (h *Handlers) accessibleSubscriber(w http.ResponseWriter, r *http.Request, raw string) (*domain.Subscriber, bool) {
	id, ok := canonicalID(raw)
	if !ok {
		respondError(w, subscriber.ErrNotFound)
		return nil, false
	}
	sub, err := h.Subscribers.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	if _, err := h.Lists.Get(r.Context(), actor(r), sub.ListID); err != nil {
		respondError(w, err)
		return nil, false
	}
	return sub, true
}

// canonicalID parses a row id. Every stored id is a UUID, so anything that
// does not parse cannot name a row.
func canonicalID(raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// pathID reads a UUID URL parameter, answering with notFound when it is
// malformed.
func pathID(w http.ResponseWriter, r *http.Request, param string, notFound error) (string, bool) {
	id, ok := canonicalID(chi.URLParam(r, param))
	if !ok {
		respondError(w, notFound)
	}
	return id, ok
}

// HandleNotFound answers unknown routes with the JSON envelope.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.ErrorWithCode(w, http.StatusNotFound, "not_found", "route not found", nil)
}

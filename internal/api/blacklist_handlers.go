package api

import (
	"net/http"
	"strings"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/service/blacklist"
	"github.com/ignite/listguard/internal/service/list"
)

type addBlacklistRequest struct {
	Email  string  `json:"email" validate:"required,max=320"`
	Reason string  `json:"reason" validate:"max=500"`
	ListID *string `json:"list_id"`
}

// ListBlacklist pages through global entries plus entries of the actor's
// lists, or of one list with ?list_id=.
//
//	GET /api/blacklist?list_id=&search=&page=&limit=
func (h *Handlers) ListBlacklist(w http.ResponseWriter, r *http.Request) {
	u := actor(r)
	q := r.URL.Query()

	var ids []string
	if raw := q.Get("list_id"); raw != "" {
		id, ok := canonicalID(raw)
		if !ok {
			respondError(w, list.ErrNotFound)
			return
		}
		if _, err := h.Lists.Get(r.Context(), u, id); err != nil {
			respondError(w, err)
			return
		}
		ids = []string{id}
	} else {
		var err error
		if ids, err = h.Lists.IDs(r.Context(), u); err != nil {
			respondError(w, err)
			return
		}
	}

	p := ParsePage(r)
	entries, total, err := h.Blacklist.List(r.Context(), blacklist.ListFilter{
		ListIDs:       ids,
		IncludeGlobal: true,
		Search:        strings.ToLower(strings.TrimSpace(q.Get("search"))),
		Limit:         p.Limit,
		Offset:        p.Offset,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, Paginated(entries, p, total))
}

// AddBlacklist blacklists an email for one list, or globally for admins.
//
//	POST /api/blacklist
func (h *Handlers) AddBlacklist(w http.ResponseWriter, r *http.Request) {
	var req addBlacklistRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	u := actor(r)
	if req.ListID == nil || *req.ListID == "" {
		if !u.IsAdmin {
			httputil.ErrorWithCode(w, http.StatusForbidden, "forbidden", "only admins can add global blacklist entries", nil)
			return
		}
		req.ListID = nil
	} else {
		id, ok := canonicalID(*req.ListID)
		if !ok {
			respondError(w, list.ErrNotFound)
			return
		}
		if _, err := h.Lists.Get(r.Context(), u, id); err != nil {
			respondError(w, err)
			return
		}
		req.ListID = &id
	}

	e, err := h.Blacklist.Add(r.Context(), blacklist.AddInput{
		Email:   req.Email,
		Reason:  req.Reason,
		ListID:  req.ListID,
		ActorID: &u.ID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, e)
}

// RemoveBlacklist deletes an entry. Global entries need an admin.
//
//	DELETE /api/blacklist/{id}
func (h *Handlers) RemoveBlacklist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", blacklist.ErrNotFound)
	if !ok {
		return
	}
	e, err := h.Blacklist.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !h.canManageEntry(w, r, e) {
		return
	}
	if err := h.Blacklist.Remove(r.Context(), e.ID); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) canManageEntry(w http.ResponseWriter, r *http.Request, e *domain.EmailBlacklist) bool {
	u := actor(r)
	if e.IsGlobal() {
		if !u.IsAdmin {
			httputil.ErrorWithCode(w, http.StatusForbidden, "forbidden", "only admins can remove global blacklist entries", nil)
			return false
		}
		return true
	}
	if _, err := h.Lists.Get(r.Context(), u, *e.SubscriptionListID); err != nil {
		respondError(w, err)
		return false
	}
	return true
}

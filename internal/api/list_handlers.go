package api

import (
	"net/http"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/service/admission"
	"github.com/ignite/listguard/internal/service/list"
)

type createListRequest struct {
	Name           string         `json:"name" validate:"required,max=255"`
	Description    string         `json:"description" validate:"max=2000"`
	OrganizationID *string        `json:"organization_id" validate:"omitempty,uuid"`
	Policy         *domain.Policy `json:"policy"`
}

type updateListRequest struct {
	Name        *string        `json:"name" validate:"omitempty,max=255"`
	Description *string        `json:"description" validate:"omitempty,max=2000"`
	Policy      *domain.Policy `json:"policy" validate:"required"`
}

type duplicateListRequest struct {
	Name   string         `json:"name" validate:"max=255"`
	Policy *domain.Policy `json:"policy"`
}

type duplicateListResponse struct {
	List    *domain.SubscriptionList `json:"list"`
	Summary *admission.ImportSummary `json:"summary"`
}

// ListLists returns the actor's lists with subscriber counts.
//
//	GET /api/lists
func (h *Handlers) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.Lists.List(r.Context(), actor(r))
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"lists": lists, "total": len(lists)})
}

// CreateList creates a list owned by the actor.
//
//	POST /api/lists
func (h *Handlers) CreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	l, err := h.Lists.Create(r.Context(), actor(r), list.CreateInput{
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: req.OrganizationID,
		Policy:         req.Policy,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, l)
}

// GetList returns one list.
//
//	GET /api/lists/{listID}
func (h *Handlers) GetList(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	httputil.OK(w, l)
}

// UpdateListPolicy replaces a list's policy and optionally renames it.
//
//	PUT /api/lists/{listID}/policy
func (h *Handlers) UpdateListPolicy(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	var req updateListRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	updated, err := h.Lists.Update(r.Context(), actor(r), l.ID, list.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Policy:      req.Policy,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, updated)
}

// DeleteList removes a list and everything scoped to it.
//
//	DELETE /api/lists/{listID}
func (h *Handlers) DeleteList(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	if err := h.Lists.Delete(r.Context(), actor(r), l.ID); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

// DuplicateList copies a list's subscribers into a new list.
//
//	POST /api/lists/{listID}/duplicate
func (h *Handlers) DuplicateList(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	var req duplicateListRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	dst, sum, err := h.Lists.Duplicate(r.Context(), actor(r), l.ID, list.DuplicateInput{
		Name:   req.Name,
		Policy: req.Policy,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, duplicateListResponse{List: dst, Summary: sum})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/service/account"
)

type issueTokenRequest struct {
	Name string `json:"name" validate:"max=100"`
}

type issueTokenResponse struct {
	Token    string           `json:"token"`
	APIToken *domain.ApiToken `json:"api_token"`
}

type createOrgRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type inviteResponse struct {
	Invitation *domain.OrganizationInvitation `json:"invitation"`
	Token      string                         `json:"token"`
}

// ListTokens returns the actor's API tokens.
//
//	GET /api/tokens
func (h *Handlers) ListTokens(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Accounts.ListTokens(r.Context(), actor(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"tokens": ts})
}

// IssueToken creates a token. The plaintext is only ever in this response.
//
//	POST /api/tokens
func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	plain, t, err := h.Accounts.IssueToken(r.Context(), actor(r).ID, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, issueTokenResponse{Token: plain, APIToken: t})
}

// RevokeToken deletes one of the actor's tokens.
//
//	DELETE /api/tokens/{id}
func (h *Handlers) RevokeToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", account.ErrNotFound)
	if !ok {
		return
	}
	if err := h.Accounts.RevokeToken(r.Context(), actor(r).ID, id); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

// CreateOrganization creates an organization owned by the actor.
//
//	POST /api/organizations
func (h *Handlers) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrgRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	org, err := h.Accounts.CreateOrganization(r.Context(), actor(r), req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, org)
}

// ListMembers returns an organization's members.
//
//	GET /api/organizations/{orgID}/members
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "orgID", account.ErrNotFound)
	if !ok {
		return
	}
	ms, err := h.Accounts.Members(r.Context(), actor(r), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"members": ms})
}

// Invite creates an invitation. The token is returned so the owner can
// forward the link.
//
//	POST /api/organizations/{orgID}/invitations
func (h *Handlers) Invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	orgID, ok := pathID(w, r, "orgID", account.ErrNotFound)
	if !ok {
		return
	}
	inv, err := h.Accounts.Invite(r.Context(), actor(r), orgID, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, inviteResponse{Invitation: inv, Token: inv.Token})
}

// AcceptInvitation joins the actor to the inviting organization.
//
//	POST /api/invitations/{token}/accept
func (h *Handlers) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	m, err := h.Accounts.AcceptInvitation(r.Context(), actor(r), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, m)
}

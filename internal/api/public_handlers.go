package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/listguard/internal/pkg/httputil"
)

// Unsubscribe handles the link embedded in every mail. No auth.
//
//	GET /unsubscribe/{token}?reason=
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	res, err := h.Subscribers.Unsubscribe(r.Context(), chi.URLParam(r, "token"), r.URL.Query().Get("reason"))
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, res)
}

// Verify confirms an address from a signed verification link. No auth.
//
//	GET /verify/{token}?signature=
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Subscribers.Verify(r.Context(), chi.URLParam(r, "token"), r.URL.Query().Get("signature"))
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"status":      "verified",
		"list_id":     sub.ListID,
		"verified_at": sub.VerifiedAt,
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/service/analytics"
)

const dateLayout = "2006-01-02"

// Dashboard aggregates counts across every list the actor can see.
//
//	GET /api/dashboard
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Lists.IDs(r.Context(), actor(r))
	if err != nil {
		respondError(w, err)
		return
	}
	d, err := h.Analytics.Dashboard(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, d)
}

// ListAnalytics returns new subscribers per day. Defaults to the last 30 days.
//
//	GET /api/lists/{listID}/analytics?from=&to=
func (h *Handlers) ListAnalytics(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	to := analytics.Day(time.Now())
	from := to.AddDate(0, 0, -29)
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			httputil.BadRequest(w, "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			httputil.BadRequest(w, "to must be YYYY-MM-DD")
			return
		}
		to = t
	}
	if to.Sub(from) > 366*24*time.Hour || from.Sub(to) > 366*24*time.Hour {
		httputil.BadRequest(w, "date range cannot exceed one year")
		return
	}

	series, err := h.Analytics.ListStats(r.Context(), l.ID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"list_id": l.ID, "new_subscribers": series})
}

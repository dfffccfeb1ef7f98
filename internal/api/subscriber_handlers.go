package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/export"
	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/pkg/logger"
	"github.com/ignite/listguard/internal/service/admission"
	"github.com/ignite/listguard/internal/service/subscriber"
)

// maxImportBytes caps the multipart body of an import upload.
const maxImportBytes = 32 << 20

type admitRequest struct {
	Email    string         `json:"email" validate:"required,max=320"`
	Name     string         `json:"name" validate:"max=255"`
	Metadata map[string]any `json:"metadata"`
}

// admitRejection is the 409/422 body of a refused admission.
type admitRejection struct {
	Error       string   `json:"error"`
	Code        string   `json:"code"`
	Reasons     []string `json:"reasons"`
	Blacklisted bool     `json:"blacklisted"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive blacklisted"`
}

type tagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,max=100"`
}

type removeTagRequest struct {
	SubscriberID string `json:"subscriber_id" validate:"required"`
	Tag          string `json:"tag" validate:"required"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=1000"`
}

// AdmitSubscriber runs one email through the list's admission policy.
//
//	POST /api/lists/{listID}/subscribers
func (h *Handlers) AdmitSubscriber(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	var req admitRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	res, err := h.Admission.Admit(r.Context(), l, admission.Candidate{
		Email:    req.Email,
		Name:     req.Name,
		Metadata: req.Metadata,
	}, actor(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}

	switch res.Kind {
	case admission.Accepted:
		httputil.Created(w, res.Subscriber)
	case admission.Conflict:
		httputil.JSON(w, http.StatusConflict, admitRejection{
			Error:   "subscriber already exists in this list",
			Code:    "conflict",
			Reasons: []string{},
		})
	default:
		httputil.JSON(w, http.StatusUnprocessableEntity, admitRejection{
			Error:       "subscriber rejected",
			Code:        string(res.Kind),
			Reasons:     res.Reasons,
			Blacklisted: res.Blacklisted(),
		})
	}
}

// ListSubscribers pages through a list's subscribers.
//
//	GET /api/lists/{listID}/subscribers?status=&tag=&search=&page=&limit=
func (h *Handlers) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	p := ParsePage(r)
	q := r.URL.Query()
	subs, total, err := h.Subscribers.List(r.Context(), l.ID, subscriber.ListFilter{
		Status: q.Get("status"),
		Tag:    q.Get("tag"),
		Search: q.Get("search"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, Paginated(subs, p, total))
}

// ImportSubscribers admits every row of an uploaded CSV or JSON file.
//
//	POST /api/lists/{listID}/import
func (h *Handlers) ImportSubscribers(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		httputil.BadRequest(w, "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	format := admission.FormatFor(header.Filename, header.Header.Get("Content-Type"))
	rows, err := admission.ParseRows(format, file)
	if err != nil {
		respondError(w, err)
		return
	}

	sum, err := h.Admission.Import(r.Context(), l, rows, actor(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	logger.Info("list import finished", "list_id", l.ID, "imported", sum.Imported,
		"failed", sum.Failed, "skipped", sum.Skipped)
	httputil.OK(w, sum)
}

func exportFormat(w http.ResponseWriter, r *http.Request) (export.Format, bool) {
	f := export.Format(strings.ToLower(chi.URLParam(r, "format")))
	if !f.Valid() {
		respondError(w, subscriber.ErrInvalidFormat)
		return "", false
	}
	return f, true
}

// ExportSubscribers streams the list as CSV or JSON. An empty list is 204.
//
//	GET /api/lists/{listID}/export/{format}
func (h *Handlers) ExportSubscribers(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	f, ok := exportFormat(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="list-%s.%s"`, l.ID, f))
	n, err := h.Subscribers.Export(r.Context(), l.ID, f, w)
	switch {
	case errors.Is(err, subscriber.ErrNothingToExport):
		w.Header().Del("Content-Type")
		w.Header().Del("Content-Disposition")
		httputil.NoContent(w)
	case err != nil && n == 0:
		w.Header().Del("Content-Disposition")
		respondError(w, err)
	case err != nil:
		// headers are already sent
		logger.Error("export aborted", "list_id", l.ID, "rows", n, "error", err)
	default:
		logger.Info("list exported", "list_id", l.ID, "format", string(f), "rows", n)
	}
}

// ArchiveExport writes the export to S3 instead of the response.
//
//	POST /api/lists/{listID}/export/{format}/archive
func (h *Handlers) ArchiveExport(w http.ResponseWriter, r *http.Request) {
	l, ok := h.listFromPath(w, r)
	if !ok {
		return
	}
	f, ok := exportFormat(w, r)
	if !ok {
		return
	}
	if h.Archiver == nil {
		httputil.ErrorWithCode(w, http.StatusServiceUnavailable, "unavailable", "export archiving is not configured", nil)
		return
	}
	obj, err := h.Archiver.Archive(r.Context(), l.ID, f, func(dst io.Writer) (int, error) {
		return h.Subscribers.Export(r.Context(), l.ID, f, dst)
	})
	if errors.Is(err, subscriber.ErrNothingToExport) {
		httputil.NoContent(w)
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, obj)
}

// GetSubscriber returns one subscriber.
//
//	GET /api/subscribers/{id}
func (h *Handlers) GetSubscriber(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.subscriberFromPath(w, r)
	if !ok {
		return
	}
	httputil.OK(w, sub)
}

// DeleteSubscriber hard-deletes a subscriber.
//
//	DELETE /api/subscribers/{id}
func (h *Handlers) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.subscriberFromPath(w, r)
	if !ok {
		return
	}
	if err := h.Subscribers.Delete(r.Context(), sub.ID); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

// BulkDeleteSubscribers deletes the given ids. Unknown ids are ignored;
// any id on a list the actor cannot access fails the whole request.
//
//	POST /api/subscribers/bulk-delete
func (h *Handlers) BulkDeleteSubscribers(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	checked := make(map[string]bool)
	ids := make([]string, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, ok := canonicalID(raw)
		if !ok {
			continue
		}
		sub, err := h.Subscribers.Get(r.Context(), id)
		if errors.Is(err, subscriber.ErrNotFound) {
			continue
		}
		if err != nil {
			respondError(w, err)
			return
		}
		if !checked[sub.ListID] {
			if _, err := h.Lists.Get(r.Context(), actor(r), sub.ListID); err != nil {
				respondError(w, err)
				return
			}
			checked[sub.ListID] = true
		}
		ids = append(ids, id)
	}
	n, err := h.Subscribers.BulkDelete(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"deleted": n})
}

// UpdateSubscriberStatus changes a subscriber's status.
//
//	PUT /api/subscribers/{id}/status
func (h *Handlers) UpdateSubscriberStatus(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.subscriberFromPath(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	updated, err := h.Subscribers.UpdateStatus(r.Context(), sub.ID, domain.SubscriberStatus(req.Status), actor(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, updated)
}

// AddSubscriberTags attaches tags.
//
//	POST /api/subscribers/{id}/tags
func (h *Handlers) AddSubscriberTags(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.subscriberFromPath(w, r)
	if !ok {
		return
	}
	var req tagsRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	tags, err := h.Subscribers.AddTags(r.Context(), sub.ID, req.Tags)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"subscriber_id": sub.ID, "tags": tags})
}

// RemoveSubscriberTag detaches one tag.
//
//	DELETE /api/subscriber-tags
func (h *Handlers) RemoveSubscriberTag(w http.ResponseWriter, r *http.Request) {
	var req removeTagRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	sub, ok := h.accessibleSubscriber(w, r, req.SubscriberID)
	if !ok {
		return
	}
	if err := h.Subscribers.RemoveTag(r.Context(), sub.ID, req.Tag); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

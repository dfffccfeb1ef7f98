package api

import (
	"net/http"

	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/service/template"
)

type templateRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Subject string `json:"subject" validate:"max=998"`
	Body    string `json:"body"`
}

func (req templateRequest) input() template.Input {
	return template.Input{Name: req.Name, Subject: req.Subject, Body: req.Body}
}

type previewRequest struct {
	Variables map[string]any `json:"variables"`
}

type sendTestRequest struct {
	To string `json:"to" validate:"required,email"`
}

// ListTemplates returns the actor's templates followed by system templates.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Templates.List(r.Context(), actor(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"templates": ts, "total": len(ts)})
}

func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	t, err := h.Templates.Create(r.Context(), actor(r).ID, req.input())
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, t)
}

func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", template.ErrNotFound)
	if !ok {
		return
	}
	t, err := h.Templates.Get(r.Context(), actor(r).ID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, t)
}

func (h *Handlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	id, ok := pathID(w, r, "id", template.ErrNotFound)
	if !ok {
		return
	}
	t, err := h.Templates.Update(r.Context(), actor(r).ID, id, req.input())
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, t)
}

func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", template.ErrNotFound)
	if !ok {
		return
	}
	if err := h.Templates.Delete(r.Context(), actor(r).ID, id); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

// PreviewTemplate renders with sample data merged with the given variables.
//
//	POST /api/templates/{id}/preview
func (h *Handlers) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if r.ContentLength != 0 && !httputil.Decode(w, r, &req) {
		return
	}
	id, ok := pathID(w, r, "id", template.ErrNotFound)
	if !ok {
		return
	}
	out, err := h.Templates.Preview(r.Context(), actor(r).ID, id, req.Variables)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, out)
}

// SendTestTemplate renders with sample data and mails it.
//
//	POST /api/templates/{id}/send-test
func (h *Handlers) SendTestTemplate(w http.ResponseWriter, r *http.Request) {
	var req sendTestRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	id, ok := pathID(w, r, "id", template.ErrNotFound)
	if !ok {
		return
	}
	if err := h.Templates.SendTest(r.Context(), actor(r).ID, id, req.To); err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "sent", "to": req.To})
}

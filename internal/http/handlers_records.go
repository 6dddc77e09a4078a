package http

import (
	"net/http"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
)

// recordHandler serves the CRUD endpoints of one record kind.
type recordHandler[T core.Record[T]] struct {
	svc *services.RecordService[T]
}

type deleteResult struct {
	Success bool `json:"success"`
}

// mountRecords registers /api/<kind> routes for svc behind protect.
func mountRecords[T core.Record[T]](mux *http.ServeMux, svc *services.RecordService[T], protect func(http.Handler) http.Handler) {
	h := &recordHandler[T]{svc: svc}
	base := "/api/" + string(svc.Kind())

	mux.Handle("GET "+base, protect(http.HandlerFunc(h.list)))
	mux.Handle("POST "+base, protect(http.HandlerFunc(h.create)))
	mux.Handle("PUT "+base, protect(http.HandlerFunc(h.update)))
	mux.Handle("PUT "+base+"/{id}", protect(http.HandlerFunc(h.update)))
	mux.Handle("DELETE "+base, protect(http.HandlerFunc(h.delete)))
	mux.Handle("DELETE "+base+"/{id}", protect(http.HandlerFunc(h.delete)))
}

func (h *recordHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, log.OpList)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *recordHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var in T
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err, log.OpCreate)
		return
	}

	ctx := r.Context()
	userID := auth.UserID(ctx)
	rec, err := h.svc.Create(ctx, userID, in)
	if err != nil {
		writeServiceError(w, r, err, log.OpCreate)
		return
	}
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogMutation(ctx, log.OpCreate, string(h.svc.Kind()), rec.Metadata().ID, userID)
	writeJSON(w, http.StatusOK, rec)
}

func (h *recordHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	var in T
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err, log.OpUpdate)
		return
	}

	ctx := r.Context()
	userID := auth.UserID(ctx)
	id := recordID(r, in.Metadata().ID)
	rec, err := h.svc.Update(ctx, userID, id, in)
	if err != nil {
		writeServiceError(w, r, err, log.OpUpdate)
		return
	}
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogMutation(ctx, log.OpUpdate, string(h.svc.Kind()), id, userID)
	writeJSON(w, http.StatusOK, rec)
}

func (h *recordHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)
	id := recordID(r, "")
	if err := h.svc.Delete(ctx, userID, id); err != nil {
		writeServiceError(w, r, err, log.OpDelete)
		return
	}
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogMutation(ctx, log.OpDelete, string(h.svc.Kind()), id, userID)
	writeJSON(w, http.StatusOK, deleteResult{Success: true})
}

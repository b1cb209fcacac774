package review

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/emberworks/content-sync/pkg/audit"
	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/emberworks/content-sync/pkg/content"
	"github.com/emberworks/content-sync/pkg/gateway"
)

// HTTPHandler exposes the review queue: list drafts, publish one, delete one.
// Both transitions are terminal; there is no unpublish.
type HTTPHandler struct {
	store content.Store
}

func NewHTTPHandler(store content.Store) *HTTPHandler {
	return &HTTPHandler{store: store}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/review/drafts", h.handleListDrafts).Methods(http.MethodGet)
	router.HandleFunc("/review/{id}/publish", h.handlePublish).Methods(http.MethodPost)
	router.HandleFunc("/review/{id}", h.handleDelete).Methods(http.MethodDelete)
}

func (h *HTTPHandler) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.store.ListDrafts(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list drafts")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "drafts": drafts})
}

func (h *HTTPHandler) handlePublish(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	item, err := h.store.Publish(r.Context(), id, actorFrom(r))
	if err != nil {
		h.writeMutationError(w, err, "publish")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "item": item})
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id, actorFrom(r)); err != nil {
		h.writeMutationError(w, err, "delete")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *HTTPHandler) writeMutationError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "content item not found"})
	case errors.Is(err, content.ErrAlreadyPublished):
		writeJSON(w, http.StatusConflict, map[string]interface{}{"success": false, "error": "content item already published"})
	default:
		logger.Log.WithError(err).WithField("action", action).Error("content mutation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func actorFrom(r *http.Request) audit.Actor {
	if actor, ok := gateway.ActorFromContext(r.Context()); ok {
		return actor
	}
	return audit.AutomationActor()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

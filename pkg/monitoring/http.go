package monitoring

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/emberworks/content-sync/pkg/execlog"
)

// failureWindow bounds the "recent failures" view.
const failureWindow = 24 * time.Hour

// HTTPHandler serves the read-only aggregation the dashboard polls. It never
// writes and is safe at any polling concurrency.
type HTTPHandler struct {
	reader execlog.HealthReader
}

func NewHTTPHandler(reader execlog.HealthReader) *HTTPHandler {
	return &HTTPHandler{reader: reader}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/monitoring/health", h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/monitoring/failures", h.handleFailures).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.reader.JobHealth(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to aggregate job health")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "jobs": health})
}

func (h *HTTPHandler) handleFailures(w http.ResponseWriter, r *http.Request) {
	failures, err := h.reader.RecentFailures(r.Context(), failureWindow)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list recent failures")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "failures": failures})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

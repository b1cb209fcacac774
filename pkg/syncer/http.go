package syncer

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberworks/content-sync/pkg/execlog"
	"github.com/emberworks/content-sync/pkg/srcerr"
)

type HTTPHandler struct {
	service *Service
	execs   execlog.Writer
}

func NewHTTPHandler(service *Service, execs execlog.Writer) *HTTPHandler {
	return &HTTPHandler{service: service, execs: execs}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/sync/news", h.handleNews).Methods(http.MethodPost)
	router.HandleFunc("/sync/releases", h.handleReleases).Methods(http.MethodPost)
	router.HandleFunc("/sync/clips", h.handleClips).Methods(http.MethodPost)
}

func (h *HTTPHandler) handleNews(w http.ResponseWriter, r *http.Request) {
	run := execlog.Start(h.execs, "sync-news")
	outcome := h.service.SyncNews(r.Context(), run)
	h.finish(w, r, run, outcome)
}

func (h *HTTPHandler) handleReleases(w http.ResponseWriter, r *http.Request) {
	run := execlog.Start(h.execs, "sync-releases")
	outcome := h.service.SyncReleases(r.Context(), run)
	h.finish(w, r, run, outcome)
}

func (h *HTTPHandler) handleClips(w http.ResponseWriter, r *http.Request) {
	run := execlog.Start(h.execs, "sync-clips")
	outcome := h.service.SyncClips(r.Context(), run)
	h.finish(w, r, run, outcome)
}

// finish writes the single execution row for this invocation and renders the
// outcome. The execution log write happens on a fresh context: when the
// request deadline already fired we still owe the log its timeout row.
func (h *HTTPHandler) finish(w http.ResponseWriter, r *http.Request, run *execlog.Run, outcome Outcome) {
	logCtx := context.WithoutCancel(r.Context())

	switch {
	case r.Context().Err() != nil:
		run.LogTimeout(logCtx)
	case !outcome.Success:
		run.LogFailure(logCtx, &srcerr.Error{Kind: outcome.FailureKind, Source: "sync", Err: errOutcome(outcome.Error)})
	default:
		run.LogSuccess(logCtx)
	}

	status := http.StatusOK
	if !outcome.Success {
		if outcome.FailureKind == srcerr.NotConfigured {
			status = http.StatusServiceUnavailable
		} else {
			status = http.StatusInternalServerError
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(outcome)
}

type errOutcome string

func (e errOutcome) Error() string { return string(e) }

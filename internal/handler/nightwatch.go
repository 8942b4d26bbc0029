package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/nightwatch/internal/engine"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// Runner runs Night Watch on behalf of an actor.
type Runner interface {
	RunForActor(ctx context.Context, actor string, req engine.Request) (engine.RunReport, error)
}

// RunRequest is the optional body of a run. Policies, when present,
// replace the organization's stored policies for this run only.
type RunRequest struct {
	Policies []types.Policy `json:"policies,omitempty"`
}

// NightWatchHandler triggers engine runs.
type NightWatchHandler struct {
	runner  Runner
	timeout time.Duration
}

// NewNightWatchHandler creates a NightWatchHandler. A positive timeout
// bounds each run.
func NewNightWatchHandler(runner Runner, timeout time.Duration) *NightWatchHandler {
	return &NightWatchHandler{runner: runner, timeout: timeout}
}

// HandleRun runs the engine for the calling actor and returns the report.
// Precondition failures are a successful response with success=false.
// POST /v1/nightwatch/run
func (h *NightWatchHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	info, ok := parseAuditContext(w, r)
	if !ok {
		return
	}
	var body RunRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.runner.RunForActor(ctx, info.Actor, engine.Request{Policies: body.Policies})
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	logging.Logger.WithFields(logrus.Fields{
		"actor":   info.Actor,
		"source":  info.Source,
		"run_id":  report.RunID,
		"success": report.Success,
	}).Info("night watch run requested")
	writeJSON(w, http.StatusOK, report)
}

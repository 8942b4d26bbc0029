package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/matthewbaird/nightwatch/internal/activity"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// PropertyLister lists an organization's properties.
type PropertyLister interface {
	OrganizationResolver
	Properties(ctx context.Context, organizationID string) ([]types.Property, error)
}

// ActivityHandler serves the activity log. It only reads.
type ActivityHandler struct {
	store   activity.Store
	records PropertyLister
	now     func() time.Time
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store activity.Store, records PropertyLister) *ActivityHandler {
	return &ActivityHandler{store: store, records: records, now: time.Now}
}

// HandleList returns the organization's activity, newest first, or one
// property's when property_id is given.
// GET /v1/activity
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	org, ok := resolveOrganization(w, r, h.records)
	if !ok {
		return
	}

	opts := activity.DefaultQueryOptions()
	q := r.URL.Query()
	if s := q.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "since must be RFC 3339")
			return
		}
		opts.Since = &t
	}
	if u := q.Get("until"); u != "" {
		t, err := time.Parse(time.RFC3339, u)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "until must be RFC 3339")
			return
		}
		opts.Until = &t
	}
	if sev := q.Get("severity"); sev != "" {
		if _, known := types.SeverityOrder[types.Severity(sev)]; !known {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "severity must be info or warning")
			return
		}
		opts.MinSeverity = types.Severity(sev)
	}
	opts.Limit = queryInt(r, "limit", activity.RecentFeedSize, 500)
	opts.Cursor = q.Get("cursor")

	var (
		entries    []types.ActivityLogEntry
		nextCursor string
		totalCount int
		err        error
	)
	if propertyID := q.Get("property_id"); propertyID != "" {
		owned, lerr := h.ownsProperty(r.Context(), org, propertyID)
		if lerr != nil {
			storeErrorToHTTP(w, lerr)
			return
		}
		if !owned {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "property "+propertyID+" not found")
			return
		}
		entries, nextCursor, totalCount, err = h.store.QueryByProperty(r.Context(), propertyID, opts)
	} else {
		entries, nextCursor, totalCount, err = h.store.QueryRecent(r.Context(), org, opts)
	}
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}

	resp := struct {
		Activities []types.ActivityLogEntry `json:"activities"`
		NextCursor string                   `json:"next_cursor,omitempty"`
		TotalCount int                      `json:"total_count"`
	}{
		Activities: entries,
		NextCursor: nextCursor,
		TotalCount: totalCount,
	}
	if resp.Activities == nil {
		resp.Activities = []types.ActivityLogEntry{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandlePulse returns per-day entry counts for the portfolio pulse.
// GET /v1/activity/pulse
func (h *ActivityHandler) HandlePulse(w http.ResponseWriter, r *http.Request) {
	org, ok := resolveOrganization(w, r, h.records)
	if !ok {
		return
	}
	days := queryInt(r, "days", activity.DefaultPulseDays, 90)
	pulse, err := h.store.Pulse(r.Context(), org, days, h.now())
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": pulse})
}

func (h *ActivityHandler) ownsProperty(ctx context.Context, org, propertyID string) (bool, error) {
	props, err := h.records.Properties(ctx, org)
	if err != nil {
		return false, err
	}
	for _, p := range props {
		if p.ID == propertyID {
			return true, nil
		}
	}
	return false, nil
}

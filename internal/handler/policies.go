package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/nightwatch/internal/policy"
	"github.com/matthewbaird/nightwatch/internal/store"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// PolicyHandler manages an organization's stored policies.
type PolicyHandler struct {
	store store.Store
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(s store.Store) *PolicyHandler {
	return &PolicyHandler{store: s}
}

// HandleList returns the organization's policies in authoring order.
// GET /v1/policies
func (h *PolicyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	org, ok := resolveOrganization(w, r, h.store)
	if !ok {
		return
	}
	policies, err := h.store.Policies(r.Context(), org)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if policies == nil {
		policies = []types.Policy{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"policies": policies})
}

// HandleCreate validates and stores a policy. A policy with a known id
// replaces it; ids owned by another organization are reported as not found.
// POST /v1/policies
func (h *PolicyHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	org, ok := resolveOrganization(w, r, h.store)
	if !ok {
		return
	}
	var p types.Policy
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	p.OrganizationID = org
	if err := policy.CheckSchema(p); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	saved, err := h.store.SavePolicy(r.Context(), p)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleDelete removes a policy.
// DELETE /v1/policies/{id}
func (h *PolicyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	org, ok := resolveOrganization(w, r, h.store)
	if !ok {
		return
	}
	if err := h.store.DeletePolicy(r.Context(), org, chi.URLParam(r, "id")); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

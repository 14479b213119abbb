package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// FilterRequest is the body of POST /api/v1/modifications/filter
type FilterRequest struct {
	Modifications []*model.Modification `json:"modifications"`
}

// FilterResponse lists the modifications accepted by the filter chain
type FilterResponse struct {
	Project  string                `json:"project"`
	Total    int                   `json:"total"`
	Accepted []*model.Modification `json:"accepted"`
}

// PublishResponse reports what the publisher did or would do
type PublishResponse struct {
	Executed bool            `json:"executed"`
	Envelope *model.Envelope `json:"envelope,omitempty"`
}

type apiHandler struct {
	runtime interfaces.RuntimeProvider
}

func newAPIHandler(runtime interfaces.RuntimeProvider) *apiHandler {
	return &apiHandler{runtime: runtime}
}

// FilterModifications runs a change set through the active filter chain
func (h *apiHandler) FilterModifications(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	accepted, err := h.runtime.Filter().Filter(r.Context(), req.Modifications)
	if err != nil {
		ctxlog.From(r.Context()).Warn("Filter chain failed", "error", err)
		writeError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, r, &FilterResponse{
		Project:  h.runtime.ProjectName(),
		Total:    len(req.Modifications),
		Accepted: accepted,
	}, http.StatusOK)
}

// PreviewNotification returns the envelope that would be sent for a result
func (h *apiHandler) PreviewNotification(w http.ResponseWriter, r *http.Request) {
	result, ok := h.decodeResult(w, r)
	if !ok {
		return
	}

	envelope := h.runtime.Publisher().Compose(r.Context(), result)
	writeJSON(w, r, &PublishResponse{
		Executed: envelope != nil,
		Envelope: envelope,
	}, http.StatusOK)
}

// PublishNotification publishes a build result
func (h *apiHandler) PublishNotification(w http.ResponseWriter, r *http.Request) {
	result, ok := h.decodeResult(w, r)
	if !ok {
		return
	}

	executed, err := h.runtime.Publisher().Execute(r.Context(), result)
	if err != nil {
		status := http.StatusInternalServerError
		if goerr.HasTag(err, types.ErrTagDelivery) {
			status = http.StatusBadGateway
		}
		writeError(w, r, err, status)
		return
	}

	writeJSON(w, r, &PublishResponse{Executed: executed}, http.StatusOK)
}

// decodeResult reads a build result, defaulting the project name to the
// active project
func (h *apiHandler) decodeResult(w http.ResponseWriter, r *http.Request) (*model.IntegrationResult, bool) {
	var result model.IntegrationResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, r, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return nil, false
	}
	if result.ProjectName == "" {
		result.ProjectName = h.runtime.ProjectName()
	}
	return &result, true
}

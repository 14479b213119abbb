package http

import (
	"net/http"

	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

type healthHandler struct {
	runtime interfaces.RuntimeProvider
}

func newHealthHandler(runtime interfaces.RuntimeProvider) *healthHandler {
	return &healthHandler{runtime: runtime}
}

// Handle handles health check requests
func (h *healthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status := &model.HealthStatus{
		Status:  "healthy",
		Service: "herald",
		Version: types.Version,
	}
	if h.runtime != nil {
		status.Project = h.runtime.ProjectName()
	}

	writeJSON(w, r, status, http.StatusOK)
}

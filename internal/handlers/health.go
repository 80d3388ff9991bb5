package handlers

import (
	"net/http"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/response"
)

type healthHandlers struct {
	ResponseHandler response.ResponseHandler
	Model           string
}

func NewHealthHandlers(deps *Deps) *healthHandlers {
	return &healthHandlers{
		ResponseHandler: deps.ResponseHandler,
		Model:           deps.VertexModel,
	}
}

func (h *healthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.HealthResponse{
		Status: "ok",
		Model:  h.Model,
	})
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/middleware"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/response"
)

type userHandlers struct {
	ResponseHandler response.ResponseHandler
	UserSvc         UserService
}

func NewUserHandlers(deps *Deps) *userHandlers {
	return &userHandlers{
		ResponseHandler: deps.ResponseHandler,
		UserSvc:         deps.UserSvc,
	}
}

func (h *userHandlers) UserRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Register)
	return r
}

// Register handles POST /users: first-sign-in provisioning of the user
// profile. Idempotent, so clients may call it on every launch.
func (h *userHandlers) Register(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	email := middleware.Email(r.Context())

	if err := h.UserSvc.EnsureUser(r.Context(), uid, email); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/middleware"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/response"
	"github.com/mrcorrales01-hub/my-aura-sub003/pkg/logger"
)

type coachHandlers struct {
	ResponseHandler response.ResponseHandler
	CoachSvc        CoachService
	Ledger          UsageLedger
	UserSvc         UserService
}

func NewCoachHandlers(deps *Deps) *coachHandlers {
	return &coachHandlers{
		ResponseHandler: deps.ResponseHandler,
		CoachSvc:        deps.CoachSvc,
		Ledger:          deps.Ledger,
		UserSvc:         deps.UserSvc,
	}
}

func (h *coachHandlers) CoachRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/stream", h.Stream)
	r.Get("/usage", h.Usage)
	r.Get("/sessions/{sessionID}/messages", h.History)
	return r
}

// Stream handles POST /coach/stream: admission first, then a chunked text
// response of prose deltas with an optional trailing tool block.
func (h *coachHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var body dto.CoachStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	// Shape validation runs before admission: a malformed conversation must
	// never consume a quota slot, since slots are not refunded.
	if len(body.Messages) == 0 {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("messages are required"))
		return
	}
	if body.Messages[len(body.Messages)-1].Role != "user" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("last message must be from the user"))
		return
	}

	uid := middleware.UID(r.Context())

	tier, err := h.UserSvc.GetTier(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	// Admission is checked, and the slot consumed, before any upstream cost.
	adm, err := h.Ledger.CheckAndConsume(r.Context(), uid, tier)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if !adm.Allowed {
		h.ResponseHandler.HandleError(w, r, errs.NewQuotaExceededError(adm.UsedAfter, adm.Limit))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("streaming is not supported by this connection"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	wrote := false
	sink := func(chunk string) error {
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		wrote = true
		flusher.Flush()
		return nil
	}

	if err := h.CoachSvc.Generate(r.Context(), uid, body, sink); err != nil {
		if !wrote {
			h.ResponseHandler.HandleError(w, r, err)
			return
		}
		// Headers are gone; the closed stream is the error signal. A full new
		// request is the retry unit.
		log.Warn("generation failed mid-stream", "error", err)
	}
}

// History handles GET /coach/sessions/{sessionID}/messages, chronological
// order, optional ?limit= for the most recent messages.
func (h *coachHandlers) History(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	msgs, err := h.CoachSvc.History(r.Context(), uid, sessionID, limit)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, msgs)
}

// Usage handles GET /coach/usage for the quota meter. Never mutates state.
func (h *coachHandlers) Usage(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())

	tier, err := h.UserSvc.GetTier(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	usage, err := h.Ledger.Peek(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.UsageResponse{
		Used:    usage.Used,
		Limit:   models.DailyCap(tier),
		Tier:    string(tier),
		DateKey: usage.DateKey,
	})
}

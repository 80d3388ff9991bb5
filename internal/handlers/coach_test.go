package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/middleware"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
	"github.com/mrcorrales01-hub/my-aura-sub003/pkg/logger"
)

type stubCoachService struct {
	called  bool
	uid     string
	req     dto.CoachStreamRequest
	chunks  []string
	err     error
	history []models.CoachMessage
}

func (s *stubCoachService) History(ctx context.Context, uid, sessionID string, limit int) ([]models.CoachMessage, error) {
	if sessionID == "" {
		return nil, errs.NewValidationError("sessionId is required")
	}
	return s.history, nil
}

func (s *stubCoachService) Generate(ctx context.Context, uid string, req dto.CoachStreamRequest, sink func(string) error) error {
	s.called = true
	s.uid = uid
	s.req = req
	for _, chunk := range s.chunks {
		if err := sink(chunk); err != nil {
			return err
		}
	}
	return s.err
}

type stubLedger struct {
	called    bool
	admission dto.Admission
	usage     dto.Usage
}

func (s *stubLedger) CheckAndConsume(ctx context.Context, uid string, tier models.Tier) (dto.Admission, error) {
	s.called = true
	return s.admission, nil
}

func (s *stubLedger) Peek(ctx context.Context, uid string) (dto.Usage, error) {
	return s.usage, nil
}

type stubUserService struct {
	tier models.Tier

	ensureCalled bool
	ensureUID    string
	ensureEmail  string
	ensureErr    error
}

func (s *stubUserService) GetTier(ctx context.Context, uid string) (models.Tier, error) {
	return s.tier, nil
}

func (s *stubUserService) EnsureUser(ctx context.Context, uid, email string) error {
	s.ensureCalled = true
	s.ensureUID = uid
	s.ensureEmail = email
	return s.ensureErr
}

type stubResponseHandler struct {
	writeSuccessCalled bool
	writeSuccessStatus int
	writeSuccessData   any

	handleErrorCalled bool
	handleError       error
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessData = data
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	s.handleErrorCalled = true
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

func streamRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/coach/stream", strings.NewReader(body))
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	ctx := logger.ToContext(req.Context(), log)
	ctx = context.WithValue(ctx, middleware.UIDKey, "uid-123")
	return req.WithContext(ctx)
}

func TestStreamHandlerSuccess(t *testing.T) {
	coach := &stubCoachService{chunks: []string{"Hello ", "world"}}
	ledger := &stubLedger{admission: dto.Admission{Allowed: true, UsedAfter: 1, Limit: 20}}
	resp := &stubResponseHandler{}
	h := NewCoachHandlers(&Deps{
		ResponseHandler: resp,
		CoachSvc:        coach,
		Ledger:          ledger,
		UserSvc:         &stubUserService{tier: models.TierFree},
	})

	req := streamRequest(t, `{"messages":[{"role":"user","content":"hi"}],"lang":"en"}`)
	rr := httptest.NewRecorder()

	h.Stream(rr, req)

	if !ledger.called {
		t.Fatalf("admission must be checked")
	}
	if !coach.called || coach.uid != "uid-123" {
		t.Fatalf("coach service not called with uid: %+v", coach)
	}
	if got := rr.Body.String(); got != "Hello world" {
		t.Fatalf("stream body mismatch: %q", got)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type mismatch: %q", ct)
	}
	if resp.handleErrorCalled {
		t.Fatalf("unexpected error: %v", resp.handleError)
	}
}

func TestStreamHandlerQuotaDenied(t *testing.T) {
	coach := &stubCoachService{}
	ledger := &stubLedger{admission: dto.Admission{Allowed: false, UsedAfter: 20, Limit: 20}}
	resp := &stubResponseHandler{}
	h := NewCoachHandlers(&Deps{
		ResponseHandler: resp,
		CoachSvc:        coach,
		Ledger:          ledger,
		UserSvc:         &stubUserService{tier: models.TierFree},
	})

	req := streamRequest(t, `{"messages":[{"role":"user","content":"hi"}],"lang":"en"}`)
	rr := httptest.NewRecorder()

	h.Stream(rr, req)

	if coach.called {
		t.Fatalf("denied request must never open the stream")
	}
	if !resp.handleErrorCalled {
		t.Fatalf("expected HandleError")
	}
	if _, ok := resp.handleError.(*errs.QuotaExceededError); !ok {
		t.Fatalf("expected QuotaExceededError, got %T", resp.handleError)
	}
}

func TestStreamHandlerInvalidJSON(t *testing.T) {
	coach := &stubCoachService{}
	ledger := &stubLedger{admission: dto.Admission{Allowed: true}}
	resp := &stubResponseHandler{}
	h := NewCoachHandlers(&Deps{
		ResponseHandler: resp,
		CoachSvc:        coach,
		Ledger:          ledger,
		UserSvc:         &stubUserService{tier: models.TierFree},
	})

	req := streamRequest(t, "not-json")
	rr := httptest.NewRecorder()

	h.Stream(rr, req)

	if ledger.called {
		t.Fatalf("no admission should be consumed for invalid input")
	}
	if !resp.handleErrorCalled {
		t.Fatalf("expected HandleError")
	}
}

func TestStreamHandlerEmptyMessages(t *testing.T) {
	resp := &stubResponseHandler{}
	ledger := &stubLedger{admission: dto.Admission{Allowed: true}}
	h := NewCoachHandlers(&Deps{
		ResponseHandler: resp,
		CoachSvc:        &stubCoachService{},
		Ledger:          ledger,
		UserSvc:         &stubUserService{tier: models.TierFree},
	})

	req := streamRequest(t, `{"messages":[],"lang":"en"}`)
	rr := httptest.NewRecorder()

	h.Stream(rr, req)

	if ledger.called {
		t.Fatalf("no admission should be consumed for an empty conversation")
	}
	if _, ok := resp.handleError.(*errs.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", resp.handleError)
	}
}

func TestStreamHandlerNonUserLastMessage(t *testing.T) {
	coach := &stubCoachService{}
	ledger := &stubLedger{admission: dto.Admission{Allowed: true}}
	resp := &stubResponseHandler{}
	h := NewCoachHandlers(&Deps{
		ResponseHandler: resp,
		CoachSvc:        coach,
		Ledger:          ledger,
		UserSvc:         &stubUserService{tier: models.TierFree},
	})

	body := `{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}],"lang":"en"}`
	req := streamRequest(t, body)
	rr := httptest.NewRecorder()

	h.Stream(rr, req)

	if ledger.called {
		t.Fatalf("a rejected conversation must not consume a quota slot")
	}
	if coach.called {
		t.Fatalf("coach service must not run for an invalid conversation")
	}
	if _, ok := resp.handleError.(*errs.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", resp.handleError)
	}
}

func TestUsageHandler(t *testing.T) {
	ledger := &stubLedger{usage: dto.Usage{Used: 5, DateKey: "2025-03-10"}}
	resp := &stubResponseHandler{}
	h := NewCoachHandlers(&Deps{
		ResponseHandler: resp,
		CoachSvc:        &stubCoachService{},
		Ledger:          ledger,
		UserSvc:         &stubUserService{tier: models.TierPlus},
	})

	req := streamRequest(t, "")
	rr := httptest.NewRecorder()

	h.Usage(rr, req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusOK {
		t.Fatalf("WriteSuccess not called with status 200")
	}
	usage, ok := resp.writeSuccessData.(dto.UsageResponse)
	if !ok {
		t.Fatalf("unexpected payload type %T", resp.writeSuccessData)
	}
	if usage.Used != 5 || usage.Limit != models.PlusDailyCap || usage.Tier != "plus" {
		t.Fatalf("usage payload mismatch: %+v", usage)
	}
}

func TestHistoryHandler(t *testing.T) {
	coach := &stubCoachService{history: []models.CoachMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}}
	resp := &stubResponseHandler{}
	h := NewCoachHandlers(&Deps{
		ResponseHandler: resp,
		CoachSvc:        coach,
		Ledger:          &stubLedger{},
		UserSvc:         &stubUserService{tier: models.TierFree},
	})

	req := httptest.NewRequest(http.MethodGet, "/sessions/s1/messages", nil)
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	ctx := logger.ToContext(req.Context(), log)
	ctx = context.WithValue(ctx, middleware.UIDKey, "uid-123")
	rr := httptest.NewRecorder()

	h.CoachRoutes().ServeHTTP(rr, req.WithContext(ctx))

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusOK {
		t.Fatalf("WriteSuccess not called with status 200")
	}
	msgs, ok := resp.writeSuccessData.([]models.CoachMessage)
	if !ok {
		t.Fatalf("unexpected payload type %T", resp.writeSuccessData)
	}
	if len(msgs) != 2 || msgs[1].Content != "hello" {
		t.Fatalf("history payload mismatch: %+v", msgs)
	}
}

func TestHistoryHandlerBadLimit(t *testing.T) {
	resp := &stubResponseHandler{}
	h := NewCoachHandlers(&Deps{
		ResponseHandler: resp,
		CoachSvc:        &stubCoachService{},
		Ledger:          &stubLedger{},
		UserSvc:         &stubUserService{tier: models.TierFree},
	})

	req := httptest.NewRequest(http.MethodGet, "/sessions/s1/messages?limit=abc", nil)
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	ctx := logger.ToContext(req.Context(), log)
	ctx = context.WithValue(ctx, middleware.UIDKey, "uid-123")
	rr := httptest.NewRecorder()

	h.CoachRoutes().ServeHTTP(rr, req.WithContext(ctx))

	if !resp.handleErrorCalled {
		t.Fatalf("expected HandleError for non-numeric limit")
	}
	if _, ok := resp.handleError.(*errs.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", resp.handleError)
	}
}

package handlers

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/response"
)

type CoachService interface {
	Generate(ctx context.Context, uid string, req dto.CoachStreamRequest, sink func(chunk string) error) error
	History(ctx context.Context, uid, sessionID string, limit int) ([]models.CoachMessage, error)
}

type UsageLedger interface {
	CheckAndConsume(ctx context.Context, uid string, tier models.Tier) (dto.Admission, error)
	Peek(ctx context.Context, uid string) (dto.Usage, error)
}

type UserService interface {
	GetTier(ctx context.Context, uid string) (models.Tier, error)
	EnsureUser(ctx context.Context, uid, email string) error
}

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	CoachSvc        CoachService
	Ledger          UsageLedger
	UserSvc         UserService
	Firebase        *auth.Client
	VertexModel     string
}

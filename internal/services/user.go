package services

import (
	"context"
	"errors"
	"time"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
	"github.com/mrcorrales01-hub/my-aura-sub003/pkg/logger"
)

type userUSStore interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
}

type userService struct {
	Store userUSStore
}

func NewUserService(store userUSStore) *userService {
	return &userService{
		Store: store,
	}
}

// GetTier resolves the user's subscription tier. Users without a profile yet
// are treated as free tier rather than rejected.
func (s *userService) GetTier(ctx context.Context, uid string) (models.Tier, error) {
	user, err := s.Store.GetUser(ctx, uid)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			return models.TierFree, nil
		}
		return "", err
	}
	if user.Tier == "" {
		return models.TierFree, nil
	}
	return user.Tier, nil
}

func (s *userService) EnsureUser(ctx context.Context, uid, email string) error {
	log := logger.FromContext(ctx)

	_, err := s.Store.GetUser(ctx, uid)
	if err == nil {
		return nil
	}
	var notFound *errs.NotFoundError
	if !errors.As(err, &notFound) {
		return err
	}

	now := time.Now()
	user := &models.User{
		UID:       uid,
		Email:     email,
		Tier:      models.TierFree,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.UpsertUser(ctx, user); err != nil {
		log.Error("failed to create user profile", "error", err)
		return err
	}

	log.Info("user profile created")
	return nil
}

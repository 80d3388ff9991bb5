package services

import (
	"context"
	"testing"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
)

type fakeUserStore struct {
	users   map[string]*models.User
	upserts int
}

func (f *fakeUserStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	if user, ok := f.users[uid]; ok {
		return user, nil
	}
	return nil, errs.NewNotFoundError("user not found")
}

func (f *fakeUserStore) UpsertUser(ctx context.Context, user *models.User) error {
	f.upserts++
	f.users[user.UID] = user
	return nil
}

func TestGetTierKnownUser(t *testing.T) {
	store := &fakeUserStore{users: map[string]*models.User{
		"u1": {UID: "u1", Tier: models.TierPlus},
	}}
	svc := NewUserService(store)

	tier, err := svc.GetTier(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetTier error: %v", err)
	}
	if tier != models.TierPlus {
		t.Fatalf("tier mismatch: %q", tier)
	}
}

func TestGetTierMissingUserDefaultsFree(t *testing.T) {
	store := &fakeUserStore{users: map[string]*models.User{}}
	svc := NewUserService(store)

	tier, err := svc.GetTier(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetTier error: %v", err)
	}
	if tier != models.TierFree {
		t.Fatalf("missing user should default to free, got %q", tier)
	}
}

func TestEnsureUserIdempotent(t *testing.T) {
	store := &fakeUserStore{users: map[string]*models.User{}}
	svc := NewUserService(store)

	if err := svc.EnsureUser(context.Background(), "u1", "u1@example.com"); err != nil {
		t.Fatalf("EnsureUser error: %v", err)
	}
	if err := svc.EnsureUser(context.Background(), "u1", "u1@example.com"); err != nil {
		t.Fatalf("EnsureUser error: %v", err)
	}
	if store.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", store.upserts)
	}
}

package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
)

type userStore struct {
	client *firestore.Client
}

func NewUserStore(client *firestore.Client) *userStore {
	return &userStore{client: client}
}

func (s *userStore) userRef(uid string) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(uid)
}

func (s *userStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	snap, err := s.userRef(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("user not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get user", err)
	}

	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse user data", err)
	}
	return &user, nil
}

func (s *userStore) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := s.userRef(user.UID).Set(ctx, user)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to upsert user", err)
	}
	return nil
}

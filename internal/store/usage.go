package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
)

type usageStore struct {
	client *firestore.Client
}

func NewUsageStore(client *firestore.Client) *usageStore {
	return &usageStore{client: client}
}

func (s *usageStore) counterRef(uid, dateKey string) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(uid).Collection("usage_days").Doc(dateKey)
}

// IncrementIfBelow performs the admission check and increment as one Firestore
// transaction, so two concurrent requests can never both take the last slot.
// Returns the post-transaction count and whether the request was admitted; a
// denied request leaves the counter untouched.
func (s *usageStore) IncrementIfBelow(ctx context.Context, uid, dateKey string, cap int, now time.Time) (int, bool, error) {
	var count int
	var allowed bool

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.counterRef(uid, dateKey)

		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		var counter models.UsageCounter
		if snap != nil && snap.Exists() {
			if err := snap.DataTo(&counter); err != nil {
				return err
			}
		}

		if counter.Count >= cap {
			count = counter.Count
			allowed = false
			return nil
		}

		counter.DateKey = dateKey
		counter.Count++
		counter.UpdatedAt = now
		count = counter.Count
		allowed = true
		return tx.Set(ref, counter)
	})
	if err != nil {
		return 0, false, errs.NewDatabaseError("update", "failed to consume usage slot", err)
	}

	return count, allowed, nil
}

// Get reads today's counter without mutating it. A missing document means
// zero usage, not an error.
func (s *usageStore) Get(ctx context.Context, uid, dateKey string) (models.UsageCounter, error) {
	snap, err := s.counterRef(uid, dateKey).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.UsageCounter{DateKey: dateKey}, nil
		}
		return models.UsageCounter{}, errs.NewDatabaseError("read", "failed to read usage counter", err)
	}

	var counter models.UsageCounter
	if err := snap.DataTo(&counter); err != nil {
		return models.UsageCounter{}, errs.NewDatabaseError("read", "failed to parse usage counter", err)
	}
	return counter, nil
}

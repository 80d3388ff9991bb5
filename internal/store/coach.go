package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
)

type coachStore struct {
	client *firestore.Client
}

func NewCoachStore(client *firestore.Client) *coachStore {
	return &coachStore{client: client}
}

func (s *coachStore) messagesCollection(uid, sessionID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("coach_sessions").Doc(sessionID).Collection("messages")
}

func (s *coachStore) SaveMessage(ctx context.Context, uid, sessionID string, msg models.CoachMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, _, err := s.messagesCollection(uid, sessionID).Add(ctx, msg)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to save coach message", err)
	}
	return nil
}

func (s *coachStore) ListMessages(ctx context.Context, uid, sessionID string, limit int) ([]models.CoachMessage, error) {
	query := s.messagesCollection(uid, sessionID).Query.OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []models.CoachMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list coach messages", err)
		}
		var msg models.CoachMessage
		if err := doc.DataTo(&msg); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse coach message data", err)
		}
		out = append(out, msg)
	}

	// Query is newest-first for the limit; callers want chronological order.
	reverseMessages(out)
	return out, nil
}

func reverseMessages(msgs []models.CoachMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

package bootstrap

import (
	"context"

	"cloud.google.com/go/firestore"
)

// InitFirestore opens the Firestore client backing all stores. One client is
// shared for the process lifetime and closed in Bootstrap.Close.
func InitFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	return firestore.NewClient(ctx, projectID)
}

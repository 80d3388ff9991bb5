package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"

	vertexclient "github.com/mrcorrales01-hub/my-aura-sub003/internal/client/vertex"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/config"
	"github.com/mrcorrales01-hub/my-aura-sub003/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	VertexAdapter *vertexclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.VertexAdapter, err = vertexclient.NewAdapter(applicationCtx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.VertexAdapter != nil {
		_ = bs.VertexAdapter.Close()
	}
	if bs.Firestore != nil {
		if err := bs.Firestore.Close(); err != nil && bs.Log != nil {
			bs.Log.Error("firestore close failed", "error", err)
		}
	}
}

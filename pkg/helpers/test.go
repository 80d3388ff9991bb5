package helpers

import (
	"context"
	"log/slog"

	"github.com/mrcorrales01-hub/my-aura-sub003/pkg/logger"
)

// TestCtx returns a context carrying a discard logger.
func TestCtx() context.Context {
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	return logger.ToContext(context.Background(), log)
}

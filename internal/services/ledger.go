package services

import (
	"context"
	"time"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
	"github.com/mrcorrales01-hub/my-aura-sub003/pkg/logger"
)

type usageLedgerStore interface {
	IncrementIfBelow(ctx context.Context, uid, dateKey string, cap int, now time.Time) (int, bool, error)
	Get(ctx context.Context, uid, dateKey string) (models.UsageCounter, error)
}

// usageLedger gates generations against per-tier daily message caps. The
// ledger day rolls over on its own canonical timezone, never the client's.
type usageLedger struct {
	store    usageLedgerStore
	loc      *time.Location
	clockNow func() time.Time
}

func NewUsageLedger(store usageLedgerStore, timezone string) (*usageLedger, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &usageLedger{
		store:    store,
		loc:      loc,
		clockNow: time.Now,
	}, nil
}

func (l *usageLedger) dateKey() string {
	return l.clockNow().In(l.loc).Format("2006-01-02")
}

// CheckAndConsume admits the request and consumes one slot in a single atomic
// step. A denied request leaves the counter unchanged. The slot is never
// refunded, even if the generation is later cancelled.
func (l *usageLedger) CheckAndConsume(ctx context.Context, uid string, tier models.Tier) (dto.Admission, error) {
	log := logger.FromContext(ctx)

	dateKey := l.dateKey()
	cap := models.DailyCap(tier)

	count, allowed, err := l.store.IncrementIfBelow(ctx, uid, dateKey, cap, l.clockNow())
	if err != nil {
		return dto.Admission{}, err
	}

	if !allowed {
		log.Info("generation denied by usage ledger", "tier", tier, "used", count, "limit", cap)
	}

	return dto.Admission{
		Allowed:   allowed,
		UsedAfter: count,
		Limit:     cap,
		DateKey:   dateKey,
	}, nil
}

// Peek reads today's counter without mutating it.
func (l *usageLedger) Peek(ctx context.Context, uid string) (dto.Usage, error) {
	dateKey := l.dateKey()
	counter, err := l.store.Get(ctx, uid, dateKey)
	if err != nil {
		return dto.Usage{}, err
	}
	return dto.Usage{
		Used:    counter.Count,
		DateKey: dateKey,
	}, nil
}

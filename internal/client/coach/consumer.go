// Package coachclient is the calling side of the coach stream: it opens the
// chunked response, renders prose deltas incrementally, and surfaces the
// structured tool block once, using the shared wire convention.
package coachclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/wire"
)

// ErrLimitReached is the distinct "quota exhausted" state; callers show an
// upgrade prompt rather than a generic failure.
var ErrLimitReached = errors.New("daily message limit reached")

// TokenSource supplies the identity credential for each request.
type TokenSource func(ctx context.Context) (string, error)

type Consumer struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	log        *slog.Logger
	shadow     shadowCounter
}

// NewConsumer builds a stream consumer. The tier seeds the local shadow
// counter, which only pre-empts obviously-over-limit attempts; the server
// ledger stays authoritative.
func NewConsumer(baseURL string, httpClient *http.Client, token TokenSource, tier models.Tier, log *slog.Logger) *Consumer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Consumer{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		log:        log,
		shadow:     shadowCounter{limit: models.DailyCap(tier)},
	}
}

// Send streams one coaching exchange. onText receives prose deltas in order,
// append-only; onPlan fires at most once, with the decoded tool block, and
// never before all prose was delivered. On abort or network failure the
// already-delivered text stands and no plan callback fires.
func (c *Consumer) Send(ctx context.Context, req dto.CoachStreamRequest, onText func(delta string), onPlan func(block wire.ToolBlock)) error {
	if !c.shadow.allow(time.Now()) {
		return ErrLimitReached
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/coach/stream", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.NewExternalServiceError("coach", err.Error(), true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.shadow.exhaust(time.Now())
		return ErrLimitReached
	case resp.StatusCode != http.StatusOK:
		return errs.NewExternalServiceError("coach", fmt.Sprintf("unexpected status %d", resp.StatusCode), resp.StatusCode >= 500)
	}

	c.shadow.consume(time.Now())
	return c.consumeStream(ctx, resp.Body, onText, onPlan)
}

func (c *Consumer) consumeStream(ctx context.Context, body io.Reader, onText func(string), onPlan func(wire.ToolBlock)) error {
	marker := []byte(wire.Marker)
	var pending []byte
	markerFound := false

	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			if !markerFound {
				if idx := bytes.Index(pending, marker); idx >= 0 {
					if idx > 0 {
						onText(string(pending[:idx]))
					}
					pending = pending[idx:]
					markerFound = true
				} else {
					// Emit everything except a holdback that could still turn
					// out to be the start of the marker, kept on a rune boundary.
					safe := len(pending) - len(marker) + 1
					for safe > 0 && !utf8.RuneStart(pending[safe]) {
						safe--
					}
					if safe > 0 {
						onText(string(pending[:safe]))
						pending = pending[safe:]
					}
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// Partial text stays rendered; the plan never fires.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errs.NewExternalServiceError("coach", readErr.Error(), true)
		}
	}

	// Split applies the shared fallback: an absent or unparseable tool block
	// means the tail is prose.
	prose, block := wire.Split(string(pending))
	if prose != "" {
		onText(prose)
	}
	if block != nil {
		onPlan(*block)
	} else if markerFound && c.log != nil {
		c.log.Warn("tool block marker present but payload did not parse")
	}
	return nil
}

// shadowCounter is the optimistic client-side mirror of the server ledger.
// It uses the client's local day, which is acceptable for a pre-check that
// only avoids doomed round trips.
type shadowCounter struct {
	mu      sync.Mutex
	limit   int
	used    int
	dateKey string
}

func (s *shadowCounter) rollover(now time.Time) {
	key := now.Format("2006-01-02")
	if key != s.dateKey {
		s.dateKey = key
		s.used = 0
	}
}

func (s *shadowCounter) allow(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(now)
	return s.used < s.limit
}

func (s *shadowCounter) consume(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(now)
	s.used++
}

func (s *shadowCounter) exhaust(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(now)
	s.used = s.limit
}

package rates

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long fetched rates stay cached.
	DefaultTTL = time.Hour

	cacheKey = "rates:latest:USD"
)

// Source provides rates; *Fetcher is the production one.
type Source interface {
	Fetch(ctx context.Context) (Rates, error)
}

// Service serves rates from Redis, fetching on a miss. Concurrent misses
// share a single fetch.
type Service struct {
	source Source
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
	group  singleflight.Group
}

// NewService builds the service. A nil client disables caching.
func NewService(source Source, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, client: client, ttl: ttl, log: logger}
}

// Rates returns the cached rates or fetches them. On failure the map is
// empty and the error says why.
func (s *Service) Rates(ctx context.Context) (Rates, error) {
	if cached, ok := s.cached(ctx); ok {
		return cached, nil
	}

	ch := s.group.DoChan(cacheKey, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		fetched, err := s.source.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.store(fetchCtx, fetched)
		return fetched, nil
	})

	select {
	case <-ctx.Done():
		return Rates{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Rates{}, res.Err
		}
		return clone(res.Val.(Rates)), nil
	}
}

// Prefetch warms the cache when the window starts.
func (s *Service) Prefetch(ctx context.Context) {
	got, err := s.Rates(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "rates prefetch failed", slog.Any("error", err))
		return
	}
	s.log.InfoContext(ctx, "rates prefetched", slog.Int("currencies", len(got)))
}

func (s *Service) cached(ctx context.Context) (Rates, bool) {
	if s.client == nil {
		return nil, false
	}
	raw, err := s.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "rates cache read failed", slog.Any("error", err))
		}
		return nil, false
	}
	var out Rates
	if err := json.Unmarshal(raw, &out); err != nil || len(out) == 0 {
		return nil, false
	}
	return out, true
}

func (s *Service) store(ctx context.Context, r Rates) {
	if s.client == nil {
		return
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
		s.log.WarnContext(ctx, "rates cache write failed", slog.Any("error", err))
	}
}

func clone(r Rates) Rates {
	out := make(Rates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

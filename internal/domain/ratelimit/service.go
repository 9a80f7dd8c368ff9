package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"topglass/internal/domain"
	"topglass/internal/pkg/logger"
	"topglass/internal/pkg/metrics"
)

const deniedMessage = "Trop de demandes. Veuillez réessayer dans quelques minutes."

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time

	mu        sync.Mutex
	lastSweep time.Time
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: logger.OrNop(log), now: time.Now}
}

// Check counts the caller's hits on endpoint within Window and records this
// one when allowed. Store failures never deny a caller.
func (s *Service) Check(ctx context.Context, ip, endpoint string) (domain.RateLimitDecision, error) {
	if endpoint == "" {
		return domain.RateLimitDecision{}, ErrMissingEndpoint
	}
	limit := LimitFor(endpoint)
	now := s.now()

	if s.sweepDue(now) {
		if _, err := s.store.Cleanup(ctx, now.Add(-Retention)); err != nil {
			s.log.Warn("rate limit cleanup failed", zap.Error(err))
		}
	}

	total, err := s.store.Count(ctx, ip, endpoint, now.Add(-Window))
	if err != nil {
		s.log.Warn("rate limit count failed, allowing", zap.String("endpoint", endpoint), zap.Error(err))
		metrics.RateLimitChecks.WithLabelValues(endpoint, metrics.ResultError).Inc()
		return domain.RateLimitDecision{Allowed: true, Remaining: limit}, nil
	}

	if total >= limit {
		s.log.Info("rate limit exceeded", zap.String("endpoint", endpoint), zap.String("ip", ip), zap.Int("total", total))
		metrics.RateLimitChecks.WithLabelValues(endpoint, metrics.ResultDenied).Inc()
		return Denied(), nil
	}

	if err := s.store.Record(ctx, ip, endpoint, now); err != nil {
		s.log.Warn("rate limit record failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
	metrics.RateLimitChecks.WithLabelValues(endpoint, metrics.ResultAllowed).Inc()
	return domain.RateLimitDecision{Allowed: true, Remaining: max(0, limit-total-1)}, nil
}

// Allow reports whether another hit fits in the window without recording
// it. Callers record with Record once the guarded work succeeded.
func (s *Service) Allow(ctx context.Context, ip, endpoint string) bool {
	total, err := s.store.Count(ctx, ip, endpoint, s.now().Add(-Window))
	if err != nil {
		s.log.Warn("rate limit count failed, allowing", zap.String("endpoint", endpoint), zap.Error(err))
		metrics.RateLimitChecks.WithLabelValues(endpoint, metrics.ResultError).Inc()
		return true
	}
	allowed := total < LimitFor(endpoint)
	result := metrics.ResultAllowed
	if !allowed {
		result = metrics.ResultDenied
	}
	metrics.RateLimitChecks.WithLabelValues(endpoint, result).Inc()
	return allowed
}

func (s *Service) Record(ctx context.Context, ip, endpoint string) {
	if err := s.store.Record(ctx, ip, endpoint, s.now()); err != nil {
		s.log.Warn("rate limit record failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
}

// sweepDue reports whether Check should run an opportunistic cleanup. Stores
// whose entries expire on their own are never swept inline.
func (s *Service) sweepDue(now time.Time) bool {
	if _, ok := s.store.(expiringStore); ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lastSweep.IsZero() && now.Sub(s.lastSweep) < SweepInterval {
		return false
	}
	s.lastSweep = now
	return true
}

// Cleanup drops entries older than Retention.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.store.Cleanup(ctx, s.now().Add(-Retention))
}

// Denied is the decision returned once the limit is reached.
func Denied() domain.RateLimitDecision {
	return domain.RateLimitDecision{
		Allowed:    false,
		Remaining:  0,
		Message:    deniedMessage,
		RetryAfter: RetryAfterSeconds(),
	}
}

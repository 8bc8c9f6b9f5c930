package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryTTL = 5 * time.Minute

// Service maintains tenant usage counters with a redis read-through cache on
// the summary path. Counter writes go straight to the database and drop the
// cached summary; the cache is a best-effort layer and every redis failure
// falls back to the database.
type Service struct {
	repo   Repository
	cache  *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. cache may be nil in tests that only exercise the
// counter path.
func NewService(repo Repository, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Register counts a newly created resource in the current period.
func (s *Service) Register(ctx context.Context, companyID int64, resource ResourceType) (int64, error) {
	quantity, err := s.repo.Increment(ctx, companyID, resource, CurrentPeriod(s.now()))
	if err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	s.invalidate(ctx, companyID)
	return quantity, nil
}

// Release counts a removed resource, flooring the counter at zero.
func (s *Service) Release(ctx context.Context, companyID int64, resource ResourceType) (int64, error) {
	quantity, err := s.repo.Decrement(ctx, companyID, resource, CurrentPeriod(s.now()))
	if err != nil {
		return 0, fmt.Errorf("decrement usage: %w", err)
	}
	s.invalidate(ctx, companyID)
	return quantity, nil
}

// Summary returns the company's counters for the current period, served from
// redis when a fresh copy exists.
func (s *Service) Summary(ctx context.Context, companyID int64) ([]Record, error) {
	key := s.cacheKey(companyID)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var records []Record
			if err := json.Unmarshal(cached, &records); err == nil {
				return records, nil
			}
		} else if err != redis.Nil && s.logger != nil {
			s.logger.Warn("usage cache read failed", slog.Any("error", err))
		}
	}

	records, err := s.repo.List(ctx, companyID, CurrentPeriod(s.now()))
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(records); err == nil {
			if err := s.cache.Set(ctx, key, payload, summaryTTL).Err(); err != nil && s.logger != nil {
				s.logger.Warn("usage cache write failed", slog.Any("error", err))
			}
		}
	}
	return records, nil
}

func (s *Service) cacheKey(companyID int64) string {
	return fmt.Sprintf("usage:summary:%d:%s", companyID, CurrentPeriod(s.now()).Format("2006-01"))
}

func (s *Service) invalidate(ctx context.Context, companyID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(companyID)).Err(); err != nil && s.logger != nil {
		s.logger.Warn("usage cache invalidate failed", slog.Any("error", err))
	}
}

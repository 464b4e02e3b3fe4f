package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"github.com/sjperalta/sacco-api/pkg/logger"
)

// ScheduleCache stores computed repayment schedules. A miss is never an
// error; callers recompute.
type ScheduleCache interface {
	Get(ctx context.Context, loan amortization.Loan) (amortization.Schedule, bool)
	Set(ctx context.Context, loan amortization.Loan, schedule amortization.Schedule) error
	Ping(ctx context.Context) error
	Close() error
}

// ScheduleKey derives the cache key from the loan terms, so any change to
// the terms addresses a different entry
func ScheduleKey(loan amortization.Loan) string {
	return fmt.Sprintf("sacco:schedule:%d:%s:%s:%s:%d:%s",
		loan.ID,
		loan.Principal.String(),
		loan.AnnualRatePercent.String(),
		loan.Method,
		loan.TermMonths,
		loan.StartDate.UTC().Format("2006-01-02"),
	)
}

// NewScheduleCache returns a redis-backed cache, or a no-op cache when addr is empty
func NewScheduleCache(addr string, ttl time.Duration) ScheduleCache {
	if addr == "" {
		return noopScheduleCache{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &redisScheduleCache{client: rdb, ttl: ttl}
}

type redisScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisScheduleCache) Get(ctx context.Context, loan amortization.Loan) (amortization.Schedule, bool) {
	val, err := c.client.Get(ctx, ScheduleKey(loan)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Schedule cache read failed", "loan_id", loan.ID, "error", err)
		}
		return amortization.Schedule{}, false
	}

	var schedule amortization.Schedule
	if err := json.Unmarshal(val, &schedule); err != nil {
		logger.Warn("Schedule cache entry corrupt", "loan_id", loan.ID, "error", err)
		return amortization.Schedule{}, false
	}
	return schedule, true
}

func (c *redisScheduleCache) Set(ctx context.Context, loan amortization.Loan, schedule amortization.Schedule) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ScheduleKey(loan), payload, c.ttl).Err()
}

func (c *redisScheduleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisScheduleCache) Close() error {
	return c.client.Close()
}

type noopScheduleCache struct{}

func (noopScheduleCache) Get(context.Context, amortization.Loan) (amortization.Schedule, bool) {
	return amortization.Schedule{}, false
}

func (noopScheduleCache) Set(context.Context, amortization.Loan, amortization.Schedule) error {
	return nil
}

func (noopScheduleCache) Ping(context.Context) error { return nil }

func (noopScheduleCache) Close() error { return nil }

// Package cache holds a read-through Redis cache for risk assessments. It is
// never authoritative: entries are keyed by the study's updated_at, so any
// edit makes the old entry unreachable, and every failure degrades to
// recomputing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"steward/internal/study/risk"
	id "steward/pkg/domain"
	"steward/pkg/platform/circuit"
)

const keyPrefix = "steward:risk:"

// RiskCache stores assessments in Redis behind a circuit breaker.
type RiskCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*RiskCache)

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *RiskCache) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *RiskCache) {
		c.logger = logger
	}
}

func NewRiskCache(client redis.Cmdable, ttl time.Duration, opts ...Option) *RiskCache {
	c := &RiskCache{
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("risk-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(studyID id.StudyID, updatedAt time.Time) string {
	return keyPrefix + studyID.String() + ":" + strconv.FormatInt(updatedAt.UnixNano(), 10)
}

// Get returns the cached assessment. A miss, an open breaker or a Redis
// error all report found=false; only the error distinguishes them.
func (c *RiskCache) Get(ctx context.Context, studyID id.StudyID, updatedAt time.Time) (*risk.Assessment, bool, error) {
	if !c.breaker.Allow() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, key(studyID, updatedAt)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.breaker.RecordSuccess()
		return nil, false, nil
	}
	if err != nil {
		c.recordFailure(ctx, err)
		return nil, false, fmt.Errorf("risk cache get: %w", err)
	}
	c.breaker.RecordSuccess()

	var a risk.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false, fmt.Errorf("risk cache decode: %w", err)
	}
	return &a, true, nil
}

func (c *RiskCache) Set(ctx context.Context, studyID id.StudyID, updatedAt time.Time, a risk.Assessment) error {
	if !c.breaker.Allow() {
		return nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("risk cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key(studyID, updatedAt), raw, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, err)
		return fmt.Errorf("risk cache set: %w", err)
	}
	c.breaker.RecordSuccess()
	return nil
}

func (c *RiskCache) recordFailure(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "risk cache circuit opened",
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
}

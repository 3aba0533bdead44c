package plagiarism

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// StatusPublisher records scan phase transitions for a class.
type StatusPublisher interface {
	Publish(ctx context.Context, classID string, phase Phase) error
}

// RedisStatusPublisher keeps the latest phase of each class under a TTL'd key.
type RedisStatusPublisher struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStatusPublisher(client *redis.Client, prefix string, ttl time.Duration) *RedisStatusPublisher {
	return &RedisStatusPublisher{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (p *RedisStatusPublisher) Publish(ctx context.Context, classID string, phase Phase) error {
	if !phase.Valid() {
		return fmt.Errorf("unknown phase: %s", phase)
	}

	rkey := p.prefix + classID

	err := p.client.Set(ctx, rkey, string(phase), p.ttl).Err()
	if err != nil {
		log.Error().Err(err).
			Str("phase", string(phase)).
			Str("classId", classID).
			Str("redisKey", rkey).
			Msg("Failed to update scan phase in Redis")
		return fmt.Errorf("failed to update scan phase in Redis: %w", err)
	}

	log.Trace().
		Str("phase", string(phase)).
		Str("classId", classID).
		Msg("Scan phase updated in Redis")

	return nil
}

// Current returns the last published phase, PhaseIdle when none is stored.
func (p *RedisStatusPublisher) Current(ctx context.Context, classID string) (Phase, error) {
	val, err := p.client.Get(ctx, p.prefix+classID).Result()
	if err == redis.Nil {
		return PhaseIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read scan phase from Redis: %w", err)
	}
	return Phase(val), nil
}

package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizforge/backend/internal/mastery"
)

const keyPrefix = "quiz:mastery:"

// Client keeps mastery counters in Redis so several server instances share
// them. Each learner/topic pair is one string key holding the JSON map, with
// a TTL of mastery.Retention refreshed on every write.
type Client struct {
	rdb *redis.Client
}

// New connects to addr and checks the connection with a PING.
func New(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Persistence returns the counters of one learner.
func (c *Client) Persistence(learnerID string) mastery.Persistence {
	return &persistence{rdb: c.rdb, learnerID: learnerID}
}

type persistence struct {
	rdb       *redis.Client
	learnerID string
}

func (p *persistence) key(topic string) string {
	return keyPrefix + p.learnerID + ":" + topic
}

func (p *persistence) Get(ctx context.Context, topic string) (map[string]int, error) {
	raw, err := p.rdb.Get(ctx, p.key(topic)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mastery.DecodeCounts(raw)
}

func (p *persistence) Put(ctx context.Context, topic string, counts map[string]int) error {
	raw, err := mastery.EncodeCounts(counts)
	if err != nil {
		return err
	}
	return p.rdb.Set(ctx, p.key(topic), raw, mastery.Retention).Err()
}

package redis

import (
	"context"
	"fmt"
	"time"

	goredisv8 "github.com/go-redis/redis/v8"
)

// V8Store implements the window store on a go-redis v8 client.
type V8Store struct {
	client *goredisv8.Client
}

// NewV8Client parses url without dialing; the returned client is shared for the process lifetime.
func NewV8Client(url string) (*goredisv8.Client, error) {
	opt, err := goredisv8.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return goredisv8.NewClient(opt), nil
}

func NewV8Store(client *goredisv8.Client) *V8Store {
	return &V8Store{client: client}
}

func (s *V8Store) AtomicWindowUpdate(ctx context.Context, key string, windowStart, now time.Time, nonce string, ttl time.Duration) (int64, error) {
	var card *goredisv8.IntCmd

	_, err := s.client.TxPipelined(ctx, func(pipe goredisv8.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", maxScore(windowStart))
		card = pipe.ZCard(ctx, key)
		pipe.ZAdd(ctx, key, &goredisv8.Z{Score: scoreOf(now), Member: memberOf(now, nonce)})
		pipe.Expire(ctx, key, expirySeconds(ttl))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("window update for %s: %w", key, err)
	}

	return card.Val(), nil
}

func (s *V8Store) CountWindow(ctx context.Context, key string, windowStart time.Time) (int64, error) {
	var card *goredisv8.IntCmd

	_, err := s.client.TxPipelined(ctx, func(pipe goredisv8.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", maxScore(windowStart))
		card = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("window count for %s: %w", key, err)
	}

	return card.Val(), nil
}

func (s *V8Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *V8Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

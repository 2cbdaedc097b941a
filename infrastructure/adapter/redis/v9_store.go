package redis

import (
	"context"
	"fmt"
	"time"

	goredisv9 "github.com/redis/go-redis/v9"
)

// V9Store implements the window store on any go-redis v9 UniversalClient (single node, sentinel or cluster).
type V9Store struct {
	client goredisv9.UniversalClient
}

func NewV9Client(url string) (goredisv9.UniversalClient, error) {
	opt, err := goredisv9.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return goredisv9.NewClient(opt), nil
}

func NewV9Store(client goredisv9.UniversalClient) *V9Store {
	return &V9Store{client: client}
}

func (s *V9Store) AtomicWindowUpdate(ctx context.Context, key string, windowStart, now time.Time, nonce string, ttl time.Duration) (int64, error) {
	var card *goredisv9.IntCmd

	_, err := s.client.TxPipelined(ctx, func(pipe goredisv9.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", maxScore(windowStart))
		card = pipe.ZCard(ctx, key)
		pipe.ZAdd(ctx, key, goredisv9.Z{Score: scoreOf(now), Member: memberOf(now, nonce)})
		pipe.Expire(ctx, key, expirySeconds(ttl))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("window update for %s: %w", key, err)
	}

	return card.Val(), nil
}

func (s *V9Store) CountWindow(ctx context.Context, key string, windowStart time.Time) (int64, error) {
	var card *goredisv9.IntCmd

	_, err := s.client.TxPipelined(ctx, func(pipe goredisv9.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", maxScore(windowStart))
		card = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("window count for %s: %w", key, err)
	}

	return card.Val(), nil
}

func (s *V9Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *V9Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

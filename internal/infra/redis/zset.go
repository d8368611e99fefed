package redis

import (
	"context"

	re "github.com/redis/go-redis/v9"
)

func (r *Client) ZAdd(ctx context.Context, key string, members ...re.Z) error {
	return r.client.ZAdd(ctx, key, members...).Err()
}

func (r *Client) ZIncrBy(ctx context.Context, key string, increment float64, member string) (float64, error) {
	return r.client.ZIncrBy(ctx, key, increment, member).Result()
}

func (r *Client) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.ZRange(ctx, key, start, stop).Result()
}

// ZRevRangeWithScores returns the top entries, highest score first.
func (r *Client) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]re.Z, error) {
	return r.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
}

func (r *Client) ZRem(ctx context.Context, key string, members ...any) error {
	return r.client.ZRem(ctx, key, members...).Err()
}

func (r *Client) ZScore(ctx context.Context, key, member string) (float64, error) {
	return r.client.ZScore(ctx, key, member).Result()
}

func (r *Client) ZCard(ctx context.Context, key string) (int64, error) {
	return r.client.ZCard(ctx, key).Result()
}

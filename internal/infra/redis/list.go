package redis

import "context"

func (r *Client) LPush(ctx context.Context, key string, values ...any) error {
	return r.client.LPush(ctx, key, values...).Err()
}

func (r *Client) RPush(ctx context.Context, key string, values ...any) error {
	return r.client.RPush(ctx, key, values...).Err()
}

func (r *Client) LPop(ctx context.Context, key string) (string, error) {
	return r.client.LPop(ctx, key).Result()
}

func (r *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.LRange(ctx, key, start, stop).Result()
}

// LTrim caps a list, keeping only the given window. Used for bounded
// feeds.
func (r *Client) LTrim(ctx context.Context, key string, start, stop int64) error {
	return r.client.LTrim(ctx, key, start, stop).Err()
}

func (r *Client) LLen(ctx context.Context, key string) (int64, error) {
	return r.client.LLen(ctx, key).Result()
}

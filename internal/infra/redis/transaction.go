package redis

import (
	"context"

	re "github.com/redis/go-redis/v9"
)

// Tx queues the commands issued in fn and sends them as one
// MULTI/EXEC block.
func (r *Client) Tx(ctx context.Context, fn func(pipe re.Pipeliner) error) error {
	_, err := r.client.TxPipelined(ctx, fn)
	return err
}

package redis

import (
	"context"
	"errors"

	re "github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps one connection pool. Callers receive it explicitly;
// there is no package-level default.
type Client struct {
	client *re.Client
}

func New(cfg Config) *Client {
	rdb := re.NewClient(&re.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Client{client: rdb}
}

func (r *Client) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Client) Close() error {
	return r.client.Close()
}

// IsNil reports whether err is the miss a lookup on an absent key
// returns, as opposed to a connection failure.
func IsNil(err error) bool {
	return errors.Is(err, re.Nil)
}

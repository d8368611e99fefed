package es

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
)

type Config struct {
	Addresses []string
	Username  string
	Password  string
}

// Client is a thin wrapper over the official client with the handful
// of calls the app makes. The raw client stays reachable through ES
// for anything beyond them.
type Client struct {
	ES *elasticsearch.Client
}

func New(cfg Config) (*Client, error) {
	ec, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	return &Client{ES: ec}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	res, err := c.ES.Ping(c.ES.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es ping: %s", res.String())
	}
	return nil
}

package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// EnsureIndex creates the index with the given mapping when it does
// not exist yet. Safe to call on every startup.
func (c *Client) EnsureIndex(ctx context.Context, index string, mapping map[string]any) error {
	exists, err := c.indexExists(ctx, index)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var body bytes.Buffer
	if mapping != nil {
		if err := json.NewEncoder(&body).Encode(mapping); err != nil {
			return err
		}
	}
	res, err := c.ES.Indices.Create(index,
		c.ES.Indices.Create.WithContext(ctx),
		c.ES.Indices.Create.WithBody(&body),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es create index %s: %s", index, res.String())
	}
	return nil
}

func (c *Client) indexExists(ctx context.Context, index string) (bool, error) {
	res, err := c.ES.Indices.Exists([]string{index}, c.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

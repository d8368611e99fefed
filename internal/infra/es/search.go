package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// MatchQuery is a full-text search over the given fields with a
// from/size window. An empty Text turns into match_all, so listing
// and searching share one call path.
type MatchQuery struct {
	Text   string
	Fields []string
	From   int
	Size   int
}

// SearchResult carries the total hit count and the raw _source of
// each hit; callers decode the sources into their own document type.
type SearchResult struct {
	Total   int64
	Sources []json.RawMessage
}

func (q MatchQuery) body() map[string]any {
	query := map[string]any{"match_all": map[string]any{}}
	if q.Text != "" {
		query = map[string]any{
			"multi_match": map[string]any{
				"query":  q.Text,
				"fields": q.Fields,
			},
		}
	}
	size := q.Size
	if size <= 0 {
		size = 10
	}
	return map[string]any{
		"query": query,
		"from":  q.From,
		"size":  size,
	}
}

func (c *Client) Search(ctx context.Context, index string, q MatchQuery) (*SearchResult, error) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(q.body()); err != nil {
		return nil, err
	}

	res, err := c.ES.Search(
		c.ES.Search.WithContext(ctx),
		c.ES.Search.WithIndex(index),
		c.ES.Search.WithBody(&body),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es search %s: %s", index, res.String())
	}

	var payload struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}

	out := &SearchResult{Total: payload.Hits.Total.Value}
	for _, h := range payload.Hits.Hits {
		out.Sources = append(out.Sources, h.Source)
	}
	return out, nil
}

// Package search serves address autocomplete from Postgres or a Meilisearch
// index of the register.
package search

import (
	"context"
	"fmt"

	ms "github.com/meilisearch/meilisearch-go"
)

// ClientWrapper wraps the Meilisearch client with the request fields that
// work across server versions
type ClientWrapper struct {
	cli ms.ServiceManager
}

// NewClientWrapper creates new Meilisearch client wrapper
func NewClientWrapper(url, key string) *ClientWrapper {
	return &ClientWrapper{
		cli: ms.New(url, ms.WithAPIKey(key)),
	}
}

// Healthy reports whether the server answers its health check
func (c *ClientWrapper) Healthy() error {
	health, err := c.cli.Health()
	if err != nil {
		return fmt.Errorf("meilisearch health: %w", err)
	}
	if health.Status != "available" {
		return fmt.Errorf("meilisearch status %q", health.Status)
	}
	return nil
}

// SearchIndex runs a plain search. Matching strategy is left to the server.
func (c *ClientWrapper) SearchIndex(ctx context.Context, index, q, filter string, limit int64) (*ms.SearchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := &ms.SearchRequest{Limit: limit}
	if filter != "" {
		req.Filter = filter
	}
	return c.cli.Index(index).Search(q, req)
}

// Index returns the index manager for uid
func (c *ClientWrapper) Index(uid string) ms.IndexManager {
	return c.cli.Index(uid)
}

// Client exposes the underlying service manager
func (c *ClientWrapper) Client() ms.ServiceManager {
	return c.cli
}

// FilterCity restricts hits to one town or city
func FilterCity(city string) string {
	if city == "" {
		return ""
	}
	return fmt.Sprintf("city = %q", city)
}

package pocketbase

import (
	"context"
	"net/http"
)

// ------------------------------------------------------------------
// Collection management (admin token required)
// ------------------------------------------------------------------

// Collection is the service-side definition of a record collection,
// including its per-operation access rules. A nil rule means the operation
// is restricted to admins; an empty string means public.
type Collection struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	ListRule   *string `json:"listRule"`
	ViewRule   *string `json:"viewRule"`
	CreateRule *string `json:"createRule"`
	UpdateRule *string `json:"updateRule"`
	DeleteRule *string `json:"deleteRule"`
}

// GetCollection fetches a collection definition by id or name.
func (c *Client) GetCollection(ctx context.Context, idOrName string) (*Collection, error) {
	var col Collection
	if err := c.send(ctx, http.MethodGet, "/api/collections/"+idOrName, nil, nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// UpdateCollection patches a collection definition. Only the keys present in
// patch are changed; rules not mentioned stay as they are.
func (c *Client) UpdateCollection(ctx context.Context, idOrName string, patch map[string]any) (*Collection, error) {
	var col Collection
	if err := c.send(ctx, http.MethodPatch, "/api/collections/"+idOrName, nil, patch, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

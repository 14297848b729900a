package pocketbase

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// ListOptions holds optional parameters for List.
type ListOptions struct {
	Page    int    // 1-based; 0 means server default
	PerPage int    // 0 means server default
	Filter  string // complete filter expression; callers validate inputs first
	Sort    string // e.g. "-created"
	Expand  string // comma-separated relation fields
}

// ResultList is one page of records.
type ResultList struct {
	Page       int              `json:"page"`
	PerPage    int              `json:"perPage"`
	TotalItems int              `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
	Items      []map[string]any `json:"items"`
}

// File is a single multipart upload: the record field it belongs to, the
// file name, and the content.
type File struct {
	Field  string
	Name   string
	Reader io.Reader
}

// ------------------------------------------------------------------
// Record CRUD
// ------------------------------------------------------------------

// List returns one page of records from a collection.
func (c *Client) List(ctx context.Context, collection string, opts *ListOptions) (*ResultList, error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PerPage > 0 {
			query.Set("perPage", strconv.Itoa(opts.PerPage))
		}
		if opts.Filter != "" {
			query.Set("filter", opts.Filter)
		}
		if opts.Sort != "" {
			query.Set("sort", opts.Sort)
		}
		if opts.Expand != "" {
			query.Set("expand", opts.Expand)
		}
	}
	var result ResultList
	if err := c.send(ctx, http.MethodGet, "/api/collections/"+collection+"/records", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOne returns a single record by id. expand may be "" for no expansion.
func (c *Client) GetOne(ctx context.Context, collection, id, expand string) (map[string]any, error) {
	query := url.Values{}
	if expand != "" {
		query.Set("expand", expand)
	}
	var record map[string]any
	if err := c.send(ctx, http.MethodGet, "/api/collections/"+collection+"/records/"+id, query, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// Create inserts a record from a JSON body.
func (c *Client) Create(ctx context.Context, collection string, body map[string]any) (map[string]any, error) {
	var record map[string]any
	if err := c.send(ctx, http.MethodPost, "/api/collections/"+collection+"/records", nil, body, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateWithFiles inserts a record with attached files. The request is sent
// as multipart/form-data; without files, use Create instead.
func (c *Client) CreateWithFiles(ctx context.Context, collection string, body map[string]any, files []File) (map[string]any, error) {
	var record map[string]any
	if err := c.sendMultipart(ctx, http.MethodPost, "/api/collections/"+collection+"/records", body, files, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// Update patches a record by id from a JSON body.
func (c *Client) Update(ctx context.Context, collection, id string, body map[string]any) (map[string]any, error) {
	var record map[string]any
	if err := c.send(ctx, http.MethodPatch, "/api/collections/"+collection+"/records/"+id, nil, body, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateWithFiles patches a record and replaces file fields in one
// multipart request.
func (c *Client) UpdateWithFiles(ctx context.Context, collection, id string, body map[string]any, files []File) (map[string]any, error) {
	var record map[string]any
	if err := c.sendMultipart(ctx, http.MethodPatch, "/api/collections/"+collection+"/records/"+id, body, files, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/collections/"+collection+"/records/"+id, nil, nil, nil)
}

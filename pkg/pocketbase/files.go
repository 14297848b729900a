package pocketbase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ------------------------------------------------------------------
// File storage
// ------------------------------------------------------------------

// FileURL builds the download URL for a file stored on a record. thumb may
// be "" or a size spec like "100x100".
func (c *Client) FileURL(collection, recordID, filename, thumb string) string {
	u := fmt.Sprintf("%s/api/files/%s/%s/%s", c.baseURL, collection, recordID, url.PathEscape(filename))
	if thumb != "" {
		u += "?thumb=" + url.QueryEscape(thumb)
	}
	return u
}

// DownloadFile fetches a record's file and returns its bytes and the
// Content-Type the server reported.
func (c *Client) DownloadFile(ctx context.Context, collection, recordID, filename string) ([]byte, string, error) {
	path := fmt.Sprintf("/api/files/%s/%s/%s", collection, recordID, url.PathEscape(filename))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("pocketbase: build request %s: %w", path, err)
	}
	if token := c.auth.Token(); token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("pocketbase: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("pocketbase: read file %s: %w", filename, err)
	}
	if resp.StatusCode >= 400 {
		return nil, "", parseAPIError(resp.StatusCode, data)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

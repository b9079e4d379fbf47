package client

import (
	"context"
	"net/http"
	"net/url"
)

// Get decodes the JSON response of GET path into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post sends in as JSON and decodes the response into out. Either may be nil.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, Request{Method: http.MethodPost, Path: path, Body: in}, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, Request{Method: http.MethodPut, Path: path, Body: in}, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) doJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

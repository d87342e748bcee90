package supabase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	err := c.do(ctx, request{
		method:      "POST",
		path:        objectPath("/storage/v1/object", bucket, path),
		body:        bytes.NewReader(data),
		contentType: contentType,
		headers:     map[string]string{"x-upsert": "false", "cache-control": "max-age=3600"},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (c *Client) PublicURL(bucket, path string) string {
	return c.BaseURL + objectPath("/storage/v1/object/public", bucket, path)
}

func objectPath(prefix, bucket, path string) string {
	return prefix + "/" + bucket + "/" + strings.TrimLeft(path, "/")
}

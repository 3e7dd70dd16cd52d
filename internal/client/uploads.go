package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/oyakomap/spotfinder/internal/types"
)

// Upload is the stored photo reference returned by the upload endpoint.
type Upload struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// UploadPhoto sends one photo as multipart form data and returns its stored
// reference for attaching to a review or place.
func (c *Client) UploadPhoto(ctx context.Context, filename string, r io.Reader) (*Upload, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", types.ErrValidation)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/uploads"), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out Upload
	if err := c.do(req, "/api/uploads", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

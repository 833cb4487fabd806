package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// CDNStore uploads to a CDN-backed media service using an unsigned upload
// preset. The endpoint and preset come from configuration; nothing is
// hard-coded.
type CDNStore struct {
	uploadURL string
	preset    string
	client    *http.Client
}

// NewCDNStore creates a store posting to uploadURL with the given unsigned
// preset.
func NewCDNStore(uploadURL, preset string) *CDNStore {
	return &CDNStore{
		uploadURL: uploadURL,
		preset:    preset,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type cdnResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
}

// Put posts the file as multipart form data and returns the served URL.
func (c *CDNStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("upload_preset", c.preset); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, msg)
	}

	var out cdnResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.SecureURL != "" {
		return out.SecureURL, nil
	}
	if out.URL != "" {
		return out.URL, nil
	}
	return "", fmt.Errorf("upload response carried no URL")
}

// Delete is unsupported on the unsigned CDN path: unsigned presets cannot
// delete. The pipeline treats this as a best-effort miss and tries the
// secondary store.
func (c *CDNStore) Delete(ctx context.Context, url string) error {
	return fmt.Errorf("delete is not supported by the unsigned CDN path")
}

package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ObjectStore is the blob-store surface the asset endpoints need.
type ObjectStore interface {
	RemoveObject(ctx context.Context, path string) error
	PublicURL(path string) string
}

// StorageClient talks to the hosted storage service's REST API with the
// service key. Deletes are the only mutation this service performs; uploads
// happen client-side against the same bucket.
type StorageClient struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
}

func NewStorageClient(baseURL, serviceKey, bucket string) *StorageClient {
	return &StorageClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RemoveObject deletes one object from the bucket. Any non-2xx response is
// an error so callers can refuse to drop database rows that still claim a
// stored file.
func (s *StorageClient) RemoveObject(ctx context.Context, path string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("build storage delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("storage delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("storage delete returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// PublicURL builds the public URL of an object in the bucket.
func (s *StorageClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, path)
}

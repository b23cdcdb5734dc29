package objstore

import (
	"bytes"
	"fmt"
	"time"

	storage "github.com/supabase-community/storage-go"

	"photomark/internal/models"
)

// Client wraps the Supabase storage API for a single bucket. Keys are plain
// strings; a Put to an existing key overwrites it.
type Client struct {
	client *storage.Client
	bucket string
}

func New(cfg models.StorageConfig) *Client {
	baseURL := cfg.URL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		client: storage.NewClient(baseURL+"/storage/v1", cfg.ServiceKey, nil),
		bucket: cfg.Bucket,
	}
}

func (c *Client) Put(key string, data []byte, contentType string) (string, error) {
	upsert := true
	_, err := c.client.UploadFile(c.bucket, key, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("objstore: put %s: %w", key, err)
	}
	return c.client.GetPublicUrl(c.bucket, key).SignedURL, nil
}

func (c *Client) Get(key string) ([]byte, error) {
	data, err := c.client.DownloadFile(c.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("objstore: get %s: %w", key, err)
	}
	return data, nil
}

// SignedURL issues a time-limited download URL for key.
func (c *Client) SignedURL(key string, ttl time.Duration) (string, error) {
	resp, err := c.client.CreateSignedUrl(c.bucket, key, int(ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("objstore: sign %s: %w", key, err)
	}
	return resp.SignedURL, nil
}

// ProcessedKey is the deterministic location of an image's watermarked
// asset. Reprocessing the same image overwrites rather than accumulates.
func ProcessedKey(imageID string) string {
	return "watermarked/" + imageID + ".png"
}

// OriginalKey is where the upload path stores the untouched asset.
func OriginalKey(imageID, ext string) string {
	return "original/" + imageID + ext
}

package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ListingMediaBucket holds listing images referenced by media urls.
const ListingMediaBucket = "listing-media"

var (
	ErrFileNameRequired = errors.New("file_name is required")
	ErrStorageNotSet    = errors.New("Storage is not configured")
)

// Signer issues signed upload URLs for object storage.
type Signer interface {
	SignUpload(ctx context.Context, bucket, objectPath string) (string, error)
}

// StorageClient signs uploads against the Supabase storage REST API.
type StorageClient struct {
	BaseURL   string
	SecretKey string
	ExpiresIn int // seconds
	Client    *http.Client
}

type signResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"`
}

func (c *StorageClient) SignUpload(ctx context.Context, bucket, objectPath string) (string, error) {
	if c.BaseURL == "" || c.SecretKey == "" {
		return "", ErrStorageNotSet
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	expires := c.ExpiresIn
	if expires <= 0 {
		expires = 3600
	}
	base := strings.TrimRight(c.BaseURL, "/")
	endpoint := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, objectPath)

	body, err := json.Marshal(map[string]interface{}{"expiresIn": expires, "upsert": false})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage error: status %d body: %s", resp.StatusCode, raw)
	}

	var out signResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("storage response decode: %w", err)
	}
	switch {
	case out.SignedURL != "":
		return out.SignedURL, nil
	case out.SignedURLSnake != "":
		return out.SignedURLSnake, nil
	case out.URL != "":
		// relative to the storage API root
		u := out.URL
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return base + u, nil
	}
	return "", fmt.Errorf("storage returned no signed URL, body: %s", raw)
}

type Service struct {
	Signer      Signer
	SupabaseURL string
}

type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectPath keeps the base name of fileName, replaces anything unsafe and prefixes a uuid.
func objectPath(fileName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "-"), "-.")
	if name == "" {
		name = "file"
	}
	return uuid.NewString() + "-" + name
}

// ListingMediaURL returns a signed upload URL and the public URL the object will have.
func (s *Service) ListingMediaURL(ctx context.Context, fileName string) (*UploadResult, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrFileNameRequired
	}
	p := objectPath(fileName)
	signed, err := s.Signer.SignUpload(ctx, ListingMediaBucket, p)
	if err != nil {
		return nil, err
	}
	public := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(s.SupabaseURL, "/"), ListingMediaBucket, p)
	return &UploadResult{UploadURL: signed, PublicURL: public, Path: p}, nil
}

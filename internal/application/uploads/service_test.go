package uploads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSigner struct {
	bucket, path string
}

func (f *fakeSigner) SignUpload(ctx context.Context, bucket, objectPath string) (string, error) {
	f.bucket, f.path = bucket, objectPath
	return "https://signed.example/" + objectPath, nil
}

func TestListingMediaURL(t *testing.T) {
	signer := &fakeSigner{}
	svc := &Service{Signer: signer, SupabaseURL: "https://proj.supabase.co/"}

	res, err := svc.ListingMediaURL(context.Background(), "../../My Photo!.jpg")
	require.NoError(t, err)
	assert.Equal(t, ListingMediaBucket, signer.bucket)
	assert.True(t, strings.HasSuffix(res.Path, "-My-Photo-.jpg"), res.Path)
	assert.NotContains(t, res.Path, "/")
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/listing-media/"+res.Path, res.PublicURL)
	assert.Equal(t, "https://signed.example/"+res.Path, res.UploadURL)

	_, err = svc.ListingMediaURL(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrFileNameRequired)
}

func TestStorageClient_SignUpload(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"/object/upload/sign/listing-media/a.jpg?token=abc"}`))
	}))
	defer srv.Close()

	c := &StorageClient{BaseURL: srv.URL, SecretKey: "secret"}
	u, err := c.SignUpload(context.Background(), ListingMediaBucket, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/storage/v1/object/upload/sign/listing-media/a.jpg", gotPath)
	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/listing-media/a.jpg?token=abc", u)
}

func TestStorageClient_Errors(t *testing.T) {
	_, err := (&StorageClient{}).SignUpload(context.Background(), ListingMediaBucket, "a.jpg")
	assert.ErrorIs(t, err, ErrStorageNotSet)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()
	_, err = (&StorageClient{BaseURL: srv.URL, SecretKey: "anon"}).SignUpload(context.Background(), ListingMediaBucket, "a.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

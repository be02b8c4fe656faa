package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	uploadsvc "listinghub-backend/internal/application/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSigner struct{ err error }

func (s stubSigner) SignUpload(ctx context.Context, bucket, objectPath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://signed.example/" + bucket + "/" + objectPath, nil
}

func post(t *testing.T, signer uploadsvc.Signer, body interface{}) (int, map[string]interface{}) {
	h := &Handlers{Service: &uploadsvc.Service{Signer: signer, SupabaseURL: "https://proj.supabase.co"}}
	app := fiber.New()
	app.Post("/listing-media", h.ListingMedia)
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/listing-media", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestListingMedia(t *testing.T) {
	code, body := post(t, stubSigner{}, map[string]string{"file_name": "temple.png"})
	require.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Contains(t, data["uploadUrl"], "listing-media/")
	assert.Contains(t, data["publicUrl"], "/storage/v1/object/public/listing-media/")

	code, _ = post(t, stubSigner{}, map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = post(t, stubSigner{err: errors.New("boom")}, map[string]string{"file_name": "a.png"})
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Failed to generate upload URL", body["error"].(map[string]interface{})["message"])
}

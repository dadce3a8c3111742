package openai

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geoplet/backend/config"
	"github.com/stretchr/testify/require"
)

func newEndpoint(url string) *Endpoint {
	return New(config.OpenAIConfigs{
		URL:    url,
		APIKey: "key",
		Model:  "gpt-image-1",
		Prompt: "make it geometric",
		Size:   "1024x1024",
	})
}

func TestEndpoint_EditImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/images/edits", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "gpt-image-1", r.FormValue("model"))
		require.Equal(t, "make it geometric", r.FormValue("prompt"))

		f, header, err := r.FormFile("image")
		require.NoError(t, err)
		require.Equal(t, "warplet.png", header.Filename)
		b, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "source", string(b))

		out := base64.StdEncoding.EncodeToString([]byte("generated"))
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"` + out + `"}]}`))
	}))
	defer srv.Close()

	image, err := newEndpoint(srv.URL).EditImage(context.Background(), []byte("source"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "generated", string(image))
}

func TestEndpoint_EditImageErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "invalid key",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Incorrect API key"}}`,
			wantErr: ErrInvalidAPIKey,
		},
		{
			name:    "no credits",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"code":"insufficient_quota","message":"quota"}}`,
			wantErr: ErrNoCredits,
		},
		{
			name:    "server down",
			status:  http.StatusServiceUnavailable,
			body:    `{}`,
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newEndpoint(srv.URL).EditImage(context.Background(), []byte("source"), "image/png")
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, 1, calls)
		})
	}
}

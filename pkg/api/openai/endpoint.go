package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/xcontext"
)

var (
	ErrMissingAPIKey = errors.New("openai api key is not configured")
	ErrInvalidAPIKey = errors.New("openai rejected the api key")
	ErrNoCredits     = errors.New("openai credits are exhausted")
	ErrUnavailable   = errors.New("openai is unavailable")
)

type Endpoint struct {
	apiKey string
	model  string
	prompt string
	size   string

	apiGenerator api.Generator
}

func New(cfg config.OpenAIConfigs) *Endpoint {
	return &Endpoint{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		prompt: cfg.Prompt,
		size:   cfg.Size,

		// Generations are billed, never repeat them automatically.
		apiGenerator: api.NewGenerator(cfg.URL).WithRetryPolicy(api.NoRetry),
	}
}

// EditImage transforms the source image with the configured prompt and
// returns the raw bytes of the generated image.
func (e *Endpoint) EditImage(ctx context.Context, image []byte, mime string) ([]byte, error) {
	if e.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	fields := map[string]string{
		"model":  e.model,
		"prompt": e.prompt,
		"n":      "1",
	}
	if e.size != "" {
		fields["size"] = e.size
	}

	resp, err := e.apiGenerator.New("/v1/images/edits").
		Body(api.FormData{
			Fields: fields,
			Files: map[string]api.FormDataFile{
				"image": {Name: "warplet" + extension(mime), Mime: mime, Content: bytes.NewReader(image)},
			},
		}).
		POST(ctx, api.OAuth2("Bearer", e.apiKey))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call openai: %v", err)
		return nil, ErrUnavailable
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		body = api.JSON{}
	}

	if !resp.IsSuccess() {
		return nil, classify(ctx, resp.Code, body)
	}

	data, err := body.GetArray("data")
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("openai returned no image: %v", err)
	}

	b64, err := data[0].GetString("b64_json")
	if err != nil || b64 == "" {
		return nil, fmt.Errorf("openai returned no image data: %v", err)
	}

	return base64.StdEncoding.DecodeString(b64)
}

func classify(ctx context.Context, code int, body api.JSON) error {
	errCode, _ := body.GetString("error.code")
	errType, _ := body.GetString("error.type")
	message, _ := body.GetString("error.message")
	xcontext.Logger(ctx).Errorf("Openai failed with status %d: %s %s %s", code, errCode, errType, message)

	switch {
	case code == http.StatusUnauthorized:
		return ErrInvalidAPIKey
	case errCode == "insufficient_quota" || errCode == "billing_hard_limit_reached" ||
		errType == "insufficient_quota":
		return ErrNoCredits
	case code >= http.StatusInternalServerError || code == http.StatusTooManyRequests:
		return ErrUnavailable
	}

	if message == "" {
		message = http.StatusText(code)
	}

	return fmt.Errorf("openai rejected the request: %s", message)
}

func extension(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}

	return ".png"
}

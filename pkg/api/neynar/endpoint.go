package neynar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/mitchellh/mapstructure"
)

// Neynar limits the bulk user lookup to 100 fids per request.
const maxBulkUsers = 100

var (
	ErrMissingAPIKey = errors.New("neynar api key is not configured")
	ErrMissingSigner = errors.New("neynar signer is not configured")
	ErrInvalidAPIKey = errors.New("neynar rejected the api key")
)

type Endpoint struct {
	apiKey     string
	signerUUID string

	apiGenerator  api.Generator
	castGenerator api.Generator
}

func New(cfg config.NeynarConfigs) *Endpoint {
	return &Endpoint{
		apiKey:       cfg.APIKey,
		signerUUID:   cfg.SignerUUID,
		apiGenerator: api.NewGenerator(cfg.URL),

		// A retried publish may post the cast twice.
		castGenerator: api.NewGenerator(cfg.URL).WithRetryPolicy(api.RetryPolicy{
			Attempts: 1,
			Timeout:  10 * time.Second,
		}),
	}
}

func (e *Endpoint) GetUsers(ctx context.Context, fids []int64) ([]User, error) {
	if e.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var result []User
	for start := 0; start < len(fids); start += maxBulkUsers {
		end := start + maxBulkUsers
		if end > len(fids) {
			end = len(fids)
		}

		ids := make([]string, 0, end-start)
		for _, fid := range fids[start:end] {
			ids = append(ids, strconv.FormatInt(fid, 10))
		}

		resp, err := e.apiGenerator.New("/v2/farcaster/user/bulk").
			Query(api.Parameter{"fids": strings.Join(ids, ",")}).
			GET(ctx, api.APIKey("x-api-key", e.apiKey))
		if err != nil {
			return nil, err
		}

		body, err := e.parse(ctx, resp)
		if err != nil {
			return nil, err
		}

		var page struct {
			Users []User `mapstructure:"users"`
		}
		if err := mapstructure.Decode(body, &page); err != nil {
			return nil, err
		}

		result = append(result, page.Users...)
	}

	return result, nil
}

func (e *Endpoint) PublishCast(ctx context.Context, text string, embeds []string) (Cast, error) {
	if e.apiKey == "" {
		return Cast{}, ErrMissingAPIKey
	}

	if e.signerUUID == "" {
		return Cast{}, ErrMissingSigner
	}

	body := api.JSON{
		"signer_uuid": e.signerUUID,
		"text":        text,
	}

	if len(embeds) > 0 {
		objs := make([]map[string]string, 0, len(embeds))
		for _, url := range embeds {
			objs = append(objs, map[string]string{"url": url})
		}
		body["embeds"] = objs
	}

	resp, err := e.castGenerator.New("/v2/farcaster/cast").
		Body(body).
		POST(ctx, api.APIKey("x-api-key", e.apiKey))
	if err != nil {
		return Cast{}, err
	}

	result, err := e.parse(ctx, resp)
	if err != nil {
		return Cast{}, err
	}

	castJSON, err := result.GetJSON("cast")
	if err != nil {
		return Cast{}, err
	}

	cast := Cast{}
	if err := mapstructure.Decode(castJSON, &cast); err != nil {
		return Cast{}, err
	}

	return cast, nil
}

// TestAPIKey performs the cheapest authenticated call to check the key.
func (e *Endpoint) TestAPIKey(ctx context.Context) error {
	_, err := e.GetUsers(ctx, []int64{1})
	return err
}

func (e *Endpoint) parse(ctx context.Context, resp *api.Response) (api.JSON, error) {
	if resp.Code == http.StatusUnauthorized || resp.Code == http.StatusForbidden {
		return nil, ErrInvalidAPIKey
	}

	if !resp.IsSuccess() {
		xcontext.Logger(ctx).Errorf("Invalid status code from neynar: %d %s", resp.Code, resp.RawBody)
		return nil, fmt.Errorf("invalid status code %d", resp.Code)
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return nil, errors.New("invalid body format")
	}

	return body, nil
}

package rarible

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/mitchellh/mapstructure"
)

const maxOwnerPages = 10

type Endpoint struct {
	apiKey     string
	blockchain string

	apiGenerator api.Generator
}

func New(cfg config.MarketplaceConfigs) *Endpoint {
	return &Endpoint{
		apiKey:       cfg.RaribleAPIKey,
		blockchain:   strings.ToUpper(cfg.Blockchain),
		apiGenerator: api.NewGenerator(cfg.RaribleURL),
	}
}

// union turns a plain address into the chain prefixed form rarible expects,
// BASE:0x... for example.
func (e *Endpoint) union(address string) string {
	if strings.Contains(address, ":") {
		return address
	}

	return e.blockchain + ":" + address
}

func (e *Endpoint) GetItemsByOwner(ctx context.Context, owner, collection string) ([]Item, error) {
	// Items of an owner are listed across every collection, filter locally.
	collection = strings.ToLower(e.union(collection))

	var result []Item
	continuation := ""
	for i := 0; i < maxOwnerPages; i++ {
		query := api.Parameter{
			"owner":       "ETHEREUM:" + owner,
			"blockchains": e.blockchain,
			"size":        "100",
		}
		if continuation != "" {
			query["continuation"] = continuation
		}

		page, err := e.getPage(ctx, "/v0.1/items/byOwner", query)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if strings.ToLower(item.Contract) == collection {
				result = append(result, item)
			}
		}

		if page.Continuation == "" || len(page.Items) == 0 {
			break
		}

		continuation = page.Continuation
	}

	return result, nil
}

func (e *Endpoint) GetItemsByCollection(
	ctx context.Context, collection, continuation string, size int,
) (Page, error) {
	query := api.Parameter{
		"collection": e.union(collection),
		"size":       strconv.Itoa(size),
	}
	if continuation != "" {
		query["continuation"] = continuation
	}

	return e.getPage(ctx, "/v0.1/items/byCollection", query)
}

func (e *Endpoint) getPage(ctx context.Context, path string, query api.Parameter) (Page, error) {
	client := e.apiGenerator.New(path).Query(query)
	if e.apiKey != "" {
		client = client.Header("X-API-KEY", e.apiKey)
	}

	resp, err := client.GET(ctx)
	if err != nil {
		return Page{}, err
	}

	if !resp.IsSuccess() {
		xcontext.Logger(ctx).Errorf("Invalid status code from rarible: %d %s", resp.Code, resp.RawBody)
		return Page{}, fmt.Errorf("invalid status code %d", resp.Code)
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return Page{}, errors.New("invalid body format")
	}

	page := Page{}
	if err := mapstructure.Decode(body, &page); err != nil {
		return Page{}, err
	}

	return page, nil
}

package alchemy

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/mitchellh/mapstructure"
)

const maxOwnerPages = 10

type Endpoint struct {
	apiKey string

	apiGenerator api.Generator
}

func New(cfg config.MarketplaceConfigs) *Endpoint {
	return &Endpoint{
		apiKey:       cfg.AlchemyAPIKey,
		apiGenerator: api.NewGenerator(cfg.AlchemyURL),
	}
}

func (e *Endpoint) GetNFTsForOwner(ctx context.Context, owner, contract string) ([]NFT, error) {
	var result []NFT
	pageKey := ""
	for i := 0; i < maxOwnerPages; i++ {
		query := api.Parameter{
			"owner":               owner,
			"contractAddresses[]": contract,
			"withMetadata":        "true",
			"pageSize":            "100",
		}
		if pageKey != "" {
			query["pageKey"] = pageKey
		}

		page := OwnedPage{}
		if err := e.get(ctx, "/nft/v3/%s/getNFTsForOwner", query, &page); err != nil {
			return nil, err
		}

		result = append(result, page.OwnedNFTs...)
		if page.PageKey == "" {
			break
		}

		pageKey = page.PageKey
	}

	return result, nil
}

func (e *Endpoint) GetNFTsForContract(
	ctx context.Context, contract, pageKey string, limit int,
) (ContractPage, error) {
	query := api.Parameter{
		"contractAddress": contract,
		"withMetadata":    "true",
		"limit":           strconv.Itoa(limit),
	}
	if pageKey != "" {
		query["startToken"] = pageKey
	}

	page := ContractPage{}
	if err := e.get(ctx, "/nft/v3/%s/getNFTsForContract", query, &page); err != nil {
		return ContractPage{}, err
	}

	return page, nil
}

func (e *Endpoint) get(ctx context.Context, path string, query api.Parameter, out any) error {
	resp, err := e.apiGenerator.New(path, e.apiKey).Query(query).GET(ctx)
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		xcontext.Logger(ctx).Errorf("Invalid status code from alchemy: %d %s", resp.Code, resp.RawBody)
		return fmt.Errorf("invalid status code %d", resp.Code)
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return errors.New("invalid body format")
	}

	return mapstructure.Decode(body, out)
}

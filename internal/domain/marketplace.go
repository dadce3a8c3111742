package domain

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/internal/domain/nftmeta"
	"github.com/geoplet/backend/pkg/api/alchemy"
	"github.com/geoplet/backend/pkg/api/rarible"
)

const (
	MarketplaceRarible = "rarible"
	MarketplaceAlchemy = "alchemy"
)

type collectionPage struct {
	Items        []nftmeta.RawItem
	Continuation string
}

// marketplace hides which indexer lists the NFTs. PageURL identifies the
// upstream request of a collection page and keys the gallery cache.
type marketplace interface {
	Owned(ctx context.Context, owner, contract string) ([]nftmeta.RawItem, error)
	Collection(ctx context.Context, contract, continuation string, size int) (collectionPage, error)
	PageURL(contract, continuation string, size int) string
}

func newMarketplace(cfg config.MarketplaceConfigs) (marketplace, error) {
	switch cfg.Provider {
	case "", MarketplaceRarible:
		return &raribleMarketplace{baseURL: cfg.RaribleURL, endpoint: rarible.New(cfg)}, nil
	case MarketplaceAlchemy:
		return &alchemyMarketplace{baseURL: cfg.AlchemyURL, endpoint: alchemy.New(cfg)}, nil
	}

	return nil, fmt.Errorf("unknown marketplace provider %q", cfg.Provider)
}

type raribleMarketplace struct {
	baseURL  string
	endpoint rarible.IEndpoint
}

func (m *raribleMarketplace) Owned(ctx context.Context, owner, contract string) ([]nftmeta.RawItem, error) {
	items, err := m.endpoint.GetItemsByOwner(ctx, owner, contract)
	if err != nil {
		return nil, err
	}

	result := make([]nftmeta.RawItem, 0, len(items))
	for _, item := range items {
		if item.Deleted {
			continue
		}

		result = append(result, nftmeta.FromRarible(item, owner))
	}

	return result, nil
}

func (m *raribleMarketplace) Collection(
	ctx context.Context, contract, continuation string, size int,
) (collectionPage, error) {
	page, err := m.endpoint.GetItemsByCollection(ctx, contract, continuation, size)
	if err != nil {
		return collectionPage{}, err
	}

	result := collectionPage{
		Continuation: page.Continuation,
	}
	for _, item := range page.Items {
		if item.Deleted {
			continue
		}

		result.Items = append(result.Items, nftmeta.FromRarible(item, ""))
	}

	return result, nil
}

func (m *raribleMarketplace) PageURL(contract, continuation string, size int) string {
	query := url.Values{}
	query.Set("collection", contract)
	query.Set("continuation", continuation)
	query.Set("size", strconv.Itoa(size))
	return m.baseURL + "/v0.1/items/byCollection?" + query.Encode()
}

type alchemyMarketplace struct {
	baseURL  string
	endpoint alchemy.IEndpoint
}

func (m *alchemyMarketplace) Owned(ctx context.Context, owner, contract string) ([]nftmeta.RawItem, error) {
	nfts, err := m.endpoint.GetNFTsForOwner(ctx, owner, contract)
	if err != nil {
		return nil, err
	}

	result := make([]nftmeta.RawItem, 0, len(nfts))
	for _, nft := range nfts {
		result = append(result, nftmeta.FromAlchemy(nft, owner))
	}

	return result, nil
}

func (m *alchemyMarketplace) Collection(
	ctx context.Context, contract, continuation string, size int,
) (collectionPage, error) {
	page, err := m.endpoint.GetNFTsForContract(ctx, contract, continuation, size)
	if err != nil {
		return collectionPage{}, err
	}

	result := collectionPage{
		Continuation: page.PageKey,
	}
	for _, nft := range page.NFTs {
		result.Items = append(result.Items, nftmeta.FromAlchemy(nft, ""))
	}

	return result, nil
}

// PageURL leaves the api key, which alchemy carries in the path, out of the
// cache key.
func (m *alchemyMarketplace) PageURL(contract, continuation string, size int) string {
	query := url.Values{}
	query.Set("contractAddress", contract)
	query.Set("startToken", continuation)
	query.Set("limit", strconv.Itoa(size))
	return m.baseURL + "/nft/v3/getNFTsForContract?" + query.Encode()
}

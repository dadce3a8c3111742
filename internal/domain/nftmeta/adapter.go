// Package nftmeta normalizes marketplace records into model.NFT. Images are
// resolved by a chain of resolvers, the first one returning an image wins.
package nftmeta

import (
	"context"
	"errors"
	"strings"

	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/api/alchemy"
	"github.com/geoplet/backend/pkg/api/rarible"
	"github.com/geoplet/backend/pkg/xcontext"
)

// ErrExhausted is returned when no resolver could find an image.
var ErrExhausted = errors.New("no resolver found an image")

// RawItem is a marketplace record before normalization.
type RawItem struct {
	TokenID     string
	Contract    string
	Name        string
	Description string
	Image       string
	Owner       string
	TokenURI    string
}

// Metadata is what a resolver could learn about an item.
type Metadata struct {
	Name        string
	Description string
	Image       string
}

type Resolver interface {
	Resolve(ctx context.Context, item RawItem) (Metadata, error)
}

type Adapter struct {
	resolvers []Resolver
}

func NewAdapter(resolvers ...Resolver) *Adapter {
	return &Adapter{resolvers: resolvers}
}

func (a *Adapter) Normalize(ctx context.Context, item RawItem) (model.NFT, error) {
	nft := model.NFT{
		TokenID:     item.TokenID,
		Name:        item.Name,
		Description: item.Description,
		Owner:       item.Owner,
		Contract:    item.Contract,
	}

	for _, r := range a.resolvers {
		meta, err := r.Resolve(ctx, item)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Resolver %T failed for token %s: %v", r, item.TokenID, err)
			continue
		}

		if meta.Image == "" {
			continue
		}

		nft.Image = meta.Image
		if nft.Name == "" {
			nft.Name = meta.Name
		}
		if nft.Description == "" {
			nft.Description = meta.Description
		}

		return nft, nil
	}

	return model.NFT{}, ErrExhausted
}

// NormalizeAll keeps the arrival order and drops items without image.
func (a *Adapter) NormalizeAll(ctx context.Context, items []RawItem) []model.NFT {
	result := make([]model.NFT, 0, len(items))
	for _, item := range items {
		nft, err := a.Normalize(ctx, item)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Drop token %s of %s: %v", item.TokenID, item.Contract, err)
			continue
		}

		result = append(result, nft)
	}

	return result
}

// RecordResolver returns the image the marketplace already knows.
type RecordResolver struct{}

func (RecordResolver) Resolve(ctx context.Context, item RawItem) (Metadata, error) {
	return Metadata{Name: item.Name, Description: item.Description, Image: item.Image}, nil
}

func FromRarible(item rarible.Item, owner string) RawItem {
	raw := RawItem{
		TokenID:  item.TokenID,
		Contract: stripChain(item.Contract),
		Image:    item.ImageURL(),
		Owner:    owner,
	}

	if item.Meta != nil {
		raw.Name = item.Meta.Name
		raw.Description = item.Meta.Description
	}

	return raw
}

func FromAlchemy(nft alchemy.NFT, owner string) RawItem {
	tokenURI := nft.TokenURI
	if tokenURI == "" {
		tokenURI = nft.Raw.TokenURI
	}

	return RawItem{
		TokenID:     nft.TokenID,
		Contract:    nft.Contract.Address,
		Name:        nft.Name,
		Description: nft.Description,
		Image:       nft.ImageURL(),
		Owner:       owner,
		TokenURI:    tokenURI,
	}
}

// stripChain turns BASE:0xabc into 0xabc.
func stripChain(contract string) string {
	if i := strings.LastIndex(contract, ":"); i >= 0 {
		return contract[i+1:]
	}

	return contract
}

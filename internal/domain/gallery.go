package domain

import (
	"context"
	"errors"

	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/domain/nftmeta"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/geoplet/backend/pkg/xredis"
	"github.com/pkg/math"
)

type GalleryDomain interface {
	GetGallery(context.Context, *model.GetGalleryRequest) (*model.GetGalleryResponse, error)
}

type galleryDomain struct {
	marketplace marketplace
	adapter     *nftmeta.Adapter
	redisClient xredis.Client
}

func NewGalleryDomain(ctx context.Context, redisClient xredis.Client, ethClient eth.EthClient) (*galleryDomain, error) {
	m, err := newMarketplace(xcontext.Configs(ctx).Marketplace)
	if err != nil {
		return nil, err
	}

	return &galleryDomain{
		marketplace: m,
		adapter:     newNFTAdapter(ethClient),
		redisClient: redisClient,
	}, nil
}

// GetGallery lists a page of minted Geoplets. Pages are cached by upstream
// url, so a continuation token is served from cache until the ttl passes.
func (d *galleryDomain) GetGallery(
	ctx context.Context, req *model.GetGalleryRequest,
) (*model.GetGalleryResponse, error) {
	cfg := xcontext.Configs(ctx)

	size := req.Size
	if size <= 0 {
		size = cfg.Gallery.DefaultPageSize
	}
	size = math.MinInt(math.MaxInt(size, 1), cfg.Gallery.MaxPageSize)

	contract := cfg.Marketplace.GeopletContract
	key := common.RedisKeyGallery(d.marketplace.PageURL(contract, req.Continuation, size))

	resp := &model.GetGalleryResponse{}
	err := d.redisClient.GetObj(ctx, key, resp)
	if err == nil {
		return resp, nil
	}

	if !errors.Is(err, xredis.ErrNotFound) {
		xcontext.Logger(ctx).Warnf("Cannot get cached gallery page: %v", err)
	}

	page, err := d.marketplace.Collection(ctx, contract, req.Continuation, size)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get gallery page %q: %v", req.Continuation, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot get the gallery")
	}

	resp.Items = d.adapter.NormalizeAll(ctx, page.Items)
	resp.Continuation = page.Continuation
	if err := d.redisClient.SetObj(ctx, key, resp, cfg.Gallery.CacheTTL.Duration); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot cache gallery page: %v", err)
	}

	return resp, nil
}

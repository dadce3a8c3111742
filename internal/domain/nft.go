package domain

import (
	"context"
	"errors"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/domain/nftmeta"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/geoplet/backend/pkg/xredis"
)

type NFTDomain interface {
	GetWarplets(context.Context, *model.GetWarpletsRequest) (*model.GetWarpletsResponse, error)
}

type nftDomain struct {
	marketplace marketplace
	adapter     *nftmeta.Adapter
	redisClient xredis.Client
}

func NewNFTDomain(ctx context.Context, redisClient xredis.Client, ethClient eth.EthClient) (*nftDomain, error) {
	m, err := newMarketplace(xcontext.Configs(ctx).Marketplace)
	if err != nil {
		return nil, err
	}

	return &nftDomain{
		marketplace: m,
		adapter:     newNFTAdapter(ethClient),
		redisClient: redisClient,
	}, nil
}

// newNFTAdapter prefers the marketplace images and falls back to the
// tokenURI of the token.
func newNFTAdapter(ethClient eth.EthClient) *nftmeta.Adapter {
	return nftmeta.NewAdapter(
		nftmeta.RecordResolver{},
		nftmeta.NewTokenURIResolver(nftmeta.NewChainTokenURIReader(ethClient), api.NewGenerator()),
	)
}

func (d *nftDomain) GetWarplets(
	ctx context.Context, req *model.GetWarpletsRequest,
) (*model.GetWarpletsResponse, error) {
	if !ethcommon.IsHexAddress(req.Address) {
		return nil, errorx.New(errorx.BadRequest, "Invalid address")
	}

	owner := strings.ToLower(req.Address)
	cfg := xcontext.Configs(ctx)
	key := common.RedisKeyWarplets(owner)

	resp := &model.GetWarpletsResponse{}
	err := d.redisClient.GetObj(ctx, key, resp)
	if err == nil {
		return resp, nil
	}

	if !errors.Is(err, xredis.ErrNotFound) {
		xcontext.Logger(ctx).Warnf("Cannot get cached warplets of %s: %v", owner, err)
	}

	items, err := d.marketplace.Owned(ctx, owner, cfg.Marketplace.WarpletContract)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get warplets of %s: %v", owner, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot get warplets")
	}

	resp.Items = d.adapter.NormalizeAll(ctx, items)
	if err := d.redisClient.SetObj(ctx, key, resp, cfg.Gallery.CacheTTL.Duration); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot cache warplets of %s: %v", owner, err)
	}

	return resp, nil
}

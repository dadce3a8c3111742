package domain

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/internal/repository"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/api/openai"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/xcontext"
)

type GenerationDomain interface {
	Generate(context.Context, *model.GenerateRequest) (*model.GenerateResponse, error)
}

type generationDomain struct {
	unmintedRepo   repository.UnmintedRepository
	openaiEndpoint openai.IEndpoint
	apiGenerator   api.Generator
	now            func() time.Time
}

func NewGenerationDomain(
	unmintedRepo repository.UnmintedRepository,
	openaiEndpoint openai.IEndpoint,
) *generationDomain {
	return &generationDomain{
		unmintedRepo:   unmintedRepo,
		openaiEndpoint: openaiEndpoint,
		apiGenerator:   api.NewGenerator(),
		now:            time.Now,
	}
}

func (d *generationDomain) Generate(
	ctx context.Context, req *model.GenerateRequest,
) (*model.GenerateResponse, error) {
	if req.Fid <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Invalid fid")
	}

	source, err := fetchImage(ctx, d.apiGenerator, req.ImageURL)
	if err != nil {
		return nil, err
	}

	cfg := xcontext.Configs(ctx)
	data, err := encodeSource(common.Bound(source, cfg.ImageProxy.MaxDimension))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot prepare source image of fid %d: %v", req.Fid, err)
		return nil, errorx.Unknown
	}

	generated, err := d.openaiEndpoint.EditImage(ctx, data, "image/png")
	if err != nil {
		common.IncCounter(common.GenerationTotal, "failed")
		return nil, generatorError(ctx, req.Fid, err)
	}

	img, err := common.DecodeImage("", bytes.NewReader(generated))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot decode generated image of fid %d: %v", req.Fid, err)
		common.IncCounter(common.GenerationTotal, "failed")
		return nil, errorx.New(errorx.GeneratorUnavailable, "The generator returned an invalid image")
	}

	artifact, err := common.CompressToBase64(img, cfg.Mint.MaxArtifactBytes)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot compress artwork of fid %d: %v", req.Fid, err)
		common.IncCounter(common.GenerationTotal, "failed")
		return nil, errorx.New(errorx.ArtifactTooLarge, "Cannot fit the artwork on chain")
	}

	// The record only feeds outreach, a failure must not cost the user the
	// paid generation.
	err = d.unmintedRepo.Upsert(ctx, &entity.UnmintedGeneration{
		FIDBase:        entity.FIDBase{FID: req.Fid},
		Username:       req.Username,
		WarpletTokenID: req.WarpletTokenID,
		ImageData:      artifact,
		GeneratedAt:    d.now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save unminted generation of fid %d: %v", req.Fid, err)
	}

	common.IncCounter(common.GenerationTotal, "success")
	return &model.GenerateResponse{Image: artifact, Size: len(artifact)}, nil
}

func generatorError(ctx context.Context, fid int64, err error) error {
	switch {
	case errors.Is(err, openai.ErrNoCredits):
		xcontext.Logger(ctx).Errorf("Generator has no credits left: %v", err)
		return errorx.New(errorx.GeneratorNoCredits, "Generation is paused, please try again later")
	case errors.Is(err, openai.ErrMissingAPIKey), errors.Is(err, openai.ErrInvalidAPIKey):
		xcontext.Logger(ctx).Errorf("Generator is misconfigured: %v", err)
		return errorx.New(errorx.Misconfigured, "Generation is not available")
	}

	xcontext.Logger(ctx).Errorf("Cannot generate artwork of fid %d: %v", fid, err)
	return errorx.New(errorx.GeneratorUnavailable, "The generator is unavailable, please try again")
}

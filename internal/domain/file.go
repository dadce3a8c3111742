package domain

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strconv"

	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/ratelimit"
	"github.com/geoplet/backend/pkg/storage"
	"github.com/geoplet/backend/pkg/xcontext"
)

const previewDimension = 256

type FileDomain interface {
	UploadImage(context.Context, *model.UploadImageRequest) (*model.UploadImageResponse, error)
}

type fileDomain struct {
	storage storage.Storage
	limiter *ratelimit.FixedWindow
}

func NewFileDomain(storage storage.Storage, limiter *ratelimit.FixedWindow) *fileDomain {
	return &fileDomain{storage: storage, limiter: limiter}
}

// UploadImage stages an artwork in the public bucket with a small preview,
// used to share it before it is minted.
func (d *fileDomain) UploadImage(
	ctx context.Context, req *model.UploadImageRequest,
) (*model.UploadImageResponse, error) {
	if req.Fid <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Invalid fid")
	}

	result, err := d.limiter.Allow(ctx, strconv.FormatInt(req.Fid, 10))
	if err != nil {
		// Failing open keeps uploads working when the counter store is down.
		xcontext.Logger(ctx).Errorf("Cannot check rate limit of fid %d: %v", req.Fid, err)
	} else if !result.Allowed {
		return nil, errorx.New(errorx.TooManyRequests,
			"Too many uploads, try again at %s", result.ResetAt.Format("15:04:05"))
	}

	cfg := xcontext.Configs(ctx).File
	if int64(base64.StdEncoding.DecodedLen(len(req.Data))) > cfg.MaxSize {
		return nil, errorx.New(errorx.BadRequest, "File is larger than %d bytes", cfg.MaxSize)
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil || len(data) == 0 {
		return nil, errorx.New(errorx.BadRequest, "Invalid image data")
	}

	img, err := common.DecodeImage(req.Mime, bytes.NewReader(data))
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Unsupported image format")
	}

	mime := req.Mime
	if mime == "" {
		mime = "image/png"
	}

	original, err := common.EncodeImage(mime, img)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Unsupported image format")
	}

	preview, err := common.EncodeImage("image/png", common.Bound(img, previewDimension))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot encode preview: %v", err)
		return nil, errorx.Unknown
	}

	name := path.Base(req.Name)
	if name == "." || name == "/" {
		name = "geoplet"
	}

	prefix := fmt.Sprintf("uploads/%d", req.Fid)
	resp, err := d.storage.BulkUpload(ctx, []*storage.UploadObject{
		{Prefix: prefix, FileName: name, Mime: mime, Data: original},
		{Prefix: prefix, FileName: "preview-" + name, Mime: "image/png", Data: preview},
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upload image: %v", err)
		return nil, errorx.New(errorx.Internal, "Unable to upload image")
	}

	return &model.UploadImageResponse{Url: resp[0].Url, PreviewUrl: resp[1].Url}, nil
}

package domain

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"

	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/xcontext"
)

const immutableCacheControl = "public, max-age=31536000, immutable"

type ImageProxyDomain interface {
	Proxy(context.Context, *model.ImageProxyRequest) (*model.ImageProxyResponse, error)
}

type imageProxyDomain struct {
	apiGenerator api.Generator
}

func NewImageProxyDomain() *imageProxyDomain {
	return &imageProxyDomain{apiGenerator: api.NewGenerator()}
}

// Proxy serves marketplace images from our origin, so the mini-app can draw
// them on a canvas without tainting it.
func (d *imageProxyDomain) Proxy(
	ctx context.Context, req *model.ImageProxyRequest,
) (*model.ImageProxyResponse, error) {
	img, err := fetchImage(ctx, d.apiGenerator, req.URL)
	if err != nil {
		return nil, err
	}

	img = common.Bound(img, xcontext.Configs(ctx).ImageProxy.MaxDimension)
	data, err := common.EncodeImage("image/png", img)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot encode proxied image: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ImageProxyResponse{
		Mime:         "image/png",
		Data:         data,
		CacheControl: immutableCacheControl,
	}, nil
}

func allowedHost(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, a := range allowed {
		a = strings.ToLower(a)
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}

	return false
}

// fetchImage downloads and decodes an image from an allowed host, retrying
// transient upstream failures.
func fetchImage(ctx context.Context, apiGenerator api.Generator, rawURL string) (image.Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, errorx.New(errorx.BadRequest, "Invalid image url")
	}

	if !allowedHost(u.Hostname(), xcontext.Configs(ctx).ImageProxy.AllowedHosts) {
		return nil, errorx.New(errorx.PermissionDenied, "Host %s is not allowed", u.Hostname())
	}

	resp, err := apiGenerator.New(u.String()).GET(ctx)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot fetch image %s: %v", rawURL, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot fetch the image")
	}

	if !resp.IsSuccess() {
		xcontext.Logger(ctx).Warnf("Fetch image %s returned status %d", rawURL, resp.Code)
		if resp.Code == http.StatusNotFound {
			return nil, errorx.New(errorx.NotFound, "Image not found")
		}

		return nil, errorx.New(errorx.BadResponse, "Upstream returned status %d", resp.Code)
	}

	img, err := common.DecodeImage("", bytes.NewReader(resp.RawBody))
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot decode image %s: %v", rawURL, err)
		return nil, errorx.New(errorx.BadRequest, "Unsupported image format")
	}

	return img, nil
}

// encodeSource prepares an image for the generator, which accepts png.
func encodeSource(img image.Image) ([]byte, error) {
	data, err := common.EncodeImage("image/png", img)
	if err != nil {
		return nil, fmt.Errorf("cannot encode source image: %w", err)
	}

	return data, nil
}

package domain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/structs"
	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/internal/repository"
	"github.com/geoplet/backend/pkg/api/neynar"
	"github.com/geoplet/backend/pkg/authenticator"
	"github.com/geoplet/backend/pkg/crypto"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/storage"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/pkg/math"
	"golang.org/x/exp/slices"
)

const (
	defaultUnconvertedLimit = 50
	maxUnconvertedLimit     = 500

	// Farcaster rejects longer casts.
	maxCastBytes = 320
)

type AdminDomain interface {
	Login(context.Context, *model.AdminLoginRequest) (*model.AdminLoginResponse, error)
	GetUnconverted(context.Context, *model.GetUnconvertedRequest) (*model.GetUnconvertedResponse, error)
	MarkContacted(context.Context, *model.MarkContactedRequest) (*model.MarkContactedResponse, error)
	SendCast(context.Context, *model.SendCastRequest) (*model.SendCastResponse, error)
	TestAPIKey(context.Context, *model.TestAPIKeyRequest) (*model.TestAPIKeyResponse, error)
}

type adminDomain struct {
	unmintedRepo   repository.UnmintedRepository
	tokenEngine    authenticator.TokenEngine[model.AdminToken]
	neynarEndpoint neynar.IEndpoint
	storage        storage.Storage
	now            func() time.Time
}

func NewAdminDomain(
	unmintedRepo repository.UnmintedRepository,
	tokenEngine authenticator.TokenEngine[model.AdminToken],
	neynarEndpoint neynar.IEndpoint,
	storage storage.Storage,
) *adminDomain {
	return &adminDomain{
		unmintedRepo:   unmintedRepo,
		tokenEngine:    tokenEngine,
		neynarEndpoint: neynarEndpoint,
		storage:        storage,
		now:            time.Now,
	}
}

func (d *adminDomain) Login(
	ctx context.Context, req *model.AdminLoginRequest,
) (*model.AdminLoginResponse, error) {
	cfg := xcontext.Configs(ctx).Auth
	if cfg.AdminPassword == "" {
		return nil, errorx.New(errorx.Misconfigured, "Admin login is disabled")
	}

	if !crypto.EqualSecret(req.Password, cfg.AdminPassword) {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid password")
	}

	token, err := d.tokenEngine.Generate(common.AdminRole, model.AdminToken{Role: common.AdminRole})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate admin token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.AdminLoginResponse{
		AccessToken: token,
		ExpiresAt:   d.now().Add(cfg.AccessToken.Expiration.Duration).Unix(),
	}, nil
}

func (d *adminDomain) GetUnconverted(
	ctx context.Context, req *model.GetUnconvertedRequest,
) (*model.GetUnconvertedResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultUnconvertedLimit
	}

	filter := repository.UnmintedFilter{
		IncludeContacted: req.IncludeContacted,
		Offset:           math.MaxInt(req.Offset, 0),
		Limit:            math.MinInt(limit, maxUnconvertedLimit),
	}

	records, err := d.unmintedRepo.GetList(ctx, filter)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get unminted generations: %v", err)
		return nil, errorx.Unknown
	}

	total, err := d.unmintedRepo.Count(ctx, filter)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count unminted generations: %v", err)
		return nil, errorx.Unknown
	}

	users := make([]model.UnmintedUser, 0, len(records))
	for i := range records {
		users = append(users, convertUnmintedUser(&records[i], req.IncludeImage))
	}

	return &model.GetUnconvertedResponse{Users: users, Total: total}, nil
}

func (d *adminDomain) MarkContacted(
	ctx context.Context, req *model.MarkContactedRequest,
) (*model.MarkContactedResponse, error) {
	if len(req.Fids) == 0 {
		return nil, errorx.New(errorx.BadRequest, "Empty fids")
	}

	updated, err := d.unmintedRepo.MarkCastSent(ctx, req.Fids, d.now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark %s as contacted: %v", common.FormatFIDs(req.Fids), err)
		return nil, errorx.Unknown
	}

	return &model.MarkContactedResponse{Updated: updated}, nil
}

// castData is what a cast template can refer to, for example
// "{{.Mentions}} your Geoplet is waiting at {{.AppURL}}". Request variables
// are available under their own names.
type castData struct {
	Mentions  string
	Usernames []string
	Count     int
	AppURL    string
}

func (d *adminDomain) SendCast(
	ctx context.Context, req *model.SendCastRequest,
) (*model.SendCastResponse, error) {
	if strings.TrimSpace(req.Template) == "" {
		return nil, errorx.New(errorx.BadRequest, "Empty template")
	}

	if len(req.Fids) == 0 {
		return nil, errorx.New(errorx.BadRequest, "Empty fids")
	}

	cfg := xcontext.Configs(ctx).Neynar
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = cfg.CastBatchSize
	}
	batchSize = math.MaxInt(batchSize, 1)

	records, err := d.unmintedRepo.GetByFIDs(ctx, req.Fids)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get unminted generations: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.SendCastResponse{Sent: []int64{}, Failed: []int64{}, Casts: []string{}}

	// Keep the order chosen by the admin and report unknown fids as failed.
	users := make([]entity.UnmintedGeneration, 0, len(records))
	for _, fid := range req.Fids {
		i := slices.IndexFunc(records, func(r entity.UnmintedGeneration) bool { return r.FID == fid })
		if i < 0 || records[i].Username == "" {
			resp.Failed = append(resp.Failed, fid)
			continue
		}

		users = append(users, records[i])
	}

	for len(users) > 0 {
		batch := common.Batch(&users, batchSize)
		fids := make([]int64, 0, len(batch))
		for _, u := range batch {
			fids = append(fids, u.FID)
		}

		hash, err := d.sendBatch(ctx, req, batch)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot cast to %s: %v", common.FormatFIDs(fids), err)
			common.IncCounter(common.CastTotal, "failed")
			resp.Failed = append(resp.Failed, fids...)

			if errors.Is(err, neynar.ErrMissingAPIKey) || errors.Is(err, neynar.ErrMissingSigner) ||
				errors.Is(err, neynar.ErrInvalidAPIKey) {
				// Every following batch would fail the same way.
				for _, u := range users {
					resp.Failed = append(resp.Failed, u.FID)
				}
				break
			}

			continue
		}

		if _, err := d.unmintedRepo.MarkCastSent(ctx, fids, d.now()); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot mark %s as contacted: %v", common.FormatFIDs(fids), err)
		}

		common.IncCounter(common.CastTotal, "success")
		resp.Sent = append(resp.Sent, fids...)
		resp.Casts = append(resp.Casts, hash)
	}

	return resp, nil
}

func (d *adminDomain) sendBatch(
	ctx context.Context, req *model.SendCastRequest, batch []entity.UnmintedGeneration,
) (string, error) {
	cfg := xcontext.Configs(ctx).Neynar

	data := castData{AppURL: cfg.AppURL, Count: len(batch)}
	mentions := make([]string, 0, len(batch))
	for _, u := range batch {
		data.Usernames = append(data.Usernames, u.Username)
		mentions = append(mentions, "@"+u.Username)
	}
	data.Mentions = strings.Join(mentions, " ")

	values := structs.Map(data)
	for k, v := range req.Variables {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}

	text, err := common.RenderTemplate("cast", req.Template, values)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	if len(text) > maxCastBytes {
		return "", fmt.Errorf("cast is %d bytes, the limit is %d", len(text), maxCastBytes)
	}

	embeds := []string{}
	if req.EmbedImage && len(batch) == 1 {
		url, err := d.uploadArtwork(ctx, batch[0])
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot upload artwork of fid %d, cast without it: %v", batch[0].FID, err)
		} else {
			embeds = append(embeds, url)
		}
	}

	if cfg.AppURL != "" {
		embeds = append(embeds, cfg.AppURL)
	}

	cast, err := d.neynarEndpoint.PublishCast(ctx, text, embeds)
	if err != nil {
		return "", err
	}

	return cast.Hash, nil
}

// uploadArtwork publishes the generated artwork so it can be embedded, casts
// only embed urls.
func (d *adminDomain) uploadArtwork(ctx context.Context, u entity.UnmintedGeneration) (string, error) {
	if d.storage == nil {
		return "", errors.New("no storage")
	}

	data, err := base64.StdEncoding.DecodeString(u.ImageData)
	if err != nil {
		return "", err
	}

	resp, err := d.storage.Upload(ctx, &storage.UploadObject{
		Prefix:   "casts",
		FileName: fmt.Sprintf("%d.jpg", u.FID),
		Mime:     "image/jpeg",
		Data:     data,
	})
	if err != nil {
		return "", err
	}

	return resp.Url, nil
}

func (d *adminDomain) TestAPIKey(
	ctx context.Context, req *model.TestAPIKeyRequest,
) (*model.TestAPIKeyResponse, error) {
	err := d.neynarEndpoint.TestAPIKey(ctx)
	switch {
	case err == nil:
		return &model.TestAPIKeyResponse{Valid: true}, nil
	case errors.Is(err, neynar.ErrMissingAPIKey), errors.Is(err, neynar.ErrInvalidAPIKey):
		return &model.TestAPIKeyResponse{Valid: false, Message: err.Error()}, nil
	}

	xcontext.Logger(ctx).Errorf("Cannot test neynar api key: %v", err)
	return nil, errorx.New(errorx.Unavailable, "Cannot reach neynar")
}

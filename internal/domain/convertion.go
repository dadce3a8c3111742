package domain

import (
	"github.com/geoplet/backend/contract/geoplet"
	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/internal/model"
)

func convertVoucher(v geoplet.Voucher) model.Voucher {
	return model.Voucher{
		To:       v.To.Hex(),
		Fid:      v.Fid.String(),
		Nonce:    v.Nonce.String(),
		Deadline: v.Deadline.String(),
	}
}

func convertUnmintedUser(u *entity.UnmintedGeneration, includeImage bool) model.UnmintedUser {
	if u == nil {
		return model.UnmintedUser{}
	}

	user := model.UnmintedUser{
		Fid:            u.FID,
		Username:       u.Username,
		WarpletTokenID: u.WarpletTokenID,
		GeneratedAt:    u.GeneratedAt,
		CastSent:       u.CastSent,
	}

	if includeImage {
		user.ImageData = u.ImageData
	}

	if u.CastSentAt.Valid {
		at := u.CastSentAt.Time
		user.CastSentAt = &at
	}

	return user
}

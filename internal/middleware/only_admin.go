package middleware

import (
	"context"
	"strings"

	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/authenticator"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/router"
	"github.com/geoplet/backend/pkg/xcontext"
)

type OnlyAdmin struct {
	tokenEngine authenticator.TokenEngine[model.AdminToken]
}

func NewOnlyAdmin(tokenEngine authenticator.TokenEngine[model.AdminToken]) *OnlyAdmin {
	return &OnlyAdmin{tokenEngine: tokenEngine}
}

// Middleware accepts the admin access token from the Authorization header
// or, for the admin panel, from the access token cookie.
func (a *OnlyAdmin) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		token := accessToken(ctx)
		if token == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		claims, err := a.tokenEngine.Verify(token)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid admin token: %v", err)
			return nil, errorx.New(errorx.Unauthenticated, "Invalid or expired token")
		}

		if claims.Role != common.AdminRole {
			return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		return xcontext.WithRequestUserID(ctx, common.AdminRole), nil
	}
}

func accessToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return ""
	}

	if auth := req.Header.Get("Authorization"); auth != "" {
		prefix, token, found := strings.Cut(auth, " ")
		if found && strings.EqualFold(prefix, "Bearer") {
			return token
		}

		return ""
	}

	cookie, err := req.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}

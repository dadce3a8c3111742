package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/authenticator"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/testutil"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func TestOnlyAdmin(t *testing.T) {
	engine := authenticator.NewTokenEngine[model.AdminToken]("secret", time.Minute)
	adminToken, err := engine.Generate(common.AdminRole, model.AdminToken{Role: common.AdminRole})
	require.NoError(t, err)
	userToken, err := engine.Generate("user", model.AdminToken{Role: "user"})
	require.NoError(t, err)

	middleware := NewOnlyAdmin(engine).Middleware()

	tests := []struct {
		name    string
		header  string
		cookie  string
		wantErr error
	}{
		{name: "no token", wantErr: errorx.New(errorx.Unauthenticated, "")},
		{name: "bearer", header: "Bearer " + adminToken},
		{name: "cookie", cookie: adminToken},
		{name: "invalid token", header: "Bearer abc", wantErr: errorx.New(errorx.Unauthenticated, "")},
		{name: "not admin", header: "Bearer " + userToken, wantErr: errorx.New(errorx.PermissionDenied, "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/getUnconverted", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", testutil.MockConfigs().Auth.AccessToken.Name+"="+tt.cookie)
			}

			ctx := xcontext.WithHTTPRequest(testutil.MockContext(), req)
			newCtx, err := middleware(ctx)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, common.AdminRole, xcontext.RequestUserID(newCtx))
		})
	}
}

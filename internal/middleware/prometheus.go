package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/router"
	"github.com/geoplet/backend/pkg/xcontext"
)

func WithStartTime() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		return xcontext.WithStartTime(ctx, time.Now()), nil
	}
}

// Prometheus records requests by path and the http status written.
func Prometheus() router.CloserFunc {
	return func(ctx context.Context) {
		status := http.StatusOK
		if err := xcontext.Error(ctx); err != nil {
			var errx errorx.Error
			if errors.As(err, &errx) {
				status = errx.Code.HTTPStatus()
			} else {
				status = http.StatusInternalServerError
			}
		}

		path := xcontext.HTTPRequest(ctx).URL.Path
		code := strconv.Itoa(status)

		common.IncCounter(common.HTTPRequestTotal, path, code)

		startTime := xcontext.StartTime(ctx)
		if startTime.IsZero() {
			return
		}

		if histogram, ok := common.PromHistograms[common.HTTPRequestDurationSeconds]; ok {
			histogram.WithLabelValues(path, code).Observe(time.Since(startTime).Seconds())
		}
	}
}

package xcontext

import (
	"context"
	"net/http"
	"time"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/pkg/logger"
	"gorm.io/gorm"
)

type (
	loggerKey      struct{}
	configsKey     struct{}
	dbKey          struct{}
	dbTxKey        struct{}
	httpRequestKey struct{}
	httpHeaderKey  struct{}
	httpClientKey  struct{}
	requestUserKey struct{}
	startTimeKey   struct{}
	errorKey       struct{}
)

var defaultHTTPClient = &http.Client{}

func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func Logger(ctx context.Context) logger.Logger {
	l := ctx.Value(loggerKey{})
	if l == nil {
		return logger.NewLogger(logger.INFO)
	}

	return l.(logger.Logger)
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	cfg := ctx.Value(configsKey{})
	if cfg == nil {
		return config.Configs{}
	}

	return cfg.(config.Configs)
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the current transaction if one was opened with
// WithDBTransaction, otherwise the base connection.
func DB(ctx context.Context) *gorm.DB {
	if tx := ctx.Value(dbTxKey{}); tx != nil {
		return tx.(*gorm.DB).WithContext(ctx)
	}

	db := ctx.Value(dbKey{})
	if db == nil {
		return nil
	}

	return db.(*gorm.DB).WithContext(ctx)
}

func WithDBTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, dbTxKey{}, DB(ctx).Begin())
}

func WithCommitDBTransaction(ctx context.Context) context.Context {
	if tx := ctx.Value(dbTxKey{}); tx != nil {
		tx.(*gorm.DB).Commit()
	}

	return context.WithValue(ctx, dbTxKey{}, nil)
}

func WithRollbackDBTransaction(ctx context.Context) context.Context {
	if tx := ctx.Value(dbTxKey{}); tx != nil {
		tx.(*gorm.DB).Rollback()
	}

	return context.WithValue(ctx, dbTxKey{}, nil)
}

func WithHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

func HTTPRequest(ctx context.Context) *http.Request {
	req := ctx.Value(httpRequestKey{})
	if req == nil {
		return nil
	}

	return req.(*http.Request)
}

// WithResponseHeader exposes the header of the pending response, handlers
// may add to it before the body is written.
func WithResponseHeader(ctx context.Context, header http.Header) context.Context {
	return context.WithValue(ctx, httpHeaderKey{}, header)
}

// ResponseHeader returns a throwaway header outside of a request.
func ResponseHeader(ctx context.Context) http.Header {
	header := ctx.Value(httpHeaderKey{})
	if header == nil {
		return http.Header{}
	}

	return header.(http.Header)
}

func WithHTTPClient(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, httpClientKey{}, client)
}

func HTTPClient(ctx context.Context) *http.Client {
	client := ctx.Value(httpClientKey{})
	if client == nil {
		return defaultHTTPClient
	}

	return client.(*http.Client)
}

func WithRequestUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestUserKey{}, id)
}

func RequestUserID(ctx context.Context) string {
	id := ctx.Value(requestUserKey{})
	if id == nil {
		return ""
	}

	return id.(string)
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func StartTime(ctx context.Context) time.Time {
	t := ctx.Value(startTimeKey{})
	if t == nil {
		return time.Time{}
	}

	return t.(time.Time)
}

func WithError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, errorKey{}, err)
}

func Error(ctx context.Context) error {
	err := ctx.Value(errorKey{})
	if err == nil {
		return nil
	}

	return err.(error)
}

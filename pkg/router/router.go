package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/logger"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)
type MiddlewareFunc func(ctx context.Context) (context.Context, error)
type CloserFunc func(ctx context.Context)

// RawResponse is implemented by responses which are not wrapped into the
// JSON envelope, such as proxied images.
type RawResponse interface {
	WriteRaw(w http.ResponseWriter) error
}

type Router struct {
	mux     *http.ServeMux
	db      *gorm.DB
	cfg     config.Configs
	logger  logger.Logger
	befores []MiddlewareFunc
	closers []CloserFunc
	inject  []func(context.Context) context.Context
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// Branch returns a router sharing the same mux. Middlewares added to the
// branch do not affect its parent.
func (r *Router) Branch() *Router {
	return &Router{
		mux:     r.mux,
		db:      r.db,
		cfg:     r.cfg,
		logger:  r.logger,
		befores: append([]MiddlewareFunc{}, r.befores...),
		closers: append([]CloserFunc{}, r.closers...),
		inject:  append([]func(context.Context) context.Context{}, r.inject...),
	}
}

func (r *Router) Before(m MiddlewareFunc) {
	r.befores = append(r.befores, m)
}

func (r *Router) AddCloser(c CloserFunc) {
	r.closers = append(r.closers, c)
}

// With registers a function which decorates the context of every request,
// used to attach shared dependencies such as the redis client.
func (r *Router) With(f func(context.Context) context.Context) {
	r.inject = append(r.inject, f)
}

func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) Handler(cfg config.CorsConfigs) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept", "Content-Type", "Content-Length", "Authorization", "X-PAYMENT",
		},
		ExposedHeaders: []string{"X-PAYMENT-RESPONSE"},
	}).Handler(r.mux)
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrap(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrap(r, http.MethodPost, handler))
}

func wrap[Request, Response any](
	r *Router, method string, handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		ctx = xcontext.WithConfigs(ctx, r.cfg)
		ctx = xcontext.WithLogger(ctx, r.logger)
		ctx = xcontext.WithDB(ctx, r.db)
		ctx = xcontext.WithHTTPRequest(ctx, req)
		ctx = xcontext.WithResponseHeader(ctx, w.Header())
		for _, f := range r.inject {
			ctx = f(ctx)
		}

		resp, err := func() (any, error) {
			if req.Method != method {
				return nil, errorx.New(errorx.NotFound, "Not found %s %s", req.Method, req.URL.Path)
			}

			for _, m := range r.befores {
				newCtx, err := m(ctx)
				if err != nil {
					return nil, err
				}

				if newCtx != nil {
					ctx = newCtx
				}
			}

			var request Request
			if err := parseRequest(req, method, &request); err != nil {
				xcontext.Logger(ctx).Debugf("Cannot parse request: %v", err)
				return nil, errorx.New(errorx.BadRequest, "Invalid request")
			}

			return handler(ctx, &request)
		}()

		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			writeError(ctx, w, err)
		} else if raw, ok := resp.(RawResponse); ok {
			if err := raw.WriteRaw(w); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot write raw response: %v", err)
			}
		} else if err := WriteJson(w, http.StatusOK, newResponse(resp)); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot write the response: %v", err)
		}

		for _, c := range r.closers {
			c(ctx)
		}
	}
}

func parseRequest(req *http.Request, method string, v any) error {
	switch method {
	case http.MethodGet:
		values := map[string]any{}
		for k, vs := range req.URL.Query() {
			if len(vs) == 1 {
				values[k] = vs[0]
			} else {
				values[k] = vs
			}
		}

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           v,
		})
		if err != nil {
			return err
		}

		return decoder.Decode(values)

	case http.MethodPost:
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return err
		}

		if len(b) == 0 {
			return nil
		}

		return json.Unmarshal(b, v)
	}

	return errors.New("unsupported method")
}

// Package webctx implements the context-extraction middleware of spec
// §4.8: it reads one configured header, resolves it to a corefx.CallerContext
// either inline (base64+JSON) or via a cache-backed opaque token, and
// exposes the result to handlers through the request context.
package webctx

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/vitaliisemenov/corefx"
	"github.com/vitaliisemenov/corefx/cache"
	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/webserver"
)

type contextKey struct{}

var callerContextKey = contextKey{}

// FromContext retrieves the CallerContext a handler downstream of
// Middleware can rely on having been set. ok is false if Middleware never
// ran (e.g. in tests calling the handler directly).
func FromContext(ctx context.Context) (*corefx.CallerContext, bool) {
	cc, ok := ctx.Value(callerContextKey).(*corefx.CallerContext)
	return cc, ok
}

// Config configures the extractor; defaults match spec §6's "Tardis-Context"
// header default.
type Config struct {
	HeaderName    string
	TokenCacheKey string
	Cache         *cache.Client // nil disables token-form lookups (spec §4.8 "If the cache feature is disabled...")
}

// Middleware implements the algorithm of spec §4.8 exactly: missing header,
// non-UTF-8 decode, malformed token lookup, and malformed JSON each produce
// a distinct bad-request error written via webserver.WriteTardisError so
// UniformError downstream can apply the uniform 4xx-to-200 fallback.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	header := cfg.HeaderName
	if header == "" {
		header = "Tardis-Context"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(header)
			if raw == "" {
				webserver.WriteTardisError(w, ferr.BadRequest("context-header-not-exist: missing %q header", header))
				return
			}
			if !utf8.ValidString(raw) {
				webserver.WriteTardisError(w, ferr.BadRequest("context-header-invalid-encoding: %q header is not valid UTF-8", header))
				return
			}

			cc, err := resolveContext(r.Context(), cfg, raw)
			if err != nil {
				webserver.WriteTardisError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), callerContextKey, cc)
			next.ServeHTTP(w, r.WithContext(ctx))
			cc.RunDeferredTasks(r.Context())
		})
	}
}

func resolveContext(ctx context.Context, cfg Config, raw string) (*corefx.CallerContext, *ferr.Error) {
	var payload []byte

	if strings.HasPrefix(raw, "__") {
		if cfg.Cache == nil {
			return nil, ferr.BadRequest("context-token-lookup-unavailable: cache feature is disabled")
		}
		token := strings.TrimPrefix(raw, "__")
		value, err := cfg.Cache.Get(ctx, cfg.TokenCacheKey+token)
		if err != nil {
			return nil, ferr.BadRequest("context-token-not-found: no cached context for token")
		}
		payload = []byte(value)
	} else {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, ferr.BadRequest("context-header-invalid-base64: %v", err)
		}
		payload = decoded
	}

	var wire wireContext
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, ferr.BadRequest("context-header-invalid-json: %v", err)
	}
	return wire.toCallerContext(), nil
}

// wireContext mirrors corefx.CallerContext's JSON shape without its
// unexported task queues, so decoding never has to reach into corefx
// internals.
type wireContext struct {
	OwnPaths  string         `json:"own_paths"`
	AccessKey string         `json:"ak"`
	Owner     string         `json:"owner"`
	Roles     []string       `json:"roles"`
	Groups    []string       `json:"groups"`
	Ext       map[string]any `json:"ext"`
}

func (w wireContext) toCallerContext() *corefx.CallerContext {
	return corefx.NewCallerContext(w.OwnPaths, w.AccessKey, w.Owner, w.Roles, w.Groups, w.Ext)
}

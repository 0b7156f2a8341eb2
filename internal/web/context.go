package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/tabledit/internal/core"
	appmw "github.com/JonMunkholm/tabledit/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so the session
// opened by this request is attributed to its caller.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithClientIP(ctx, appmw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// Package ginbridge mounts a WebApp inside a gin engine, so an
// action-based app can live alongside plain gin routes during a
// migration, or borrow gin's middleware ecosystem at the edge.
package ginbridge

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"usher"
)

// Wrap adapts the app to a gin handler, for callers that place it on
// routes of their own.
func Wrap(wa *usher.WebApp) gin.HandlerFunc {
	return gin.WrapH(wa)
}

// Mount serves the app under a non-empty path prefix. Requests keep
// their action paths: with prefix /api, GET /api/hello dispatches the
// action registered at /hello.
func Mount(r *gin.Engine, prefix string, wa *usher.WebApp) {
	prefix = "/" + strings.Trim(prefix, "/")
	handler := gin.WrapH(http.StripPrefix(prefix, wa))
	group := r.Group(prefix)
	group.Any("/*action", handler)
}

// Fallback routes everything gin itself does not know to the app.
// Gin's own routes win; the app's registry resolves the rest.
func Fallback(r *gin.Engine, wa *usher.WebApp) {
	r.NoRoute(gin.WrapH(wa))
}

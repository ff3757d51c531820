package utils

import (
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"
)

// UserIDFromTokenMiddleware extracts the caller's ID from the verified JWT
// and stores it in the request context for downstream handlers.
func UserIDFromTokenMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// RequireRoles gates a route on the token's role claim. Any role outside the
// allow-list gets the single generic access-denied response.
func RequireRoles(roles ...string) iris.Handler {
	return func(ctx iris.Context) {
		claims := jwt.Get(ctx).(*AccessToken)
		if !slices.Contains(roles, claims.Role) {
			CreateAccessDenied(ctx)
			return
		}
		ctx.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chainledge/tickpoints/utils"
)

// ContextPrincipalKey is the key used to store the authenticated principal in the
// Gin context.
const ContextPrincipalKey = "principal"

// AuthRequired ensures the request carries a valid bearer token and records the
// principal it proves control of.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextPrincipalKey, claims.Principal)
		ctx.Next()
	}
}

// Principal fetches the authenticated principal from the context.
func Principal(ctx *gin.Context) (string, bool) {
	val, ok := ctx.Get(ContextPrincipalKey)
	if !ok {
		return "", false
	}
	principal, ok := val.(string)
	return principal, ok && principal != ""
}

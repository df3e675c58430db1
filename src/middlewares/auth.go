package middlewares

import (
	"errors"
	"log"
	"meetingroom/src/db"
	"meetingroom/src/lib"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"meetingroom/src/utils"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(ctx *gin.Context) {
	reqToken, ok := BearerToken(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	claims, err := utils.ParseJWT(reqToken)
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if lib.GetRedisClient() != nil {
		revoked, err := lib.IsTokenRevoked(ctx.Request.Context(), claims.ID)
		if err != nil {
			log.Printf("[AuthMiddleware] revocation check failed: %s\n", err.Error())
			ctx.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		if revoked {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		log.Println("error parsing claims subject:", claims.Subject)
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	user, err := repository.NewUserStore(db.GetDb()).FindByID(ctx.Request.Context(), uint(uid))
	if errors.Is(err, repository.ErrNotFound) {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("[AuthMiddleware] error loading user %d: %s\n", uid, err.Error())
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	ctx.Set("id", user.ID)
	ctx.Set("email", user.Email)
	ctx.Set("role", user.Role)
	ctx.Set("jti", claims.ID)
	if claims.ExpiresAt != nil {
		ctx.Set("exp", claims.ExpiresAt.Time)
	}
	ctx.Next()
}

// RequireRole aborts with 403 unless the authenticated user has one of roles.
func RequireRole(roles ...types.UserRole) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role, _ := ctx.Get("role")
		for _, r := range roles {
			if role == r {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// TokenTTL is how long the current token stays valid.
func TokenTTL(ctx *gin.Context) time.Duration {
	v, ok := ctx.Get("exp")
	if !ok {
		return 0
	}
	exp, ok := v.(time.Time)
	if !ok {
		return 0
	}
	return time.Until(exp)
}

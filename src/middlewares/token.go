package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func BearerToken(ctx *gin.Context) (string, bool) {
	header := ctx.Request.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

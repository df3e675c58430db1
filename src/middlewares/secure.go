package middlewares

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
)

func SecureHeaders(ctx *gin.Context) {
	h := ctx.Writer.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	ctx.Next()
}

// MaintenanceMode rejects every request while MAINTENANCE_MODE is true.
func MaintenanceMode(ctx *gin.Context) {
	mm := os.Getenv("MAINTENANCE_MODE")
	if mm == "" {
		ctx.Next()
		return
	}
	on, err := strconv.ParseBool(mm)
	if err != nil || on {
		err := errors.New("server is under maintenance")
		log.Println(err.Error())
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	ctx.Next()
}

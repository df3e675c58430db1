package main

import (
	"meetingroom/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func userHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.
		GET("/users/me", func(ctx *gin.Context) {
			user, err := app.Users.Get(ctx.Request.Context(), ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, "GetMe", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		PUT("/users/me", func(ctx *gin.Context) {
			var body types.UpdateProfileRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			user, err := app.Users.UpdateProfile(ctx.Request.Context(), ctx.GetUint("id"), body.FullName, body.CalendarSync)
			if err != nil {
				respondError(ctx, "UpdateProfile", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		GET("/users", func(ctx *gin.Context) {
			users, err := app.Users.List(ctx.Request.Context(), actor(ctx))
			if err != nil {
				respondError(ctx, "ListUsers", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": users, "count": len(users)})
		})
	return g
}

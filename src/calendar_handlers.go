package main

import (
	"meetingroom/src/controllers"
	"meetingroom/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func calendarHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.
		POST("/accounts/calendar/connect", func(ctx *gin.Context) {
			var body types.CalendarConnectRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			url, status, err := controllers.CalendarConnectStart(ctx.Request.Context(), ctx.GetUint("id"), body.Redirect)
			if err != nil {
				ctx.JSON(status, gin.H{"error": "could not start calendar connection"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		}).
		DELETE("/accounts/calendar", func(ctx *gin.Context) {
			if err := app.Users.DisconnectCalendar(ctx.Request.Context(), ctx.GetUint("id")); err != nil {
				respondError(ctx, "DisconnectCalendar", err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

// oauthCallbackHandlers is mounted outside the authorized group; the
// encrypted state carries the account.
func oauthCallbackHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.GET("/oauth/google/callback", func(ctx *gin.Context) {
		state, code := ctx.Query("state"), ctx.Query("code")
		if state == "" || code == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "state and code are required"})
			return
		}
		redirect, status, err := controllers.CalendarConnectFinish(ctx.Request.Context(), app.Users, state, code)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.Redirect(http.StatusFound, redirect)
	})
	return g
}

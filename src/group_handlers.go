package main

import (
	"meetingroom/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func groupHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.
		POST("/groups", func(ctx *gin.Context) {
			var body types.CreateGroupRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			group, err := app.Groups.CreateGroup(ctx.Request.Context(), ctx.GetUint("id"), body.Name, body.Description)
			if err != nil {
				respondError(ctx, "CreateGroup", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": group})
		}).
		GET("/groups", func(ctx *gin.Context) {
			groups, err := app.Groups.ListGroups(ctx.Request.Context(), ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, "ListGroups", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": groups, "count": len(groups)})
		}).
		GET("/groups/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			group, err := app.Groups.GetGroup(ctx.Request.Context(), actor(ctx), params.ID)
			if err != nil {
				respondError(ctx, "GetGroup", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": group})
		}).
		POST("/groups/:id/invites", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			var body types.InviteRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			invite, err := app.Groups.Invite(ctx.Request.Context(), ctx.GetUint("id"), params.ID, body.Email)
			if err != nil {
				respondError(ctx, "InviteMember", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": invite})
		}).
		POST("/invites/:token/accept", func(ctx *gin.Context) {
			var params types.InviteTokenRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			token, err := uuid.Parse(params.Token)
			if err != nil {
				bindError(ctx, err)
				return
			}
			member, err := app.Groups.Accept(ctx.Request.Context(), ctx.GetUint("id"), token)
			if err != nil {
				respondError(ctx, "AcceptInvite", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": member})
		})
	return g
}

package main

import (
	"meetingroom/src/controllers"
	"meetingroom/src/middlewares"
	"meetingroom/src/services"
	"meetingroom/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func roomInput(body types.CreateRoomRequestBody) services.RoomInput {
	return services.RoomInput{
		Name:     body.Name,
		Location: body.Location,
		Capacity: body.Capacity,
		Status:   body.Status,
	}
}

func roomHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	admin := middlewares.RequireRole(types.ROLE_ADMIN)
	g.
		GET("/rooms", func(ctx *gin.Context) {
			rooms, err := app.Rooms.List(ctx.Request.Context())
			if err != nil {
				respondError(ctx, "ListRooms", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rooms, "count": len(rooms)})
		}).
		GET("/rooms/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			room, err := app.Rooms.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, "GetRoom", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": room})
		}).
		GET("/rooms/:id/meetings", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			var query types.TimeRangeQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				bindError(ctx, err)
				return
			}
			from, err := parseTime("from", query.From)
			if err != nil {
				respondError(ctx, "ListRoomMeetings", err)
				return
			}
			to, err := parseTime("to", query.To)
			if err != nil {
				respondError(ctx, "ListRoomMeetings", err)
				return
			}
			meetings, err := app.Meetings.ListByRoom(ctx.Request.Context(), params.ID, from, to)
			if err != nil {
				respondError(ctx, "ListRoomMeetings", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": meetings, "count": len(meetings)})
		}).
		GET("/rooms/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			var query types.AvailabilityQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				bindError(ctx, err)
				return
			}
			start, err := parseTime("start", query.Start)
			if err != nil {
				respondError(ctx, "RoomAvailability", err)
				return
			}
			end, err := parseTime("end", query.End)
			if err != nil {
				respondError(ctx, "RoomAvailability", err)
				return
			}
			ok, err := app.Meetings.IsAvailable(ctx.Request.Context(), params.ID, start, end)
			if err != nil {
				respondError(ctx, "RoomAvailability", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"available": ok})
		}).
		GET("/rooms/:id/qrcode", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			room, err := app.Rooms.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, "RoomQRCode", err)
				return
			}
			path, status, err := controllers.RoomQRCode(room)
			if err != nil {
				ctx.JSON(status, gin.H{"error": "could not render qrcode"})
				return
			}
			ctx.File(path)
		}).
		POST("/rooms", admin, func(ctx *gin.Context) {
			var body types.CreateRoomRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			room, err := app.Rooms.Create(ctx.Request.Context(), roomInput(body))
			if err != nil {
				respondError(ctx, "CreateRoom", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": room})
		}).
		PUT("/rooms/:id", admin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			var body types.CreateRoomRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			room, err := app.Rooms.Update(ctx.Request.Context(), params.ID, roomInput(body))
			if err != nil {
				respondError(ctx, "UpdateRoom", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": room})
		}).
		DELETE("/rooms/:id", admin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			if err := app.Rooms.Delete(ctx.Request.Context(), params.ID); err != nil {
				respondError(ctx, "DeleteRoom", err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

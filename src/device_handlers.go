package main

import (
	"meetingroom/src/middlewares"
	"meetingroom/src/services"
	"meetingroom/src/types"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func deviceHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	admin := middlewares.RequireRole(types.ROLE_ADMIN)
	g.
		GET("/devices", func(ctx *gin.Context) {
			devices, err := app.Devices.ListDevices(ctx.Request.Context())
			if err != nil {
				respondError(ctx, "ListDevices", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": devices, "count": len(devices)})
		}).
		GET("/devices/borrowed", func(ctx *gin.Context) {
			status := strings.ToUpper(ctx.Query("status"))
			if status == "" {
				loans, err := app.Devices.ListByRequester(ctx.Request.Context(), ctx.GetUint("id"))
				if err != nil {
					respondError(ctx, "ListBorrowed", err)
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"data": loans, "count": len(loans)})
				return
			}
			loans, err := app.Devices.ListByStatus(ctx.Request.Context(), types.BorrowStatus(status))
			if err != nil {
				respondError(ctx, "ListBorrowed", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": loans, "count": len(loans)})
		}).
		GET("/devices/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			available, err := app.Devices.Available(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, "DeviceAvailability", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"device_id": params.ID, "available": available})
		}).
		POST("/devices", admin, func(ctx *gin.Context) {
			var body types.CreateDeviceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			device, err := app.Devices.CreateDevice(ctx.Request.Context(), services.DeviceInput{
				Name:          body.Name,
				Description:   body.Description,
				TotalQuantity: body.TotalQuantity,
			})
			if err != nil {
				respondError(ctx, "CreateDevice", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": device})
		}).
		PUT("/devices/:id", admin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			var body types.CreateDeviceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			device, err := app.Devices.UpdateDevice(ctx.Request.Context(), params.ID, services.DeviceInput{
				Name:          body.Name,
				Description:   body.Description,
				TotalQuantity: body.TotalQuantity,
			})
			if err != nil {
				respondError(ctx, "UpdateDevice", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": device})
		}).
		DELETE("/devices/:id", admin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			if err := app.Devices.DeleteDevice(ctx.Request.Context(), params.ID); err != nil {
				respondError(ctx, "DeleteDevice", err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/meetings/:id/devices", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			var body types.BorrowDeviceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			if _, ok := ownMeeting(ctx, app, "BorrowDevice", params.ID); !ok {
				return
			}
			loan, err := app.Devices.Borrow(ctx.Request.Context(), params.ID, body.DeviceID, body.Quantity, ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, "BorrowDevice", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": loan})
		}).
		GET("/meetings/:id/devices", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			loans, err := app.Devices.ListByMeeting(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, "ListMeetingDevices", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": loans, "count": len(loans)})
		}).
		PUT("/meetings/:id/devices/:deviceId/return", func(ctx *gin.Context) {
			var params types.MeetingDeviceRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			if _, ok := ownMeeting(ctx, app, "ReturnDevice", params.ID); !ok {
				return
			}
			returned, err := app.Devices.Return(ctx.Request.Context(), params.ID, params.DeviceID)
			if err != nil {
				respondError(ctx, "ReturnDevice", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": returned, "count": len(returned)})
		})
	return g
}

package main

import (
	"meetingroom/src/common"
	"meetingroom/src/controllers"
	"meetingroom/src/middlewares"
	"meetingroom/src/models"
	"meetingroom/src/services"
	"meetingroom/src/types"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func meetingInput(roomID uint, title, description, start, end string) (services.MeetingInput, error) {
	startTime, err := parseTime("start_time", start)
	if err != nil {
		return services.MeetingInput{}, err
	}
	endTime, err := parseTime("end_time", end)
	if err != nil {
		return services.MeetingInput{}, err
	}
	return services.MeetingInput{
		RoomID:      roomID,
		Title:       title,
		Description: description,
		StartTime:   startTime,
		EndTime:     endTime,
	}, nil
}

// ownMeeting loads a meeting the current user organizes, or any meeting for
// an administrator. It writes the error response itself.
func ownMeeting(ctx *gin.Context, app *App, op string, id uint) (*models.Meeting, bool) {
	meeting, err := app.Meetings.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, op, err)
		return nil, false
	}
	a := actor(ctx)
	if !meeting.IsOwnedBy(a.ID) && !a.IsAdmin() {
		respondError(ctx, op, services.ErrForbidden)
		return nil, false
	}
	return meeting, true
}

func meetingHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	list := func(op string, find func(ctx *gin.Context) (any, int, error)) gin.HandlerFunc {
		return func(ctx *gin.Context) {
			data, count, err := find(ctx)
			if err != nil {
				respondError(ctx, op, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": count})
		}
	}

	g.
		POST("/meetings", func(ctx *gin.Context) {
			var body types.CreateMeetingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			in, err := meetingInput(body.RoomID, body.Title, body.Description, body.StartTime, body.EndTime)
			if err != nil {
				respondError(ctx, "CreateMeeting", err)
				return
			}
			reqCtx := common.WithInitiator(ctx.Request.Context(), ctx.GetUint("id"))
			meeting, err := app.Meetings.Create(reqCtx, ctx.GetUint("id"), in)
			if err != nil {
				respondError(ctx, "CreateMeeting", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": meeting})
		}).
		GET("/meetings/mine", list("ListMyMeetings", func(ctx *gin.Context) (any, int, error) {
			m, err := app.Meetings.ListByOwner(ctx.Request.Context(), ctx.GetUint("id"))
			return m, len(m), err
		})).
		GET("/meetings/upcoming", list("UpcomingMeetings", func(ctx *gin.Context) (any, int, error) {
			m, err := app.Meetings.Upcoming(ctx.Request.Context(), time.Now())
			return m, len(m), err
		})).
		GET("/meetings/ongoing", list("OngoingMeetings", func(ctx *gin.Context) (any, int, error) {
			m, err := app.Meetings.Ongoing(ctx.Request.Context(), time.Now())
			return m, len(m), err
		})).
		GET("/meetings/ended", list("EndedMeetings", func(ctx *gin.Context) (any, int, error) {
			m, err := app.Meetings.EndedBefore(ctx.Request.Context(), time.Now())
			return m, len(m), err
		})).
		GET("/meetings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			meeting, err := app.Meetings.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, "GetMeeting", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": meeting})
		}).
		PUT("/meetings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			var body types.UpdateMeetingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			in, err := meetingInput(body.RoomID, body.Title, body.Description, body.StartTime, body.EndTime)
			if err != nil {
				respondError(ctx, "UpdateMeeting", err)
				return
			}
			reqCtx := common.WithInitiator(ctx.Request.Context(), ctx.GetUint("id"))
			meeting, err := app.Meetings.Update(reqCtx, actor(ctx), params.ID, in)
			if err != nil {
				respondError(ctx, "UpdateMeeting", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": meeting})
		}).
		DELETE("/meetings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			reqCtx := common.WithInitiator(ctx.Request.Context(), ctx.GetUint("id"))
			meeting, released, err := app.Meetings.Cancel(reqCtx, actor(ctx), params.ID)
			if err != nil {
				respondError(ctx, "CancelMeeting", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": meeting, "devices_released": released})
		}).
		DELETE("/meetings/:id/purge", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			if err := app.Meetings.Delete(ctx.Request.Context(), actor(ctx), params.ID); err != nil {
				respondError(ctx, "DeleteMeeting", err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/meetings/:id/trail", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			meeting, ok := ownMeeting(ctx, app, "MeetingTrail", params.ID)
			if !ok {
				return
			}
			entries, err := app.Trail.ListTrail(ctx.Request.Context(), common.TrailGroupMeeting, meeting.ID)
			if err != nil {
				respondError(ctx, "MeetingTrail", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": entries, "count": len(entries)})
		}).
		GET("/meetings/:id/calendar.ics", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			meeting, err := app.Meetings.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, "MeetingCalendar", err)
				return
			}
			name, body := controllers.MeetingCalendarFile(meeting)
			ctx.Header("Content-Disposition", "attachment; filename="+name)
			ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
		}).
		POST("/meetings/:id/calendar/share", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindError(ctx, err)
				return
			}
			meeting, err := app.Meetings.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, "ShareMeetingCalendar", err)
				return
			}
			link, status, err := controllers.ShareMeetingCalendar(ctx.Request.Context(), meeting)
			if err != nil {
				ctx.JSON(status, gin.H{"error": "could not share calendar file"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": link})
		})
	return g
}

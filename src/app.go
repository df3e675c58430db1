package main

import (
	"errors"
	"log"
	"meetingroom/src/common"
	"meetingroom/src/config"
	"meetingroom/src/metrics"
	"meetingroom/src/repository"
	"meetingroom/src/services"
	"meetingroom/src/types"
	"meetingroom/src/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type App struct {
	Meetings *services.MeetingService
	Devices  *services.DeviceService
	Rooms    *services.RoomService
	Users    *services.UserService
	Groups   *services.GroupService
	Auth     *services.AuthService
	Codes    *services.VerificationService
	Trail    repository.TrailStore
	Jobs     repository.JobStore
	Notifier *common.Notifier
	Tasks    types.Handler
}

func NewApp(gdb *gorm.DB, idp services.IdentityProvider, mailer services.Mailer) *App {
	meetingStore := repository.NewMeetingStore(gdb)
	userStore := repository.NewUserStore(gdb)
	jobs := repository.NewJobStore(gdb)
	trail := repository.NewTrailStore(gdb)

	notifier := common.NewNotifier(meetingStore, jobs)
	notifier.Trail = trail
	codes := services.NewVerificationService(repository.NewCodeStore(gdb), mailer)

	return &App{
		Meetings: services.NewMeetingService(meetingStore, notifier),
		Devices:  services.NewDeviceService(repository.NewDeviceStore(gdb)),
		Rooms:    services.NewRoomService(repository.NewRoomStore(gdb)),
		Users:    services.NewUserService(userStore),
		Groups:   services.NewGroupService(repository.NewGroupStore(gdb), userStore, mailer, config.APP_HOST),
		Auth:     services.NewAuthService(userStore, idp, codes, utils.GenerateJWT),
		Codes:    codes,
		Trail:    trail,
		Jobs:     jobs,
		Notifier: notifier,
		Tasks: common.NewTaskHandler(&common.ReminderHandler{
			Meetings: meetingStore,
			Jobs:     jobs,
			Mailer:   mailer,
		}),
	}
}

func actor(ctx *gin.Context) services.Actor {
	role, _ := ctx.Get("role")
	r, _ := role.(types.UserRole)
	return services.Actor{ID: ctx.GetUint("id"), Role: r}
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(config.TIME_PARSE_FORMAT, value)
	if err != nil {
		v := services.NewValidationError()
		v.Add(field, "must be an RFC3339 timestamp")
		return time.Time{}, v
	}
	return t.UTC(), nil
}

func bindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// respondError maps service errors onto HTTP responses. Unknown errors are
// logged and hidden from the client.
func respondError(ctx *gin.Context, op string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.FieldErrors})
	case errors.Is(err, services.ErrSchedulingConflict):
		metrics.BookingConflictsTotal.Inc()
		ctx.JSON(http.StatusConflict, gin.H{"error": services.ErrSchedulingConflict.Error()})
	case errors.Is(err, services.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInsufficientInventory):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrUnauthorized.Error()})
	default:
		log.Printf("[%s] error: %s\n", op, err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

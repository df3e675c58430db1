package main

import (
	"context"
	"io"
	"log"
	"meetingroom/src/boot"
	"meetingroom/src/config"
	"meetingroom/src/lib"
	"meetingroom/src/lib/mailer"
	"meetingroom/src/metrics"
	"meetingroom/src/middlewares"
	"net/http"
	"os"
	"path"
	"regexp"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	apiPrefix string = "/api/v1"
)

var bookableDate validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return datetime.After(time.Now())
}

// gtdate requires the field to be strictly later than the sibling named by
// the tag parameter.
var gtdate validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	if !field.IsValid() {
		return false
	}
	fieldValue, ok := field.Interface().(string)
	if !ok {
		return false
	}
	other, err := time.Parse(config.TIME_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	return datetime.After(other)
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDate)
		v.RegisterValidation("gtdate", gtdate)
	}
}

func corsMiddleware() gin.HandlerFunc {
	if config.IsLocal() {
		return cors.Default()
	}
	appHost := regexp.QuoteMeta(config.APP_HOST)
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	cc.AllowOriginFunc = func(origin string) bool {
		match, _ := regexp.MatchString("^"+appHost+"$", origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

// setupRouter mounts every route. auth guards the authorized group.
func setupRouter(app *App, auth gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders, metrics.GinMiddleware(), corsMiddleware(), middlewares.MaintenanceMode)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiv1 := router.Group(apiPrefix)
	oauthCallbackHandlers(apiv1, app)

	guest := apiv1.Group("/auth")
	guest.Use(middlewares.RateLimit(rate.Limit(config.GetenvInt("AUTH_RATE_LIMIT", 5)), config.GetenvInt("AUTH_RATE_BURST", 10)))
	authHandlers(guest, app)

	authorized := router.Group(apiPrefix)
	authorized.Use(auth)
	{
		sessionHandlers(authorized, app)
		userHandlers(authorized, app)
		roomHandlers(authorized, app)
		meetingHandlers(authorized, app)
		deviceHandlers(authorized, app)
		groupHandlers(authorized, app)
		calendarHandlers(authorized, app)
	}
	return router
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	if err := os.MkdirAll(path.Join(cwd, "logs"), 0o755); err != nil {
		log.Printf("Could not create logs directory: %s\n", err.Error())
		return
	}
	f, err := os.Create(apiLogs)
	if err == nil {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}))
}

func main() {
	if config.IsLocal() {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			log.Printf("No .env file loaded: %s\n", err.Error())
		}
		config.Load()
	}
	boot.InitSecrets()
	initLogger()
	registerValidators()

	gdb := boot.InitDb()
	app := NewApp(gdb, lib.NewCognitoIdentityProvider(), mailer.New())

	ctx := context.Background()
	boot.InitScheduler(app.Tasks,
		boot.Sweep{Name: "verification-codes", Interval: time.Hour, Run: app.Codes.PurgeExpired},
		boot.Sweep{Name: "group-invites", Interval: time.Hour, Run: app.Groups.ExpireStale},
		boot.ExpiredJobsSweep(app.Jobs),
	)
	defer boot.StopScheduler()
	if err := boot.RecoverQueuedJobs(ctx, app.Jobs); err != nil {
		log.Printf("Could not recover queued jobs: %s\n", err.Error())
	}
	boot.InitBroker(ctx, app.Tasks)

	router := setupRouter(app, middlewares.AuthMiddleware)

	addr := ":" + config.Getenv("PORT", "9090")
	if os.Getenv("TLS_ENABLE") == "true" {
		cwd, _ := os.Getwd()
		certpath := path.Join(cwd, "certificates", "localhost.pem")
		keypath := path.Join(cwd, "certificates", "localhost-key.pem")
		if err := router.RunTLS(addr, certpath, keypath); err != nil {
			log.Fatalf("Failed to start server: %s", err)
		}
		return
	}
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}

package main

import (
	"log"
	"meetingroom/src/lib"
	"meetingroom/src/middlewares"
	"meetingroom/src/services"
	"meetingroom/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func authHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.
		POST("/register", func(ctx *gin.Context) {
			var body types.RegisterUserRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			user, err := app.Auth.Register(ctx.Request.Context(), services.RegisterInput{
				Email:    body.Email,
				Username: body.Username,
				FullName: body.FullName,
				Password: body.Password,
			})
			if err != nil {
				respondError(ctx, "Register", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": user})
		}).
		POST("/signup/confirm", func(ctx *gin.Context) {
			var body types.ConfirmSignupRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			if err := app.Auth.ConfirmSignup(ctx.Request.Context(), body.Email, body.Code); err != nil {
				respondError(ctx, "ConfirmSignup", err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/signup/resend", func(ctx *gin.Context) {
			var body types.ForgotPasswordRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			if err := app.Auth.ResendSignupCode(ctx.Request.Context(), body.Email); err != nil {
				respondError(ctx, "ResendSignupCode", err)
				return
			}
			ctx.Status(http.StatusAccepted)
		}).
		POST("/login", func(ctx *gin.Context) {
			var body types.LoginRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			token, user, err := app.Auth.Login(ctx.Request.Context(), body.Email, body.Password)
			if err != nil {
				respondError(ctx, "Login", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token, "user": user})
		}).
		POST("/token", func(ctx *gin.Context) {
			var body types.TokenExchangeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			token, user, err := app.Auth.ExchangeToken(ctx.Request.Context(), body.AccessToken)
			if err != nil {
				respondError(ctx, "ExchangeToken", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token, "user": user})
		}).
		POST("/password/forgot", func(ctx *gin.Context) {
			var body types.ForgotPasswordRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			if err := app.Auth.RequestPasswordReset(ctx.Request.Context(), body.Email); err != nil {
				respondError(ctx, "RequestPasswordReset", err)
				return
			}
			ctx.Status(http.StatusAccepted)
		}).
		POST("/password/reset", func(ctx *gin.Context) {
			var body types.ResetPasswordRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			if err := app.Auth.ResetPassword(ctx.Request.Context(), body.Email, body.Code, body.NewPassword); err != nil {
				respondError(ctx, "ResetPassword", err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

func sessionHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.
		POST("/auth/logout", func(ctx *gin.Context) {
			jti := ctx.GetString("jti")
			if err := lib.RevokeToken(ctx.Request.Context(), jti, middlewares.TokenTTL(ctx)); err != nil {
				log.Printf("[Logout] could not revoke token %s: %s\n", jti, err.Error())
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not revoke token"})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/auth/password", func(ctx *gin.Context) {
			var body types.ChangePasswordRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindError(ctx, err)
				return
			}
			if err := app.Auth.ChangePassword(ctx.Request.Context(), ctx.GetUint("id"), body.OldPassword, body.NewPassword); err != nil {
				respondError(ctx, "ChangePassword", err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

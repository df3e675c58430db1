package controllers

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"meetingroom/src/config"
	"meetingroom/src/lib"
	"meetingroom/src/models"
	"meetingroom/src/types"
	"meetingroom/src/utils"
	"net/http"
	"time"

	"github.com/grokify/go-pkce"
	"golang.org/x/oauth2"
)

const NonceTTL = time.Hour

// CalendarConnector stores the refresh token obtained at the end of the flow.
type CalendarConnector interface {
	ConnectCalendar(ctx context.Context, userID uint, refreshToken, calendarID string) (*models.User, error)
}

type codeExchanger func(ctx context.Context, conf *oauth2.Config, code, verifier string) (*oauth2.Token, error)

var exchangeCode codeExchanger = func(ctx context.Context, conf *oauth2.Config, code, verifier string) (*oauth2.Token, error) {
	return conf.Exchange(ctx, code, oauth2.SetAuthURLParam(pkce.ParamCodeVerifier, verifier))
}

func secretKey() ([]byte, error) {
	key, err := hex.DecodeString(config.API_SECRET)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, errors.New("API_SECRET must be 32 hex encoded bytes")
	}
	return key, nil
}

// CalendarConnectStart begins the Google authorization code flow with PKCE.
// The verifier is derived from a nonce kept in redis and the state is the
// encrypted Oauth2FlowState.
func CalendarConnectStart(ctx context.Context, userID uint, redirect string) (url string, status int, err error) {
	key, err := secretKey()
	if err != nil {
		log.Printf("Error while reading secret key: %s\n", err.Error())
		return "", http.StatusInternalServerError, err
	}
	hnonce, nonce, err := utils.RandomHex(32)
	if err != nil {
		return "", http.StatusInternalServerError, err
	}
	if err := lib.SetOAuthNonce(ctx, userID, hnonce, NonceTTL); err != nil {
		log.Printf("Could not save nonce: %s\n", err.Error())
		return "", http.StatusServiceUnavailable, err
	}

	cv := pkce.NewCodeVerifierBytes(nonce)
	cc := pkce.CodeChallengeS256(cv)

	b, err := json.Marshal(&types.Oauth2FlowState{
		AccountID: userID,
		Nonce:     hnonce,
		Redirect:  redirect,
	})
	if err != nil {
		return "", http.StatusInternalServerError, err
	}
	enc, err := utils.EncryptMessage(key, string(b))
	if err != nil {
		log.Printf("Error while encrypting message: %s\n", err.Error())
		return "", http.StatusInternalServerError, err
	}
	authurl := lib.GoogleOAuthConfig().AuthCodeURL(
		enc,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam(pkce.ParamCodeChallenge, cc),
		oauth2.SetAuthURLParam(pkce.ParamCodeChallengeMethod, pkce.MethodS256),
	)
	return authurl, http.StatusOK, nil
}

// CalendarConnectFinish validates the callback state against the pending
// nonce, exchanges the code and stores the refresh token. It returns the
// redirect the flow was started with.
func CalendarConnectFinish(ctx context.Context, users CalendarConnector, rawState, code string) (redirect string, status int, err error) {
	key, err := secretKey()
	if err != nil {
		log.Printf("Error while retrieving key: %s\n", err.Error())
		return "", http.StatusInternalServerError, err
	}
	dec, err := utils.DecryptMessage(key, rawState)
	if err != nil {
		log.Printf("Error while decrypting state: %s\n", err.Error())
		return "", http.StatusBadRequest, err
	}
	var state types.Oauth2FlowState
	if err := json.Unmarshal([]byte(*dec), &state); err != nil {
		return "", http.StatusBadRequest, err
	}
	dnonce, err := hex.DecodeString(state.Nonce)
	if err != nil {
		return "", http.StatusBadRequest, err
	}
	cache, err := lib.ConsumeOAuthNonce(ctx, state.AccountID)
	if err != nil {
		log.Printf("No pending authorization for user %d: %s\n", state.AccountID, err.Error())
		return "", http.StatusUnauthorized, err
	}
	nonce, err := hex.DecodeString(cache)
	if err != nil {
		return "", http.StatusInternalServerError, err
	}
	if subtle.ConstantTimeCompare(dnonce, nonce) != 1 {
		log.Println("Data mismatch: the supplied values do not match")
		return "", http.StatusUnauthorized, errors.New("access denied")
	}

	token, err := exchangeCode(ctx, lib.GoogleOAuthConfig(), code, pkce.NewCodeVerifierBytes(nonce))
	if err != nil {
		log.Printf("Error while exchanging authorization code for token: %s\n", err.Error())
		return "", http.StatusBadGateway, err
	}
	if _, err := users.ConnectCalendar(ctx, state.AccountID, token.RefreshToken, ""); err != nil {
		return "", http.StatusInternalServerError, err
	}
	return state.Redirect, http.StatusOK, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"meetingroom/src/models"
	"meetingroom/src/types"
	"testing"

	"github.com/stretchr/testify/suite"
)

type AuthServiceSuite struct {
	suite.Suite
	users  *memUserStore
	codes  *memCodeStore
	mailer *fakeMailer
	idp    *fakeIdentityProvider
	svc    *AuthService
	ctx    context.Context
}

func (s *AuthServiceSuite) SetupTest() {
	s.users = newMemUserStore()
	s.codes = &memCodeStore{}
	s.mailer = &fakeMailer{}
	s.idp = newFakeIdentityProvider()
	verifier := NewVerificationService(s.codes, s.mailer).WithClock(fixedClock(at(9, 0)))
	verifier.generate = func() (string, error) { return "123456", nil }
	issue := func(u *models.User) (string, error) { return fmt.Sprintf("token-%d", u.ID), nil }
	s.svc = NewAuthService(s.users, s.idp, verifier, issue).WithClock(fixedClock(at(9, 0)))
	s.ctx = context.Background()
}

func (s *AuthServiceSuite) register() *models.User {
	user, err := s.svc.Register(s.ctx, RegisterInput{Email: "Ada@Example.com", Username: "ada", FullName: "Ada Lovelace", Password: "engine-42"})
	s.Require().NoError(err)
	return user
}

func (s *AuthServiceSuite) TestRegister() {
	user := s.register()
	s.Equal("ada@example.com", user.Email)
	s.Equal(types.ROLE_USER, user.Role)
	s.Equal("sub-ada", user.CognitoSub)
	s.False(user.EmailVerified)
	s.Equal(1, s.idp.created)
	s.Require().Len(s.mailer.sent, 1)
	s.Contains(s.mailer.sent[0].Body, "123456")

	_, err := s.svc.Register(s.ctx, RegisterInput{Email: "ada@example.com", Username: "ada", Password: "engine-42"})
	var verr *ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Contains(verr.FieldErrors, "email")
	s.Contains(verr.FieldErrors, "username")
	s.Equal(1, s.idp.created, "duplicates never reach the identity provider")

	_, err = s.svc.Register(s.ctx, RegisterInput{Email: "bob@example.com", Username: "bob", Password: "short"})
	s.Require().True(errors.As(err, &verr))
	s.Contains(verr.FieldErrors, "password")
}

func (s *AuthServiceSuite) TestLoginRequiresVerifiedEmail() {
	s.register()

	_, _, err := s.svc.Login(s.ctx, "ada@example.com", "engine-42")
	s.ErrorIs(err, ErrForbidden)

	s.Require().NoError(s.svc.ConfirmSignup(s.ctx, "ada@example.com", "123456"))

	token, user, err := s.svc.Login(s.ctx, "ADA@example.com", "engine-42")
	s.Require().NoError(err)
	s.Equal(fmt.Sprintf("token-%d", user.ID), token)
	s.Require().NotNil(s.users.users[user.ID].LastActive)

	_, _, err = s.svc.Login(s.ctx, "ada@example.com", "wrong-password")
	s.ErrorIs(err, ErrUnauthorized)
	_, _, err = s.svc.Login(s.ctx, "nobody@example.com", "engine-42")
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *AuthServiceSuite) TestConfirmSignupWithBadCode() {
	s.register()
	err := s.svc.ConfirmSignup(s.ctx, "ada@example.com", "000000")
	var verr *ValidationError
	s.True(errors.As(err, &verr))
	s.False(s.users.users[1].EmailVerified)
}

func (s *AuthServiceSuite) TestResendSignupCode() {
	s.register()
	s.Require().NoError(s.svc.ResendSignupCode(s.ctx, "ada@example.com"))
	s.Len(s.mailer.sent, 2)

	s.Require().NoError(s.svc.ResendSignupCode(s.ctx, "nobody@example.com"))
	s.Len(s.mailer.sent, 2)
}

func (s *AuthServiceSuite) TestExchangeTokenCreatesAndLinks() {
	s.idp.tokens["google"] = &types.Identity{Subject: "google_123", Email: "grace@example.com", FullName: "Grace Hopper", GoogleID: "123", EmailVerified: true}

	token, user, err := s.svc.ExchangeToken(s.ctx, "google")
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.Equal("grace@example.com", user.Username)
	s.Equal("123", user.GoogleID)
	s.True(user.EmailVerified)

	_, again, err := s.svc.ExchangeToken(s.ctx, "google")
	s.Require().NoError(err)
	s.Equal(user.ID, again.ID)
	s.Len(s.users.users, 1)

	_, _, err = s.svc.ExchangeToken(s.ctx, "forged")
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *AuthServiceSuite) TestResolveUserLinksByEmail() {
	existing := s.register()
	user, err := s.svc.ResolveUser(s.ctx, &types.Identity{Subject: "google_9", Email: "ADA@example.com", GoogleID: "9", EmailVerified: true})
	s.Require().NoError(err)
	s.Equal(existing.ID, user.ID)
	s.Equal("google_9", user.CognitoSub)
	s.True(user.EmailVerified)

	_, err = s.svc.ResolveUser(s.ctx, &types.Identity{Subject: "anonymous"})
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *AuthServiceSuite) TestPasswordReset() {
	s.register()

	s.Require().NoError(s.svc.RequestPasswordReset(s.ctx, "nobody@example.com"))
	s.Len(s.mailer.sent, 1)

	s.Require().NoError(s.svc.RequestPasswordReset(s.ctx, "ada@example.com"))
	s.Require().Len(s.mailer.sent, 2)
	s.Equal("Your password reset code", s.mailer.sent[1].Subject)

	err := s.svc.ResetPassword(s.ctx, "ada@example.com", "123456", "short")
	var verr *ValidationError
	s.True(errors.As(err, &verr))

	s.Require().NoError(s.svc.ResetPassword(s.ctx, "ada@example.com", "123456", "new-engine-42"))
	s.Equal("new-engine-42", s.idp.passwords["ada"])

	err = s.svc.ResetPassword(s.ctx, "ada@example.com", "123456", "another-one")
	s.True(errors.As(err, &verr), "reset codes are single use")
}

func (s *AuthServiceSuite) TestChangePassword() {
	user := s.register()

	s.ErrorIs(s.svc.ChangePassword(s.ctx, user.ID, "wrong-password", "new-engine-42"), ErrUnauthorized)
	s.Require().NoError(s.svc.ChangePassword(s.ctx, user.ID, "engine-42", "new-engine-42"))
	s.Equal("new-engine-42", s.idp.passwords["ada"])
	s.ErrorIs(s.svc.ChangePassword(s.ctx, 404, "engine-42", "new-engine-42"), ErrUnauthorized)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"strings"
	"time"
)

// IdentityProvider is the external system that owns credentials.
type IdentityProvider interface {
	// Authenticate returns ErrUnauthorized when the credentials are rejected.
	Authenticate(ctx context.Context, username, password string) (*types.Identity, error)
	ValidateToken(ctx context.Context, accessToken string) (*types.Identity, error)
	CreateExternalAccount(ctx context.Context, email, username, password string) (string, error)
	SetPassword(ctx context.Context, username, password string) error
}

// TokenIssuer mints the application's own bearer tokens.
type TokenIssuer func(user *models.User) (string, error)

type RegisterInput struct {
	Email    string
	Username string
	FullName string
	Password string
}

type AuthService struct {
	users repository.UserStore
	idp   IdentityProvider
	codes *VerificationService
	issue TokenIssuer
	now   func() time.Time
}

func NewAuthService(users repository.UserStore, idp IdentityProvider, codes *VerificationService, issue TokenIssuer) *AuthService {
	return &AuthService{
		users: users,
		idp:   idp,
		codes: codes,
		issue: issue,
		now:   time.Now,
	}
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	v := NewValidationError()
	if email == "" {
		v.Add("email", "is required")
	}
	if username == "" {
		v.Add("username", "is required")
	}
	if len(in.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		v.Add("email", "is already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		v.Add("username", "is already taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	sub, err := s.idp.CreateExternalAccount(ctx, email, username, in.Password)
	if err != nil {
		return nil, fmt.Errorf("create external account: %w", err)
	}
	user := &models.User{
		Email:      email,
		Username:   username,
		FullName:   strings.TrimSpace(in.FullName),
		Role:       types.ROLE_USER,
		CognitoSub: sub,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.codes.Issue(ctx, email, types.CODE_SIGNUP_CONFIRMATION); err != nil {
		log.Printf("[Register] signup code for user %d not sent: %s\n", user.ID, err.Error())
	}
	return user, nil
}

func (s *AuthService) ConfirmSignup(ctx context.Context, email, code string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("code", "invalid or expired code")
	}
	if err != nil {
		return err
	}
	if err := s.codes.Consume(ctx, email, types.CODE_SIGNUP_CONFIRMATION, code); err != nil {
		return err
	}
	user.EmailVerified = true
	return s.users.Save(ctx, user)
}

func (s *AuthService) ResendSignupCode(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && user.EmailVerified) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.codes.Issue(ctx, user.Email, types.CODE_SIGNUP_CONFIRMATION)
}

// Login checks the password with the identity provider and returns an
// application token for the matching local user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrUnauthorized
	}
	if err != nil {
		return "", nil, err
	}
	ident, err := s.idp.Authenticate(ctx, user.Username, password)
	if err != nil {
		return "", nil, err
	}
	if !user.EmailVerified {
		return "", nil, fmt.Errorf("%w: email address is not verified", ErrForbidden)
	}
	if user.CognitoSub == "" && ident.Subject != "" {
		user.CognitoSub = ident.Subject
		if err := s.users.Save(ctx, user); err != nil {
			return "", nil, err
		}
	}
	return s.signIn(ctx, user)
}

// ExchangeToken trades a provider access token, including federated Google
// sign-ins, for an application token. Unknown identities get a local account.
func (s *AuthService) ExchangeToken(ctx context.Context, accessToken string) (string, *models.User, error) {
	ident, err := s.idp.ValidateToken(ctx, accessToken)
	if err != nil {
		return "", nil, err
	}
	user, err := s.ResolveUser(ctx, ident)
	if err != nil {
		return "", nil, err
	}
	return s.signIn(ctx, user)
}

// ResolveUser maps an external identity to a local user, linking by email
// when the subject is not known yet.
func (s *AuthService) ResolveUser(ctx context.Context, ident *types.Identity) (*models.User, error) {
	user, err := s.users.FindByCognitoSub(ctx, ident.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	email := strings.ToLower(ident.Email)
	user, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		user.CognitoSub = ident.Subject
		if ident.GoogleID != "" {
			user.GoogleID = ident.GoogleID
		}
		user.EmailVerified = user.EmailVerified || ident.EmailVerified
		if err := s.users.Save(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	if email == "" {
		return nil, ErrUnauthorized
	}
	username := ident.Username
	if username == "" {
		username = email
	}
	user = &models.User{
		Email:         email,
		Username:      username,
		FullName:      ident.FullName,
		Role:          types.ROLE_USER,
		CognitoSub:    ident.Subject,
		GoogleID:      ident.GoogleID,
		EmailVerified: ident.EmailVerified,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) signIn(ctx context.Context, user *models.User) (string, *models.User, error) {
	if err := s.users.TouchLastActive(ctx, user.ID, s.now()); err != nil {
		log.Printf("[Login] could not update last_active for user %d: %s\n", user.ID, err.Error())
	}
	token, err := s.issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return invalid("new_password", "must be at least 8 characters")
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if _, err := s.idp.Authenticate(ctx, user.Username, oldPassword); err != nil {
		return err
	}
	return s.idp.SetPassword(ctx, user.Username, newPassword)
}

// RequestPasswordReset mails a reset code. Unknown addresses succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("[PasswordReset] no account for %s\n", email)
		return nil
	}
	if err != nil {
		return err
	}
	return s.codes.Issue(ctx, user.Email, types.CODE_PASSWORD_RESET)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return invalid("new_password", "must be at least 8 characters")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("code", "invalid or expired code")
	}
	if err != nil {
		return err
	}
	if err := s.codes.Consume(ctx, email, types.CODE_PASSWORD_RESET, code); err != nil {
		return err
	}
	return s.idp.SetPassword(ctx, user.Username, newPassword)
}

package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"strings"
	"time"
)

const CodeTTL = 10 * time.Minute

// Mailer delivers a plain text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type VerificationService struct {
	codes    repository.CodeStore
	mailer   Mailer
	now      func() time.Time
	generate func() (string, error)
}

func NewVerificationService(codes repository.CodeStore, mailer Mailer) *VerificationService {
	return &VerificationService{
		codes:    codes,
		mailer:   mailer,
		now:      time.Now,
		generate: sixDigitCode,
	}
}

func (s *VerificationService) WithClock(now func() time.Time) *VerificationService {
	s.now = now
	return s
}

func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func codeSubject(purpose types.CodePurpose) string {
	if purpose == types.CODE_PASSWORD_RESET {
		return "Your password reset code"
	}
	return "Confirm your email address"
}

// Issue replaces any outstanding code for the email and purpose with a fresh
// one and mails it.
func (s *VerificationService) Issue(ctx context.Context, email string, purpose types.CodePurpose) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code, err := s.generate()
	if err != nil {
		return err
	}
	if err := s.codes.InvalidateCodes(ctx, email, purpose); err != nil {
		return err
	}
	vc := &models.VerificationCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(CodeTTL),
	}
	if err := s.codes.CreateCode(ctx, vc); err != nil {
		return err
	}
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(CodeTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, codeSubject(purpose), body); err != nil {
		log.Printf("[VerificationCode] could not mail code to %s: %s\n", email, err.Error())
		return err
	}
	return nil
}

// Consume accepts a code once. Unknown, used and expired codes all fail the same way.
func (s *VerificationService) Consume(ctx context.Context, email string, purpose types.CodePurpose, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	vc, err := s.codes.FindUsableCode(ctx, email, purpose, code, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("code", "invalid or expired code")
	}
	if err != nil {
		return err
	}
	err = s.codes.MarkUsed(ctx, vc.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("code", "invalid or expired code")
	}
	return err
}

func (s *VerificationService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.codes.PurgeCodes(ctx, s.now())
}

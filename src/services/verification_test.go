package services

import (
	"context"
	"errors"
	"meetingroom/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSixDigitCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := sixDigitCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}

func TestVerificationCodes(t *testing.T) {
	ctx := context.Background()
	now := at(9, 0)
	codes := &memCodeStore{}
	mailer := &fakeMailer{}
	svc := NewVerificationService(codes, mailer).WithClock(func() time.Time { return now })
	next := []string{"111111", "222222"}
	svc.generate = func() (string, error) {
		c := next[0]
		next = next[1:]
		return c, nil
	}

	require.NoError(t, svc.Issue(ctx, " Ada@Example.com ", types.CODE_PASSWORD_RESET))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "111111")
	assert.Equal(t, "Your password reset code", mailer.sent[0].Subject)

	require.NoError(t, svc.Issue(ctx, "ada@example.com", types.CODE_PASSWORD_RESET))

	var verr *ValidationError
	err := svc.Consume(ctx, "ada@example.com", types.CODE_PASSWORD_RESET, "111111")
	assert.True(t, errors.As(err, &verr), "reissuing invalidates the previous code")

	err = svc.Consume(ctx, "ada@example.com", types.CODE_SIGNUP_CONFIRMATION, "222222")
	assert.True(t, errors.As(err, &verr), "codes are bound to their purpose")

	require.NoError(t, svc.Consume(ctx, "ADA@example.com", types.CODE_PASSWORD_RESET, "222222"))
	err = svc.Consume(ctx, "ada@example.com", types.CODE_PASSWORD_RESET, "222222")
	assert.True(t, errors.As(err, &verr), "codes are single use")

	purged, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)
}

func TestVerificationCodeExpiry(t *testing.T) {
	ctx := context.Background()
	now := at(9, 0)
	codes := &memCodeStore{}
	svc := NewVerificationService(codes, &fakeMailer{}).WithClock(func() time.Time { return now })
	svc.generate = func() (string, error) { return "424242", nil }

	require.NoError(t, svc.Issue(ctx, "ada@example.com", types.CODE_SIGNUP_CONFIRMATION))
	now = now.Add(CodeTTL)

	var verr *ValidationError
	err := svc.Consume(ctx, "ada@example.com", types.CODE_SIGNUP_CONFIRMATION, "424242")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid or expired code", verr.FieldErrors["code"])
}

func TestVerificationCodeConsumedConcurrently(t *testing.T) {
	ctx := context.Background()
	now := at(9, 0)
	codes := &memCodeStore{}
	svc := NewVerificationService(contendedCodeStore{codes}, &fakeMailer{}).WithClock(func() time.Time { return now })
	svc.generate = func() (string, error) { return "515151", nil }

	require.NoError(t, svc.Issue(ctx, "ada@example.com", types.CODE_PASSWORD_RESET))

	var verr *ValidationError
	err := svc.Consume(ctx, "ada@example.com", types.CODE_PASSWORD_RESET, "515151")
	require.True(t, errors.As(err, &verr), "the losing request must not accept the code")
	assert.Equal(t, "invalid or expired code", verr.FieldErrors["code"])
	require.Len(t, codes.codes, 1)
	assert.True(t, codes.codes[0].Used)
}

func TestVerificationMailFailure(t *testing.T) {
	svc := NewVerificationService(&memCodeStore{}, &fakeMailer{err: errBoom})
	assert.ErrorIs(t, svc.Issue(context.Background(), "ada@example.com", types.CODE_PASSWORD_RESET), errBoom)
}

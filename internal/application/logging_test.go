package application

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swimref/roster/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := logging.Discard()
	assert.Same(t, custom, defaultLogger(custom))
	assert.Same(t, slog.Default(), defaultLogger(nil))
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.ContextWithLogger(context.Background(), ctxLogger)

	serviceLogger(ctx, logging.Discard(), "Store", "SubmitRSVP", "competition_id", "c1").Info("done")

	out := buf.String()
	assert.Contains(t, out, "service=Store")
	assert.Contains(t, out, "operation=SubmitRSVP")
	assert.Contains(t, out, "competition_id=c1")
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":                    nil,
		"not_found":           fmt.Errorf("load: %w", ErrNotFound),
		"duplicate_email":     ErrDuplicateEmail,
		"last_administrator":  ErrLastAdministrator,
		"account_pending":     ErrAccountPending,
		"invalid_credentials": ErrInvalidCredentials,
		"session_revoked":     ErrSessionRevoked,
		"canceled":            context.Canceled,
		"validation":          &ValidationError{FieldErrors: map[string]string{"name": "name is required"}},
		"unexpected":          fmt.Errorf("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, ErrorKind(err), "error %v", err)
	}
}

package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/testfixtures"
)

func TestNewAuthServiceValidatesConfig(t *testing.T) {
	_, err := application.NewAuthService(application.AuthServiceConfig{Secret: []byte("s")})
	assert.Error(t, err)

	r := newRoster(t, nil)
	_, err = application.NewAuthService(application.AuthServiceConfig{Accounts: r.store})
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a session and records the session user", func(t *testing.T) {
		r := newRoster(t, nil)
		auth := r.factory.NewAuthService(t, r.store, time.Hour)

		issuedAt := r.factory.Clock.Current()
		result, err := auth.Authenticate(ctx, " RUI@natacao.pt ", testfixtures.SeedPassword)
		require.NoError(t, err)
		assert.Equal(t, r.refA.ID, result.User.ID)
		assert.NotEmpty(t, result.Session.Token)
		assert.Equal(t, issuedAt.Add(time.Hour), result.Session.ExpiresAt)

		session, ok := r.store.SessionUser(ctx)
		require.True(t, ok)
		assert.Equal(t, r.refA.ID, session.ID)

		principal, err := auth.ValidateSession(ctx, result.Session.Token)
		require.NoError(t, err)
		assert.Equal(t, application.Principal{UserID: r.refA.ID, Role: application.RoleReferee}, principal)
	})

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "wrong password", email: "rui@natacao.pt", password: "errada", want: application.ErrInvalidCredentials},
		{name: "unknown email", email: "ninguem@natacao.pt", password: testfixtures.SeedPassword, want: application.ErrInvalidCredentials},
		{name: "empty credentials", email: "", password: "", want: application.ErrInvalidCredentials},
		{name: "pending account", email: "pedro@natacao.pt", password: testfixtures.SeedPassword, want: application.ErrAccountPending},
		{name: "pending account with wrong password", email: "pedro@natacao.pt", password: "errada", want: application.ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRoster(t, nil)
			auth := r.factory.NewAuthService(t, r.store, time.Hour)

			_, err := auth.Authenticate(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.want)
			_, ok := r.store.SessionUser(ctx)
			assert.False(t, ok)
		})
	}
}

func TestValidateSession(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T) (*roster, *application.AuthService, string) {
		t.Helper()
		r := newRoster(t, nil)
		auth := r.factory.NewAuthService(t, r.store, time.Hour)
		result, err := auth.Authenticate(ctx, "rui@natacao.pt", testfixtures.SeedPassword)
		require.NoError(t, err)
		return r, auth, result.Session.Token
	}

	t.Run("expired", func(t *testing.T) {
		r, auth, token := login(t)
		r.factory.Clock.Advance(2 * time.Hour)

		_, err := auth.ValidateSession(ctx, token)
		assert.ErrorIs(t, err, application.ErrSessionExpired)
	})

	t.Run("revoked", func(t *testing.T) {
		r, auth, token := login(t)

		require.NoError(t, auth.RevokeSession(ctx, token))
		_, err := auth.ValidateSession(ctx, token)
		assert.ErrorIs(t, err, application.ErrSessionRevoked)
		_, ok := r.store.SessionUser(ctx)
		assert.False(t, ok)
	})

	t.Run("role follows the user record", func(t *testing.T) {
		r, auth, token := login(t)
		_, err := r.store.ChangeRole(ctx, r.refA.ID, application.RoleAdministrator)
		require.NoError(t, err)

		principal, err := auth.ValidateSession(ctx, token)
		require.NoError(t, err)
		assert.True(t, principal.IsAdmin())
	})

	t.Run("deleted user", func(t *testing.T) {
		r, auth, token := login(t)
		require.NoError(t, r.store.DeleteUser(ctx, r.refA.ID))

		_, err := auth.ValidateSession(ctx, token)
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, auth, _ := login(t)

		_, err := auth.ValidateSession(ctx, "not-a-token")
		assert.ErrorIs(t, err, application.ErrUnauthorized)
		_, err = auth.ValidateSession(ctx, "  ")
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})

	t.Run("foreign signature", func(t *testing.T) {
		r, auth, _ := login(t)
		claims := jwt.RegisteredClaims{
			Subject:   r.refA.ID,
			ExpiresAt: jwt.NewNumericDate(r.factory.Clock.Current().Add(time.Hour)),
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		_, err = auth.ValidateSession(ctx, forged)
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})
}

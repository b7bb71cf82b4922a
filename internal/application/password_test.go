package application_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/testfixtures"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := application.CreatePasswordHash("piscina-olimpica", testfixtures.FastArgon2idParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.NoError(t, application.VerifyPassword(hash, "piscina-olimpica"))
	assert.ErrorIs(t, application.VerifyPassword(hash, "piscina"), application.ErrInvalidCredentials)

	other, err := application.CreatePasswordHash("piscina-olimpica", testfixtures.FastArgon2idParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	cases := []struct {
		encoded string
		want    error
	}{
		{encoded: "", want: application.ErrInvalidPasswordHash},
		{encoded: "plain-text", want: application.ErrInvalidPasswordHash},
		{encoded: "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5", want: application.ErrInvalidPasswordHash},
		{encoded: "$argon2id$v=18$m=1,t=1,p=1$c2FsdA$a2V5", want: application.ErrIncompatiblePasswordVersion},
		{encoded: "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5", want: application.ErrInvalidPasswordHash},
		{encoded: "$argon2id$v=19$m=1,t=1,p=1$c2FsdA$", want: application.ErrInvalidPasswordHash},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, application.VerifyPassword(tc.encoded, "x"), tc.want, "hash %q", tc.encoded)
	}
}

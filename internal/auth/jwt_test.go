package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucaspires-source/authdash/internal/auth"
)

func TestSignParse_RoundTrip(t *testing.T) {
	secret, err := auth.DecodeSecret("")
	require.NoError(t, err)
	id := auth.NewProfileID()

	tok, err := auth.SignHS256(secret, id, time.Hour)
	require.NoError(t, err)

	cl, err := auth.ParseHS256(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, id, cl.ProfileID)
	assert.Equal(t, auth.DefaultIssuer, cl.Issuer)
}

func TestParse_Rejects(t *testing.T) {
	secret, _ := auth.DecodeSecret("first-secret-value")
	other, _ := auth.DecodeSecret("second-secret-value")
	id := auth.NewProfileID()

	tok, err := auth.SignHS256(secret, id, time.Hour)
	require.NoError(t, err)
	_, err = auth.ParseHS256(other, tok)
	assert.Error(t, err)

	expired, err := auth.SignHS256(secret, id, -time.Hour)
	require.NoError(t, err)
	_, err = auth.ParseHS256(secret, expired)
	assert.Error(t, err)

	notUUID, err := auth.SignHS256(secret, "alice", time.Hour)
	require.NoError(t, err)
	_, err = auth.ParseHS256(secret, notUUID)
	assert.ErrorIs(t, err, auth.ErrInvalidProfile)

	_, err = auth.ParseHS256(secret, "garbage")
	assert.Error(t, err)
}

func TestDecodeSecret(t *testing.T) {
	short, err := auth.DecodeSecret("abc")
	require.NoError(t, err)
	assert.Len(t, short, 16)

	b64, err := auth.NewRandomSecretB64(32)
	require.NoError(t, err)
	raw, err := auth.DecodeSecret(b64)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	a, _ := auth.DecodeSecret("")
	b, _ := auth.DecodeSecret("")
	assert.NotEqual(t, a, b)
}

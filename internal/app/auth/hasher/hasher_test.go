package hasher

import (
	"testing"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// small parameters keep the suite fast
var testParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHasher_RoundTrip(t *testing.T) {
	h := New(testParams, "pepper")

	hash, err := h.Hash("Secret123")
	require.NoError(t, err)
	require.NotContains(t, hash, "Secret123")
	require.False(t, h.NeedsUpgrade(hash))

	ok, err := h.Verify("Secret123", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Verify("secret123", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasher_Salted(t *testing.T) {
	h := New(testParams, "")
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHasher_PepperMatters(t *testing.T) {
	hash, err := New(testParams, "one").Hash("pw")
	require.NoError(t, err)

	ok, err := New(testParams, "two").Verify("pw", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasher_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	h := New(testParams, "pepper")
	require.True(t, h.NeedsUpgrade(string(legacy)))

	ok, err := h.Verify("password", string(legacy))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Verify("wrong", string(legacy))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasher_GarbageHash(t *testing.T) {
	h := New(testParams, "")
	_, err := h.Verify("pw", "not-a-hash")
	require.Error(t, err)
	require.True(t, customErrors.IsInternal(err))
}

func TestNew_DefaultParams(t *testing.T) {
	require.Equal(t, DefaultParams, New(nil, "").params)
}

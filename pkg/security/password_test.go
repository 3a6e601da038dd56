package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, IsBcryptHash(hash))

	assert.NoError(t, hasher.Compare(hash, "correct horse"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong horse"), ErrMismatch)
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestCompareRejectsPlaintextCredential(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	// A legacy row storing the password itself must not authenticate.
	err := hasher.Compare("senha123", "senha123")
	assert.ErrorIs(t, err, ErrNotHashed)
}

func TestIsBcryptHash(t *testing.T) {
	assert.False(t, IsBcryptHash(""))
	assert.False(t, IsBcryptHash("$2a$10$tooshort"))
	assert.True(t, IsBcryptHash("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"))
}

func TestRehashIgnoresLengthPolicy(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Rehash("1234")
	require.NoError(t, err)
	assert.NoError(t, hasher.Compare(hash, "1234"))
}

package auth

import (
	"strings"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Cheap params keep tests fast
var testArgonParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{Cost: bcrypt.MinCost}

	t.Run("hash password", func(t *testing.T) {
		got, err := h.Hash("password")
		require.NoError(t, err)

		require.Len(t, got, 60, "bcrypt length is 60 letters as far as i know")
		require.Equal(t, "$2a$", got[:4], "bcrypt has should have prefix '$2a$'")
	})

	t.Run("hash is salted", func(t *testing.T) {
		first, err := h.Hash("password")
		require.NoError(t, err)
		second, err := h.Hash("password")
		require.NoError(t, err)

		require.NotEqual(t, first, second)
	})

	t.Run("compare password ok", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "password")

		require.NoError(t, err)
	})

	t.Run("long passwords are not truncated", func(t *testing.T) {
		long := strings.Repeat("a", 80)
		hash, err := h.Hash(long + "1")
		require.NoError(t, err)

		err = h.Compare(hash, long+"2")

		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("fail compare if wrong password", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "wrong")

		require.ErrorIs(t, err, ErrPasswordMismatch)
	})
}

func Test_Argon2idHasher(t *testing.T) {
	t.Parallel()

	h := Argon2idHasher{Params: testArgonParams}

	hash, err := h.Hash("password")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	require.NoError(t, h.Compare(hash, "password"))
	require.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
	require.Error(t, h.Compare("not-a-hash", "password"))
}

func Test_MultiHasher(t *testing.T) {
	t.Parallel()

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := NewHasher("md5")

		require.Error(t, err)
	})

	t.Run("compares any known hash", func(t *testing.T) {
		h, err := NewHasher(HasherArgon2id)
		require.NoError(t, err)
		h.argon2id = Argon2idHasher{Params: testArgonParams}
		h.primary = h.argon2id

		bcryptHash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("password")
		require.NoError(t, err)
		argonHash, err := h.Hash("password")
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(argonHash, "$argon2id$"), "new hashes use primary algorithm")
		require.NoError(t, h.Compare(bcryptHash, "password"), "old bcrypt hashes keep working")
		require.NoError(t, h.Compare(argonHash, "password"))
		require.ErrorIs(t, h.Compare(bcryptHash, "wrong"), ErrPasswordMismatch)
	})
}

package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "regular password", password: "password123"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "max length password", password: strings.Repeat("a", MaxLength)},
		{name: "too long password", password: strings.Repeat("a", MaxLength+1), wantErr: ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NoError(t, CompareHash(hash, tt.password))
		})
	}
}

func TestCompareHash(t *testing.T) {
	correctHash, err := GetHash("correct_password")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
	}{
		{name: "matching password", hash: correctHash, password: "correct_password"},
		{name: "wrong password", hash: correctHash, password: "wrong_password", wantErr: ErrMismatch},
		{name: "empty password", hash: correctHash, password: "", wantErr: ErrMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareHash(tt.hash, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCompareHash_BrokenHash(t *testing.T) {
	err := CompareHash("not-a-bcrypt-hash", "password")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestGetHash_SaltedHashes(t *testing.T) {
	first, err := GetHash("password")
	require.NoError(t, err)
	second, err := GetHash("password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

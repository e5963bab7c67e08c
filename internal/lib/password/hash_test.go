package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

func TestGetHash(t *testing.T) {
	for _, secret := range []string{"password123", "p@ssw0rd!@#$%^&*()", "mật khẩu", "short"} {
		t.Run(secret, func(t *testing.T) {
			hash, err := GetHash(secret)
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, secret, hash)
			assert.NoError(t, CompareHash(hash, secret))
		})
	}
}

func TestCompareHash(t *testing.T) {
	hash, err := GetHash("correct_password")
	require.NoError(t, err)

	tests := []struct {
		name    string
		hash    string
		secret  string
		wantErr error
	}{
		{name: "match", hash: hash, secret: "correct_password"},
		{name: "mismatch", hash: hash, secret: "wrong", wantErr: models.ErrUnauthorized},
		{name: "empty secret", hash: hash, secret: "", wantErr: models.ErrUnauthorized},
		{name: "not configured", hash: "", secret: "x", wantErr: models.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareHash(tt.hash, tt.secret)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	err = CompareHash("not-a-bcrypt-hash", "x")
	assert.Error(t, err)
}

func TestGetHash_Salted(t *testing.T) {
	a, err := GetHash("same")
	require.NoError(t, err)
	b, err := GetHash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

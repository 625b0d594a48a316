package credstore

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	store := New(keyring.NewArrayKeyring(nil), DefaultKey)

	_, err := store.Get()
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, store.Set("token-abc:secret"))

	token, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "token-abc:secret", token)

	require.NoError(t, store.Set("token-def:other"))
	token, err = store.Get()
	require.NoError(t, err)
	assert.Equal(t, "token-def:other", token)
}

func TestSetRejectsInvalidToken(t *testing.T) {
	kr := keyring.NewArrayKeyring(nil)
	store := New(kr, DefaultKey)

	assert.ErrorIs(t, store.Set("kubeconfig-u-abc"), ErrInvalidToken)

	keys, err := kr.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		token   string
		wantErr bool
	}{
		{token: "token-abc:secret"},
		{token: "token-", wantErr: false},
		{token: "", wantErr: true},
		{token: "Token-abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			err := ValidateToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
		})
	}
}

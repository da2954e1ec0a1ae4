package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncryptDecryptPayKey(t *testing.T) {
	signKey, err := GenerateSignKey()
	assert.NoError(t, err)
	assert.Len(t, signKey, 32)

	encrypted, err := EncryptPayKey(signKey, "123456")
	assert.NoError(t, err)
	assert.NotEmpty(t, encrypted)
	assert.NotContains(t, encrypted, "123456")

	decrypted, err := DecryptPayKey(signKey, encrypted)
	assert.NoError(t, err)
	assert.Equal(t, "123456", decrypted)

	// nonce is random, two encryptions of the same PIN differ
	again, err := EncryptPayKey(signKey, "123456")
	assert.NoError(t, err)
	assert.NotEqual(t, encrypted, again)
}

func TestDecryptPayKeyFailures(t *testing.T) {
	signKey, err := GenerateSignKey()
	assert.NoError(t, err)
	encrypted, err := EncryptPayKey(signKey, "123456")
	assert.NoError(t, err)

	otherKey, err := GenerateSignKey()
	assert.NoError(t, err)
	_, err = DecryptPayKey(otherKey, encrypted)
	assert.Error(t, err)

	_, err = DecryptPayKey(signKey, "not-base64!!")
	assert.Error(t, err)

	_, err = DecryptPayKey(signKey, "AAAA") // shorter than a nonce
	assert.Error(t, err)
}

func TestVerifyPayKey(t *testing.T) {
	signKey, err := GenerateSignKey()
	assert.NoError(t, err)
	encrypted, err := EncryptPayKey(signKey, "123456")
	assert.NoError(t, err)

	assert.True(t, VerifyPayKey(signKey, encrypted, "123456"))
	assert.False(t, VerifyPayKey(signKey, encrypted, "654321"))
	assert.False(t, VerifyPayKey(signKey, "", "123456"))
}

func TestGenerateRandomString(t *testing.T) {
	s, err := GenerateRandomString(16)
	assert.NoError(t, err)
	assert.Len(t, s, 16)

	odd, err := GenerateRandomString(15)
	assert.NoError(t, err)
	assert.Len(t, odd, 15)
}

func TestGenerateRandomString_ErrorBranch(t *testing.T) {
	orig := randomRead
	t.Cleanup(func() { randomRead = orig })

	randomRead = func([]byte) (int, error) {
		return 0, errors.New("rand failed")
	}
	_, err := GenerateRandomString(16)
	assert.Error(t, err)
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	signKeyLength = 32
	kdfIterations = 4096
	kdfSalt       = "credit-pay-key-v1"
)

var randomRead = rand.Read

// GenerateSignKey generates a per-wallet secret used to derive the PIN
// encryption key (32 hex chars).
func GenerateSignKey() (string, error) {
	return GenerateRandomString(signKeyLength)
}

// GenerateRandomString generates a random hex string of the given length
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length/2+1)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random string: %w", err)
	}
	return hex.EncodeToString(bytes)[:length], nil
}

func deriveKey(signKey string) []byte {
	return pbkdf2.Key([]byte(signKey), []byte(kdfSalt), kdfIterations, 32, sha256.New)
}

// EncryptPayKey encrypts a payment PIN with AES-256-GCM under a key derived
// from the wallet's sign key. Output is base64(nonce || ciphertext || tag).
func EncryptPayKey(signKey, payKey string) (string, error) {
	block, err := aes.NewCipher(deriveKey(signKey))
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(payKey), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptPayKey reverses EncryptPayKey.
func DecryptPayKey(signKey, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(deriveKey(signKey))
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// VerifyPayKey checks an entered PIN against the stored encrypted blob in
// constant time.
func VerifyPayKey(signKey, encryptedPayKey, input string) bool {
	if encryptedPayKey == "" {
		return false
	}
	decrypted, err := DecryptPayKey(signKey, encryptedPayKey)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(decrypted), []byte(input)) == 1
}

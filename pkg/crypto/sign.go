package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// canonicalize joins the filtered params as "k=v" pairs sorted by key with
// "&". Keys "sign"/"sign_type" are always excluded; empty values are
// excluded only when skipEmpty is set. The legacy protocol keeps empty
// values when signing outbound notifications but drops them when checking
// inbound submissions.
func canonicalize(params map[string]string, skipEmpty bool) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "sign" || k == "sign_type" || k == "signature" {
			continue
		}
		if skipEmpty && v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}

// SignMD5 computes the legacy gateway signature: sorted "k=v" pairs joined
// by "&" with the secret appended, MD5, lowercase hex.
func SignMD5(params map[string]string, secret string) string {
	sum := md5.Sum([]byte(canonicalize(params, false) + secret))
	return hex.EncodeToString(sum[:])
}

// VerifyMD5 verifies a legacy signature, case-insensitive, in constant time.
// Empty-valued params are ignored so optional fields a merchant left blank
// do not change the digest.
func VerifyMD5(params map[string]string, secret, signature string) bool {
	sum := md5.Sum([]byte(canonicalize(params, true) + secret))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

// SignHMAC computes the JSON gateway signature: HMAC-SHA256 over the sorted
// "k=v" canonical string, hex encoded.
func SignHMAC(params map[string]string, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(canonicalize(params, false)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC verifies a JSON gateway signature in constant time.
func VerifyHMAC(params map[string]string, secretKey, signature string) bool {
	expected := SignHMAC(params, secretKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// GenerateTransactionID generates a public payment transaction id.
func GenerateTransactionID() (string, error) {
	s, err := GenerateRandomString(32)
	if err != nil {
		return "", err
	}
	return "txn_" + s, nil
}

// GenerateClientID generates a merchant client id.
func GenerateClientID() (string, error) {
	s, err := GenerateRandomString(32)
	if err != nil {
		return "", err
	}
	return "pay_" + s, nil
}

// GenerateClientSecret generates a merchant client secret.
func GenerateClientSecret() (string, error) {
	return GenerateRandomString(48)
}

// GenerateToken generates a merchant API token.
func GenerateToken() (string, error) {
	s, err := GenerateRandomString(32)
	if err != nil {
		return "", err
	}
	return "tk_" + s, nil
}

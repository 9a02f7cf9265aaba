package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const (
	DefaultTokenLength = 32 // 256 bits
)

// TokenPair is an opaque bearer token and the digest kept in storage.
// Only Hash is ever persisted; Token goes to the client once.
type TokenPair struct {
	Token string
	Hash  string
}

func randomToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewTokenPair issues a fresh session token with DefaultTokenLength bytes
// of entropy.
func NewTokenPair() (*TokenPair, error) {
	token, err := randomToken(DefaultTokenLength)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		Token: token,
		Hash:  HashToken(token),
	}, nil
}

// HashToken is the lookup key for a raw token in every session store.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

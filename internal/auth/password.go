package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	AlgorithmHMACSHA512 = "hmac-sha512"
	AlgorithmBlake2b    = "blake2b"

	hmacKeySize    = 128
	blake2bKeySize = 64
	blake2bPrefix  = "blake2b$"
)

// PasswordHasher produces and checks keyed password digests. Every Hash call
// draws a fresh random key.
type PasswordHasher interface {
	Hash(password string) (digest, key string, err error)
	Verify(password, digest, key string) bool
}

// HMACHasher keys HMAC-SHA512 with a 128-byte random key. Its digests match the
// format already stored for existing customers.
type HMACHasher struct{}

func (HMACHasher) Hash(password string) (string, string, error) {
	key, err := randomKey(hmacKeySize)
	if err != nil {
		return "", "", err
	}
	return encode(hmacDigest(key, password)), encode(key), nil
}

func (HMACHasher) Verify(password, digest, key string) bool {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(raw) == 0 {
		return false
	}
	return equalDigest(encode(hmacDigest(raw, password)), digest)
}

func hmacDigest(key []byte, password string) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// Blake2bHasher uses BLAKE2b-512 in keyed mode. Digests carry a "blake2b$"
// prefix so they can be told apart from HMAC digests.
type Blake2bHasher struct{}

func (Blake2bHasher) Hash(password string) (string, string, error) {
	key, err := randomKey(blake2bKeySize)
	if err != nil {
		return "", "", err
	}
	sum, err := blake2bDigest(key, password)
	if err != nil {
		return "", "", err
	}
	return blake2bPrefix + encode(sum), encode(key), nil
}

func (Blake2bHasher) Verify(password, digest, key string) bool {
	if !strings.HasPrefix(digest, blake2bPrefix) {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(raw) == 0 {
		return false
	}
	sum, err := blake2bDigest(raw, password)
	if err != nil {
		return false
	}
	return equalDigest(blake2bPrefix+encode(sum), digest)
}

func blake2bDigest(key []byte, password string) ([]byte, error) {
	h, err := blake2b.New512(key)
	if err != nil {
		return nil, fmt.Errorf("init blake2b: %w", err)
	}
	h.Write([]byte(password))
	return h.Sum(nil), nil
}

// MultiHasher hashes with Primary and verifies with whichever algorithm
// produced the stored digest.
type MultiHasher struct {
	Primary PasswordHasher
}

// NewPasswordHasher returns a MultiHasher whose primary algorithm is named by
// algorithm.
func NewPasswordHasher(algorithm string) (*MultiHasher, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmHMACSHA512:
		return &MultiHasher{Primary: HMACHasher{}}, nil
	case AlgorithmBlake2b:
		return &MultiHasher{Primary: Blake2bHasher{}}, nil
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}
}

func (m *MultiHasher) Hash(password string) (string, string, error) {
	return m.Primary.Hash(password)
}

func (m *MultiHasher) Verify(password, digest, key string) bool {
	if strings.HasPrefix(digest, blake2bPrefix) {
		return Blake2bHasher{}.Verify(password, digest, key)
	}
	return HMACHasher{}.Verify(password, digest, key)
}

func randomKey(size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate password key: %w", err)
	}
	return key, nil
}

func encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func equalDigest(computed, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1
}

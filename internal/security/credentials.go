package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
)

const (
	accessCodeLen      = 6
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	saltBytes          = 16
)

// ErrPasswordMismatch is returned by Rotate when the old secret does not verify.
var ErrPasswordMismatch = errors.New("the entered password does not match the current password")

// Engine generates salts and access codes and derives password hashes with a Digest.
// Callers must not log or persist plaintext secrets. Engine is safe for concurrent use
// when its random source is.
type Engine struct {
	digest Digest
	rand   io.Reader
}

// NewEngine returns an Engine using digest and crypto/rand. A nil digest selects MD5.
func NewEngine(digest Digest) *Engine {
	return NewEngineWithRand(digest, rand.Reader)
}

// NewEngineWithRand is NewEngine with an explicit random source, for tests.
func NewEngineWithRand(digest Digest, r io.Reader) *Engine {
	if digest == nil {
		digest = MD5Digest{}
	}
	return &Engine{digest: digest, rand: r}
}

// Digest returns the configured digest.
func (e *Engine) Digest() Digest { return e.digest }

// GenerateAccessCode returns a 6-character code drawn uniformly from [A-Za-z0-9].
func (e *Engine) GenerateAccessCode() (string, error) {
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	code := make([]byte, accessCodeLen)
	for i := range code {
		n, err := rand.Int(e.rand, max)
		if err != nil {
			return "", err
		}
		code[i] = accessCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// GenerateSalt returns 16 random bytes, hex-encoded.
func (e *Engine) GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := io.ReadFull(e.rand, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Derive returns the digest of salt and secret.
func (e *Engine) Derive(salt, secret string) string {
	return e.digest.Sum(salt, secret)
}

// Verify reports whether candidate derives to hash under salt, using constant-time comparison.
func (e *Engine) Verify(salt, hash, candidate string) bool {
	got := e.Derive(salt, candidate)
	return subtle.ConstantTimeCompare([]byte(got), []byte(hash)) == 1
}

// Rotate returns the hash of newSecret when oldSecret verifies against hash, otherwise
// ErrPasswordMismatch.
func (e *Engine) Rotate(oldSecret, newSecret, salt, hash string) (string, error) {
	if !e.Verify(salt, hash, oldSecret) {
		return "", ErrPasswordMismatch
	}
	return e.Derive(salt, newSecret), nil
}

// Reset generates a new access code and returns it with its hash under salt.
func (e *Engine) Reset(salt string) (code, hash string, err error) {
	code, err = e.GenerateAccessCode()
	if err != nil {
		return "", "", err
	}
	return code, e.Derive(salt, code), nil
}

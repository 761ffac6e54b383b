package security

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Digest names accepted by DigestByName.
const (
	DigestMD5      = "md5"
	DigestArgon2ID = "argon2id"
)

// Digest turns a salt and secret into a 32-character lower-case hex string. Implementations must
// be deterministic.
type Digest interface {
	Name() string
	Sum(salt, secret string) string
}

// MD5Digest hashes salt followed by secret with MD5. It matches credentials produced by older
// deployments and CSV exports, and is the default.
type MD5Digest struct{}

func (MD5Digest) Name() string { return DigestMD5 }

func (MD5Digest) Sum(salt, secret string) string {
	sum := md5.Sum([]byte(salt + secret))
	return hex.EncodeToString(sum[:])
}

// Argon2Digest derives a 16-byte argon2id key from secret using salt.
type Argon2Digest struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// NewArgon2Digest returns an Argon2Digest with time=1, memory=64MiB, threads=4.
func NewArgon2Digest() Argon2Digest {
	return Argon2Digest{Time: 1, Memory: 64 * 1024, Threads: 4}
}

func (Argon2Digest) Name() string { return DigestArgon2ID }

func (d Argon2Digest) Sum(salt, secret string) string {
	key := argon2.IDKey([]byte(secret), []byte(salt), d.Time, d.Memory, d.Threads, hashBytes)
	return hex.EncodeToString(key)
}

const hashBytes = 16

// DigestByName returns the Digest registered under name. An empty name selects MD5.
func DigestByName(name string) (Digest, error) {
	switch name {
	case "", DigestMD5:
		return MD5Digest{}, nil
	case DigestArgon2ID:
		return NewArgon2Digest(), nil
	default:
		return nil, fmt.Errorf("unknown password digest %q", name)
	}
}

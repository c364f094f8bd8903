package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Algorithm hashes passwords with argon2id, encoded in the standard
// PHC string format: $argon2id$v=19$m=...,t=...,p=...$salt$hash
type Argon2Algorithm struct {
	SaltLength  int
	KeyLength   uint32
	Parallelism uint8
	Memory      uint32 // KiB
	Iterations  uint32
}

// NewArgon2Algorithm creates an argon2id algorithm with 16-byte salts,
// 32-byte keys, 64MiB of memory and 3 iterations
func NewArgon2Algorithm() *Argon2Algorithm {
	return &Argon2Algorithm{
		SaltLength:  16,
		KeyLength:   32,
		Parallelism: 1,
		Memory:      64 * 1024,
		Iterations:  3,
	}
}

// Hash encodes plaintext with a fresh random salt
func (a *Argon2Algorithm) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.Memory, a.Iterations, a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Matches compares plaintext against an encoded argon2id hash using the
// parameters embedded in the hash itself. Malformed hashes compare as
// non-matching, never as an error.
func (a *Argon2Algorithm) Matches(plaintext, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	key := argon2.IDKey([]byte(plaintext), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1
}

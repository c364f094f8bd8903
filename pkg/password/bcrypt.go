package password

import "golang.org/x/crypto/bcrypt"

// BcryptAlgorithm hashes passwords with bcrypt
type BcryptAlgorithm struct {
	Cost int
}

// NewBcryptAlgorithm creates a bcrypt algorithm with the default cost
func NewBcryptAlgorithm() *BcryptAlgorithm {
	return &BcryptAlgorithm{Cost: bcrypt.DefaultCost}
}

// Hash encodes plaintext with a fresh random salt
func (a *BcryptAlgorithm) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), a.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Matches compares plaintext against an encoded bcrypt hash. Malformed hashes
// compare as non-matching, never as an error.
func (a *BcryptAlgorithm) Matches(plaintext, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) == nil
}

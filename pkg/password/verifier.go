package password

import "fmt"

// Algorithm ids registered by default
const (
	AlgorithmBcrypt = "bcrypt"
	AlgorithmArgon2 = "argon2"
)

// Algorithm is a hashing capability pair: one-way hash plus comparison
type Algorithm interface {
	// Hash encodes plaintext into a salted hash string
	Hash(plaintext string) (string, error)
	// Matches reports whether plaintext corresponds to the encoded hash.
	// Malformed encoded values compare as non-matching.
	Matches(plaintext, encoded string) bool
}

// Verifier encodes and verifies credentials through a static registry of
// algorithms. Encoding always uses the default algorithm; verification
// dispatches on the stored hash's tag and falls back to the legacy algorithm
// for untagged or unrecognized hashes.
type Verifier struct {
	defaultID  string
	algorithms map[string]Algorithm
	legacy     Algorithm
}

// NewVerifier creates a verifier. The default id must be registered; the
// legacy algorithm handles hashes with no recognizable tag.
func NewVerifier(defaultID string, algorithms map[string]Algorithm, legacy Algorithm) (*Verifier, error) {
	if len(algorithms) == 0 {
		return nil, fmt.Errorf("at least one algorithm is required")
	}
	if _, ok := algorithms[defaultID]; !ok {
		return nil, fmt.Errorf("default algorithm %q is not registered", defaultID)
	}
	if legacy == nil {
		return nil, fmt.Errorf("legacy algorithm is required")
	}
	return &Verifier{
		defaultID:  defaultID,
		algorithms: algorithms,
		legacy:     legacy,
	}, nil
}

// NewDefaultVerifier creates the standard verifier: bcrypt as default and
// legacy fallback, argon2id registered for verification of migrated hashes
func NewDefaultVerifier() *Verifier {
	v, err := NewVerifier(AlgorithmBcrypt, map[string]Algorithm{
		AlgorithmBcrypt: NewBcryptAlgorithm(),
		AlgorithmArgon2: NewArgon2Algorithm(),
	}, NewBcryptAlgorithm())
	if err != nil {
		// Static registry; cannot fail
		panic(err)
	}
	return v
}

// DefaultAlgorithmID returns the id used by Encode
func (v *Verifier) DefaultAlgorithmID() string {
	return v.defaultID
}

// Encode hashes plaintext with the default algorithm. The result is salted,
// so repeated calls yield different encodings that all verify.
func (v *Verifier) Encode(plaintext string) (CredentialHash, error) {
	encoded, err := v.algorithms[v.defaultID].Hash(plaintext)
	if err != nil {
		return CredentialHash{}, fmt.Errorf("failed to encode credential: %w", err)
	}
	return CredentialHash{AlgorithmID: v.defaultID, Encoded: encoded}, nil
}

// Verify reports whether plaintext matches the stored hash. Hashes with an
// unrecognized or missing tag are checked against the legacy algorithm using
// the raw stored string, so pre-migration credentials keep working.
func (v *Verifier) Verify(plaintext string, stored CredentialHash) bool {
	if alg, ok := v.algorithms[stored.AlgorithmID]; ok {
		return alg.Matches(plaintext, stored.Encoded)
	}
	return v.legacy.Matches(plaintext, stored.String())
}

// VerifyString parses a stored wire-form hash and verifies plaintext against it
func (v *Verifier) VerifyString(plaintext, stored string) bool {
	return v.Verify(plaintext, ParseHash(stored))
}

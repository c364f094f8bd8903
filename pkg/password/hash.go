package password

import "strings"

// CredentialHash is an encoded password hash tagged with the algorithm that
// produced it. A zero AlgorithmID marks the legacy untagged format.
type CredentialHash struct {
	AlgorithmID string
	Encoded     string
}

// IsLegacy reports whether the hash predates the tagged scheme
func (h CredentialHash) IsLegacy() bool {
	return h.AlgorithmID == ""
}

// String renders the hash in its stored wire form
func (h CredentialHash) String() string {
	if h.IsLegacy() {
		return h.Encoded
	}
	return "{" + h.AlgorithmID + "}" + h.Encoded
}

// ParseHash splits a stored hash string into its algorithm tag and encoded
// payload. Strings without a leading "{id}" tag are returned as legacy hashes
// with an empty AlgorithmID.
func ParseHash(stored string) CredentialHash {
	if !strings.HasPrefix(stored, "{") {
		return CredentialHash{Encoded: stored}
	}
	end := strings.IndexByte(stored, '}')
	if end < 1 {
		return CredentialHash{Encoded: stored}
	}
	return CredentialHash{
		AlgorithmID: stored[1:end],
		Encoded:     stored[end+1:],
	}
}

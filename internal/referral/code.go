// Package referral holds the pure parts of the referral lifecycle: code
// generation and pincode eligibility.
package referral

import (
	"crypto/rand"
	"math/big"
)

const (
	CodePrefix = "BP-"
	codeLength = 6
	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode returns a new code of the form BP-XXXXXX. Uniqueness is not
// checked here; the store's unique index rejects collisions.
func GenerateCode() string {
	return CodePrefix + randomString(codeLength)
}

// IsCodeShape reports whether s looks like a code GenerateCode could return.
func IsCodeShape(s string) bool {
	if len(s) != len(CodePrefix)+codeLength || s[:len(CodePrefix)] != CodePrefix {
		return false
	}
	for _, c := range s[len(CodePrefix):] {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func randomString(n int) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}

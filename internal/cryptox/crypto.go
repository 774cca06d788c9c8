// Package cryptox holds credential primitives: temporary password generation
// and bcrypt hashing.
package cryptox

import (
	"strings"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// tempAlphabet skips characters that are easy to confuse when typed from an
// email (0/O, 1/l/I).
const tempAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TempPasswordLength is the length of generated temporary passwords.
const TempPasswordLength = 10

// HashCost is the bcrypt cost used for stored credentials.
var HashCost = bcrypt.DefaultCost

// acceptLimit is the largest multiple of len(tempAlphabet) that fits in a
// byte; random bytes at or above it are discarded so every character is
// equally likely.
const acceptLimit = 256 - 256%len(tempAlphabet)

// alphabetIndex maps a random byte to an alphabet position, rejecting bytes
// that would bias the result.
func alphabetIndex(v byte) (int, bool) {
	if int(v) >= acceptLimit {
		return 0, false
	}
	return int(v) % len(tempAlphabet), true
}

// GenerateTempPassword returns a random human-enterable secret of n characters.
func GenerateTempPassword(n int) string {
	var b strings.Builder
	b.Grow(n)
	for b.Len() < n {
		for _, v := range common.GenerateRandByteArray(n - b.Len()) {
			if i, ok := alphabetIndex(v); ok {
				b.WriteByte(tempAlphabet[i])
			}
		}
	}
	return b.String()
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash. A malformed hash is
// treated as a mismatch.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Player credential generation. Passwords are assigned once at creation and
// immutable thereafter; comparison happens in the API layer in constant time.
package game

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const passwordLength = 8

// GeneratePassword returns an 8-character password over upper/lower/digit.
func GeneratePassword() string {
	buf := make([]byte, passwordLength)
	for i := range buf {
		buf[i] = passwordAlphabet[randIndex(len(passwordAlphabet))]
	}
	return string(buf)
}

// CheckPassword compares a candidate against the stored credential without
// leaking timing information.
func CheckPassword(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// randIndex returns a uniform index in [0, n) from crypto/rand.
func randIndex(n int) int {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to 0
		// rather than panicking during game setup.
		return 0
	}
	v := binary.LittleEndian.Uint64(b[:]) >> 11 // 53 uniform bits
	return int(v % uint64(n))
}

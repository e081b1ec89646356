package utils

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// GenToken returns a hex-encoded token built from n random bytes.
func GenToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func ValidateUsername(name string) bool {
	return usernameRegex.MatchString(name)
}

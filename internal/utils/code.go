package utils

import (
	"crypto/rand"
	"fmt"
)

const codeDigits = "0123456789"

// GenerateSecureCode produces a random numeric code for email verification
// and password reset, sourced from crypto/rand
func GenerateSecureCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secure code: %w", err)
	}

	code := make([]byte, length)
	for i, b := range buf {
		code[i] = codeDigits[int(b)%len(codeDigits)]
	}

	return string(code), nil
}

package pkg

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const codeAlphabet = "0123456789"

var ErrInvalidCodeLength = errors.New("invalid code length")

// GenerateRoomCode returns a random numeric code of the given length.
func GenerateRoomCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidCodeLength, length)
	}

	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)

	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}

		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code), nil
}

// IsRoomCode reports whether code looks like something GenerateRoomCode could return.
func IsRoomCode(code string, length int) bool {
	if len(code) != length {
		return false
	}

	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// GenerateNewSessionID returns an identifier for a client connection.
func GenerateNewSessionID() string {
	return uuid.NewString()
}

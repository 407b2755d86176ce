package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateCode returns 2n lowercase hex characters, the format ticket ids
// are printed in.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return hex.EncodeToString(byt), nil
}

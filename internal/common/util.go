package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter is the number of random bytes read from crypto/rand
// before encoding, so the resulting string is twice as long. The server uses
// it for opaque refresh tokens.
//
// Example:
//
//	token, err := MakeRandHexString(32)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(token)) // 64
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size random bytes, e.g. a password salt.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	_, _ = rand.Read(b)
	return b
}

// WipeByteArray overwrites the contents of b with zeros. Passwords read from
// the terminal and derived password hashes are wiped this way once they have
// been used.
//
// A nil slice is left alone.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

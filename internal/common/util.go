package common

import "crypto/rand"

// GenerateRandByteArray returns size cryptographically random bytes.
// rand.Read never fails on supported platforms; a failure here means the
// process cannot continue safely, so it panics.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites the contents of b with zeros. Useful for
// removing passwords from memory after use. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

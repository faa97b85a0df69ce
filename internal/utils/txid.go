package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	txnIDPrefix    = "TXN"
	suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffixLength   = 5
)

// GenerateTransactionID produces a human-readable transaction id composed of
// a fixed prefix, the creation timestamp in milliseconds since epoch, and a
// short random alphanumeric suffix. Adequate for demo-scale uniqueness; a
// high-throughput deployment would swap in a UUID behind the same signature.
func GenerateTransactionID() string {
	return txnIDPrefix + fmt.Sprintf("%d", time.Now().UnixMilli()) + randomSuffix(suffixLength)
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(b)
}

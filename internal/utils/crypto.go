// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const lowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomFrom(charset string, length int) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateTransactionID returns an order reference of the form TXN-<unix seconds>-<9 random chars>.
// Uniqueness is enforced by the orders.transaction_id index.
func GenerateTransactionID(now time.Time) (string, error) {
	suffix, err := randomFrom(lowerAlphanumeric, 9)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TXN-%d-%s", now.Unix(), suffix), nil
}

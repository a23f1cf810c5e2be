// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

func GenerateRandomString(length int, charset string) (string, error) {
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

// GenerateOrderNumber returns a human readable number like ORD-20240115-K3F9QX.
func GenerateOrderNumber(now time.Time) (string, error) {
	// no 0/O or 1/I, customers read these out loud
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	suffix, err := GenerateRandomString(6, charset)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{"ORD", now.UTC().Format("20060102"), suffix}, "-"), nil
}

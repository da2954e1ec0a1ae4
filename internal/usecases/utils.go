package usecases

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNo builds a public order number: timestamp prefix plus a
// random numeric suffix. Uniqueness is enforced by the order_no index;
// the caller retries on conflict.
func GenerateOrderNo(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken
		n = big.NewInt(now.UnixNano() % 1000000)
	}
	return fmt.Sprintf("%s%06d", now.Format("20060102150405"), n.Int64())
}

// startOfDay returns local midnight for daily limit windows.
func startOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

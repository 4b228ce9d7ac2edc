// Package ident generates human-legible entity identifiers: a fixed prefix,
// a date segment, and a crypto-random suffix drawn from a fixed alphabet.
//
// Uniqueness is NOT guaranteed by construction. The database primary-key
// constraint is the actual uniqueness enforcement; a collision surfaces as a
// conflict error from the write, and no retry happens here.
package ident

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	digits = "0123456789"
)

// randomString samples size characters from alphabet using crypto/rand.
// Bytes outside the largest multiple of len(alphabet) are rejected so every
// character is equally likely.
func randomString(alphabet string, size int) string {
	limit := byte(256 - 256%len(alphabet))
	result := make([]byte, 0, size)
	buf := make([]byte, size)
	for len(result) < size {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand reading from the kernel CSPRNG does not fail in
			// practice; if it ever does the process state is unusable.
			panic(fmt.Sprintf("ident: crypto/rand failed: %v", err))
		}
		for _, b := range buf {
			if b >= limit && limit != 0 {
				continue
			}
			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == size {
				break
			}
		}
	}
	return string(result)
}

// NewProductID returns a product identifier: P + YYYYMM + 6 random digits.
// Example: P202603048291. Total length 13.
func NewProductID() string {
	return "P" + time.Now().Format("200601") + randomString(digits, 6)
}

// NewOrderID returns an order identifier: O + YYYYMMDDHHMM + 6 random digits.
// Example: O202603151423000123.
func NewOrderID() string {
	return "O" + time.Now().Format("200601021504") + randomString(digits, 6)
}

// NewOrderItemID returns an order item identifier derived from its order:
// OI + last 6 characters of the order id + 3 random digits.
func NewOrderItemID(orderID string) string {
	suffix := orderID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return "OI" + suffix + randomString(digits, 3)
}

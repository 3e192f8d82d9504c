package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultCodeLength is the number of digits in a generated code.
const DefaultCodeLength = 4

var ten = big.NewInt(10)

// GenerateCode produces a string of length decimal digits, each drawn
// independently from a cryptographically secure source. Codes are a
// guessing-attack boundary, so a general-purpose PRNG is not acceptable
// here.
//
// GenerateCode panics if the entropy source fails. That never happens on
// a healthy system; callers should run ProbeEntropy at startup so a
// broken source is a fatal boot condition rather than a request-time
// surprise.
func GenerateCode(length int) string {
	if length <= 0 {
		length = DefaultCodeLength
	}
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			panic(fmt.Sprintf("otp: secure random source unavailable: %v", err))
		}
		buf[i] = '0' + byte(n.Int64())
	}
	return string(buf)
}

// ProbeEntropy verifies that the secure random source works.
func ProbeEntropy() error {
	var one [1]byte
	if _, err := rand.Read(one[:]); err != nil {
		return fmt.Errorf("secure random source unavailable: %w", err)
	}
	return nil
}

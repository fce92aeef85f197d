// Package random supplies high-entropy seed material for genome derivation.
package random

import (
	crand "crypto/rand"
	"fmt"
)

// CryptoSource reads seeds from crypto/rand.
type CryptoSource struct{}

func (CryptoSource) Seed() ([32]byte, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return [32]byte{}, fmt.Errorf("read random seed: %w", err)
	}
	return seed, nil
}

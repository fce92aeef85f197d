// Package genetics derives and combines kitty genomes.
package genetics

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/nqminh/kitty-market/internal/core/domain"
)

// Derive produces a genome deterministically from a random seed, the acting
// account, and a monotonically varying nonce, by hashing their
// concatenation with BLAKE2b-128. The same bytes mint fresh genomes at
// creation and selection masks at breed time.
func Derive(seed [32]byte, account domain.AccountID, nonce uint64) domain.Genome {
	h, err := blake2b.New(domain.GenomeSize, nil)
	if err != nil {
		// only reachable with an invalid digest size or key
		panic(err)
	}

	var buf [8]byte
	h.Write(seed[:])
	binary.BigEndian.PutUint64(buf[:], uint64(account))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], nonce)
	h.Write(buf[:])

	var g domain.Genome
	h.Sum(g[:0])
	return g
}

// Crossover selects each result bit from a where the mask bit is 1 and
// from b where it is 0. Pure and total: every 16-byte value is a valid
// genome. Swapping a and b is not a no-op; only swapping them while
// inverting the mask yields the same child.
func Crossover(a, b, mask domain.Genome) domain.Genome {
	var child domain.Genome
	for i := range child {
		child[i] = (a[i] & mask[i]) | (b[i] &^ mask[i])
	}
	return child
}

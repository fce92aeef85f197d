package domain

// GenomeSize is the fixed width of every kitty genome in bytes.
const GenomeSize = 16

// Genome is an opaque genetic payload. It carries no semantic structure;
// breeding operates on it byte by byte.
type Genome [GenomeSize]byte

// KittyID identifies a kitty. IDs are allocated densely from 0 and are
// never reused.
type KittyID uint32

// AccountID identifies an account as authenticated by the host.
type AccountID uint64

// Parents records the pair a kitty was bred from, in the order the breeder
// named them. Set once at breed time, never mutated.
type Parents struct {
	A KittyID
	B KittyID
}

// Kitty is the full ledger view of one asset.
type Kitty struct {
	ID      KittyID
	Genome  Genome
	Owner   AccountID
	Parents *Parents // nil for directly created kitties
	OnSale  bool
}

// Listing marks a kitty as available for purchase. Seller is the account
// that listed it, which was the owner at listing time.
type Listing struct {
	KittyID KittyID
	Seller  AccountID
}

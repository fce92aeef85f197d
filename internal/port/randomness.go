package port

// SeedSource supplies the random seed material consumed by genome
// derivation. Seeds must be unpredictable to external observers at call
// time.
type SeedSource interface {
	Seed() ([32]byte, error)
}

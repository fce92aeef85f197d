package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/port"
)

// Bucket layout:
//
//	genomes   [4-byte BE kitty id] -> 16-byte genome
//	owners    [4-byte BE kitty id] -> 8-byte BE account id
//	parents   [4-byte BE kitty id] -> two 4-byte BE kitty ids
//	listings  [4-byte BE kitty id] -> 8-byte BE account id (seller)
//	meta      "next_id"            -> 4-byte BE kitty id
//
// Big-endian keys keep cursor order equal to id order.
var (
	genomeBucket  = []byte("genomes")
	ownerBucket   = []byte("owners")
	parentBucket  = []byte("parents")
	listingBucket = []byte("listings")
	metaBucket    = []byte("meta")

	nextIDKey = []byte("next_id")
)

// BoltStore is a bbolt-backed StateStore. One bbolt update transaction per
// ledger transition gives the required all-or-nothing write batch.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) the ledger state file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	store := &BoltStore{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) View(ctx context.Context, fn func(port.StateReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltStore) Update(ctx context.Context, fn func(port.StateTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltStore) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{genomeBucket, ownerBucket, parentBucket, listingBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// boltTx adapts one bbolt transaction to the state port. Reads and writes
// address the live transaction, so bbolt's commit/rollback is the atomic
// batch boundary.
type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) bucket(name []byte) (*bbolt.Bucket, error) {
	b := t.tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("bucket %s is missing", name)
	}
	return b, nil
}

func (t *boltTx) NextID() (domain.KittyID, error) {
	b, err := t.bucket(metaBucket)
	if err != nil {
		return 0, err
	}
	v := b.Get(nextIDKey)
	if v == nil {
		return 0, nil
	}
	if len(v) != 4 {
		return 0, fmt.Errorf("corrupt next_id record (%d bytes)", len(v))
	}
	return domain.KittyID(binary.BigEndian.Uint32(v)), nil
}

func (t *boltTx) Genome(id domain.KittyID) (domain.Genome, bool, error) {
	b, err := t.bucket(genomeBucket)
	if err != nil {
		return domain.Genome{}, false, err
	}
	v := b.Get(idKey(id))
	if v == nil {
		return domain.Genome{}, false, nil
	}
	if len(v) != domain.GenomeSize {
		return domain.Genome{}, false, fmt.Errorf("corrupt genome record for kitty %d (%d bytes)", id, len(v))
	}
	var g domain.Genome
	copy(g[:], v)
	return g, true, nil
}

func (t *boltTx) Owner(id domain.KittyID) (domain.AccountID, bool, error) {
	return t.account(ownerBucket, id)
}

func (t *boltTx) Listing(id domain.KittyID) (domain.AccountID, bool, error) {
	return t.account(listingBucket, id)
}

func (t *boltTx) account(bucket []byte, id domain.KittyID) (domain.AccountID, bool, error) {
	b, err := t.bucket(bucket)
	if err != nil {
		return 0, false, err
	}
	v := b.Get(idKey(id))
	if v == nil {
		return 0, false, nil
	}
	if len(v) != 8 {
		return 0, false, fmt.Errorf("corrupt account record for kitty %d (%d bytes)", id, len(v))
	}
	return domain.AccountID(binary.BigEndian.Uint64(v)), true, nil
}

func (t *boltTx) Parents(id domain.KittyID) (domain.Parents, bool, error) {
	b, err := t.bucket(parentBucket)
	if err != nil {
		return domain.Parents{}, false, err
	}
	v := b.Get(idKey(id))
	if v == nil {
		return domain.Parents{}, false, nil
	}
	if len(v) != 8 {
		return domain.Parents{}, false, fmt.Errorf("corrupt parents record for kitty %d (%d bytes)", id, len(v))
	}
	return domain.Parents{
		A: domain.KittyID(binary.BigEndian.Uint32(v[:4])),
		B: domain.KittyID(binary.BigEndian.Uint32(v[4:])),
	}, true, nil
}

func (t *boltTx) ForEachListing(fn func(id domain.KittyID, seller domain.AccountID) error) error {
	b, err := t.bucket(listingBucket)
	if err != nil {
		return err
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if len(k) != 4 || len(v) != 8 {
			return fmt.Errorf("corrupt listing record (%d-byte key, %d-byte value)", len(k), len(v))
		}
		id := domain.KittyID(binary.BigEndian.Uint32(k))
		seller := domain.AccountID(binary.BigEndian.Uint64(v))
		if err := fn(id, seller); err != nil {
			return err
		}
	}
	return nil
}

func (t *boltTx) SetNextID(id domain.KittyID) error {
	b, err := t.bucket(metaBucket)
	if err != nil {
		return err
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	return b.Put(nextIDKey, buf[:])
}

func (t *boltTx) PutGenome(id domain.KittyID, g domain.Genome) error {
	b, err := t.bucket(genomeBucket)
	if err != nil {
		return err
	}
	return b.Put(idKey(id), g[:])
}

func (t *boltTx) SetOwner(id domain.KittyID, owner domain.AccountID) error {
	return t.putAccount(ownerBucket, id, owner)
}

func (t *boltTx) PutListing(id domain.KittyID, seller domain.AccountID) error {
	return t.putAccount(listingBucket, id, seller)
}

func (t *boltTx) putAccount(bucket []byte, id domain.KittyID, account domain.AccountID) error {
	b, err := t.bucket(bucket)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(account))
	return b.Put(idKey(id), buf[:])
}

func (t *boltTx) SetParents(id domain.KittyID, p domain.Parents) error {
	b, err := t.bucket(parentBucket)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(p.A))
	binary.BigEndian.PutUint32(buf[4:], uint32(p.B))
	return b.Put(idKey(id), buf[:])
}

func (t *boltTx) RemoveListing(id domain.KittyID) error {
	b, err := t.bucket(listingBucket)
	if err != nil {
		return err
	}
	return b.Delete(idKey(id))
}

func idKey(id domain.KittyID) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	return buf[:]
}

package journal

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hxrts/aura/codec"
	"github.com/hxrts/aura/ids"
)

// Bucket layout mirrors the octoreflex storage package's BoltDB schema:
// one bucket of append-only records keyed by a monotonic sortable key,
// one bucket of compaction snapshots, and a meta bucket for the schema
// version.
const (
	bucketEvents    = "journal_events"
	bucketSnapshots = "journal_snapshots"
	bucketMeta      = "journal_meta"

	schemaVersionKey = "schema_version"
	schemaVersion    = "1"
)

// PersistentStore is a bbolt-backed Store: every Append is durable
// before it returns, and Open replays the event bucket to rebuild the
// fold in memory. Reads are served from the in-memory fold, the same as
// MemStore, so steady-state read latency doesn't depend on bbolt.
type PersistentStore struct {
	db  *bolt.DB
	mem *MemStore
}

// OpenPersistentStore opens (or creates) the bbolt file at path and
// replays its event log to rebuild AccountState in memory.
func OpenPersistentStore(path string, accountID ids.AccountId) (*PersistentStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("journal: bolt.Open(%q): %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketEvents, bucketSnapshots, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("CreateBucketIfNotExists(%q): %w", name, err)
			}
		}
		meta := tx.Bucket([]byte(bucketMeta))
		if meta.Get([]byte(schemaVersionKey)) == nil {
			return meta.Put([]byte(schemaVersionKey), []byte(schemaVersion))
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: schema init failed: %w", err)
	}

	if err := db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketMeta)).Get([]byte(schemaVersionKey))
		if string(v) != schemaVersion {
			return fmt.Errorf("journal: schema version mismatch: db has %q, code requires %q", v, schemaVersion)
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	ps := &PersistentStore{db: db, mem: NewMemStore(accountID)}
	if err := ps.replay(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ps, nil
}

func eventKey(lamportClock uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, lamportClock)
	return key
}

func (p *PersistentStore) replay() error {
	return p.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketEvents))
		return b.ForEach(func(_, v []byte) error {
			var e Event
			if _, err := codec.DecodeTagged(v, []uint32{Version}, &e); err != nil {
				return fmt.Errorf("journal: replay decode: %w", err)
			}
			if _, err := p.mem.Append(e); err != nil {
				return fmt.Errorf("journal: replay rejected a previously-accepted event: %w", err)
			}
			return nil
		})
	})
}

// Append validates and applies e against the in-memory fold, then
// persists the raw event to bbolt. If the bbolt write fails, the
// in-memory fold is rolled back to keep the two in lockstep.
func (p *PersistentStore) Append(e Event) (AppendOutcome, error) {
	prevState, err := p.mem.Fold()
	if err != nil {
		return AppendOutcome{}, err
	}

	outcome, err := p.mem.Append(e)
	if err != nil {
		return AppendOutcome{}, err
	}

	encoded, err := codec.EncodeTagged(Version, codec.KindTag(e.Kind), e)
	if err != nil {
		p.mem.mu.Lock()
		p.mem.state = prevState
		p.mem.events = p.mem.events[:len(p.mem.events)-1]
		p.mem.mu.Unlock()
		return AppendOutcome{}, fmt.Errorf("journal: encode event: %w", err)
	}

	if err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketEvents))
		return b.Put(eventKey(outcome.LamportClock), encoded)
	}); err != nil {
		p.mem.mu.Lock()
		p.mem.state = prevState
		p.mem.events = p.mem.events[:len(p.mem.events)-1]
		p.mem.mu.Unlock()
		return AppendOutcome{}, fmt.Errorf("journal: persist event: %w", err)
	}

	return outcome, nil
}

func (p *PersistentStore) Fold() (*AccountState, error) { return p.mem.Fold() }
func (p *PersistentStore) ComputeStateHash() (ids.Hash32, error) { return p.mem.ComputeStateHash() }
func (p *PersistentStore) ActiveSessions() ([]Session, error)    { return p.mem.ActiveSessions() }
func (p *PersistentStore) CleanupExpiredSessions(now time.Time) (int, error) {
	return p.mem.CleanupExpiredSessions(now)
}
func (p *PersistentStore) LastEventHash() (ids.Hash32, error) { return p.mem.LastEventHash() }
func (p *PersistentStore) LamportClock() (uint64, error)      { return p.mem.LamportClock() }

// Compact writes a snapshot record to bbolt and returns it. Replaying
// events with LamportClock > snapshot.LastClock on top of the snapshot
// state reproduces the current fold exactly (spec.md §4.1).
func (p *PersistentStore) Compact() (Snapshot, error) {
	snap, err := p.mem.Compact()
	if err != nil {
		return Snapshot{}, err
	}
	encoded, err := codec.Codec.Marshal(codec.CurrentVersion, snap.State)
	if err != nil {
		return Snapshot{}, fmt.Errorf("journal: encode snapshot: %w", err)
	}
	if err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		return b.Put(eventKey(snap.LastClock), encoded)
	}); err != nil {
		return Snapshot{}, fmt.Errorf("journal: persist snapshot: %w", err)
	}
	return snap, nil
}

// Close closes the underlying bbolt file.
func (p *PersistentStore) Close() error { return p.db.Close() }

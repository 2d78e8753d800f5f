package cldb

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// key layout in the store
const (
	recordPrefix = "hsp/"
	statsKey     = "stats"
)

// Store persists annotated records and the batch summary in an
// embedded Badger database, keyed by (query_id, subject_id, ordinal).
type Store struct {
	db *badger.DB
}

// OpenStore opens (creating if needed) a store at dir.
func OpenStore(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open record store at %s: %v", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenMemoryStore opens an in-memory store, for tests and dry runs.
func OpenMemoryStore() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory record store: %v", err)
	}
	return &Store{db: db}, nil
}

// Close releases the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// BatchResult reports per-record persistence outcomes: a batch either
// fully succeeds or is reported as partially failed, never silently.
type BatchResult struct {
	Written int
	Failed  map[string]error
}

// Ok is true when every record in the batch was written.
func (r BatchResult) Ok() bool {
	return len(r.Failed) == 0
}

// WriteBatch persists a batch of annotated records plus its summary
// stats in one transaction. Records that fail to encode or write are
// reported per-key in the result; they don't abort the rest of the
// batch.
func (s *Store) WriteBatch(records []Record, stats Stats) (BatchResult, error) {
	res := BatchResult{Failed: map[string]error{}}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			buf, err := json.Marshal(rec)
			if err != nil {
				res.Failed[rec.Key()] = err
				continue
			}
			if err := txn.Set([]byte(recordPrefix+rec.Key()), buf); err != nil {
				res.Failed[rec.Key()] = err
				continue
			}
			res.Written++
		}

		buf, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set([]byte(statsKey), buf)
	})
	if err != nil {
		return res, fmt.Errorf("failed to commit record batch: %v", err)
	}
	return res, nil
}

// Stats reads back the persisted batch summary.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(statsKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stats)
		})
	})
	if err != nil {
		return stats, fmt.Errorf("failed to read stats: %v", err)
	}
	return stats, nil
}

// Records reads back every persisted record, in key order.
func (s *Store) Records() ([]Record, error) {
	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %v", err)
	}
	return records, nil
}

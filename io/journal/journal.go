// Package journal keeps an audit trail of the replies an executor sent.
//
// Every reply is appended to a write-ahead log and per-command counters are
// kept in BadgerDB. Counters are rebuilt from the log on open. The journal is
// never used to restore bridge state.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	walPrefix        = "replies_"
	segmentThreshold = 1024 * 1024
	maxSegments      = 100

	counterPrefix = "count/"
	okSuffix      = "/ok"
	failSuffix    = "/fail"
)

// Record is a single sent reply.
type Record struct {
	Command string    `json:"c"`
	OK      bool      `json:"ok"`
	Reason  string    `json:"r"`
	At      time.Time `json:"t"`
}

// Stats are the reply counters of one command.
type Stats struct {
	OK     uint64
	Failed uint64
}

// Journal appends reply records to a WAL and counts them in BadgerDB.
type Journal struct {
	wal  *gowal.Wal
	db   *badger.DB
	next uint64
	mu   sync.Mutex
}

// Open opens (or creates) a journal under dir.
func Open(dir string) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("journal dir is empty")
	}

	walDir := filepath.Join(dir, "wal")
	dbDir := filepath.Join(dir, "badger")
	for _, d := range []string{walDir, dbDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, errors.Wrap(err, "create journal directory")
		}
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              walDir,
		Prefix:           walPrefix,
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open journal wal")
	}

	db, err := badger.Open(badger.DefaultOptions(dbDir).WithLogger(nil))
	if err != nil {
		_ = wal.Close()
		return nil, errors.Wrap(err, "open journal db")
	}

	j := &Journal{wal: wal, db: db}
	if err := j.recover(); err != nil {
		_ = db.Close()
		_ = wal.Close()
		return nil, err
	}

	return j, nil
}

// Append writes rec to the log and bumps its command counter.
func (j *Journal) Append(rec Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode record")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.wal.Write(j.next, rec.Command, value); err != nil {
		return errors.Wrap(err, "write record")
	}
	j.next++

	return j.db.Update(func(txn *badger.Txn) error {
		return increment(txn, counterKey(rec.Command, rec.OK))
	})
}

// Stats returns the counters of cmd.
func (j *Journal) Stats(cmd string) (Stats, error) {
	var stats Stats
	err := j.db.View(func(txn *badger.Txn) error {
		var err error
		if stats.OK, err = read(txn, counterKey(cmd, true)); err != nil {
			return err
		}
		stats.Failed, err = read(txn, counterKey(cmd, false))
		return err
	})
	return stats, err
}

// Len returns the number of records in the journal.
func (j *Journal) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// Close closes the log and the database.
func (j *Journal) Close() error {
	walErr := j.wal.Close()
	if err := j.db.Close(); err != nil {
		return errors.Wrap(err, "close journal db")
	}
	return errors.Wrap(walErr, "close journal wal")
}

func (j *Journal) recover() error {
	if err := j.db.DropPrefix([]byte(counterPrefix)); err != nil {
		return errors.Wrap(err, "reset counters")
	}

	var (
		maxIndex   uint64
		hasEntries bool
		counts     = make(map[string]uint64)
	)

	for msg := range j.wal.Iterator() {
		if !hasEntries || msg.Idx > maxIndex {
			maxIndex = msg.Idx
		}
		hasEntries = true

		var rec Record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			return errors.Wrapf(err, "decode record %d", msg.Idx)
		}
		counts[counterKey(rec.Command, rec.OK)]++
	}

	if hasEntries {
		j.next = maxIndex + 1
	}

	return j.db.Update(func(txn *badger.Txn) error {
		for key, n := range counts {
			if err := txn.Set([]byte(key), encode(n)); err != nil {
				return err
			}
		}
		return nil
	})
}

func counterKey(cmd string, ok bool) string {
	if ok {
		return counterPrefix + cmd + okSuffix
	}
	return counterPrefix + cmd + failSuffix
}

func increment(txn *badger.Txn, key string) error {
	n, err := read(txn, key)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), encode(n+1))
}

func read(txn *badger.Txn, key string) (uint64, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var n uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return errors.Errorf("corrupt counter %s", key)
		}
		n = binary.BigEndian.Uint64(val)
		return nil
	})
	return n, err
}

func encode(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

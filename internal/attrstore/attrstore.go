// Package attrstore persists encoded Trusted attributes keyed by
// class name, so a verifier can look them up without reparsing
// the class.
package attrstore

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

// ErrNotFound is returned by Get for an unknown class.
var ErrNotFound = errors.New("attrstore: class not found")

const keyPrefix = "trusted/"

type Config struct {
	Path string // ignored when InMemory is set
	// InMemory keeps everything in RAM, mostly for tests.
	InMemory      bool
	MinimumFreeGB uint64
	Logger        *logrus.Logger
}

type Store struct {
	config       Config
	log          *logrus.Logger
	db           *badger.DB
	enc          *zstd.Encoder
	dec          *zstd.Decoder
	readCounter  uint64
	writeCounter uint64
}

func Open(config Config) (*Store, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	log := config.Logger

	if err := config.checkConfig(); err != nil {
		return nil, fmt.Errorf("error checking config for attrstore: %w", err)
	}

	opts := badger.DefaultOptions(config.Path)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(log.WithField("component", "badger"))
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, closeAfter(db, fmt.Errorf("create zstd encoder: %w", err))
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, closeAfter(db, fmt.Errorf("create zstd decoder: %w", err))
	}

	if !config.InMemory {
		if err := logDiskUsage(log, config.Path); err != nil {
			log.WithError(err).Warn("could not read disk usage")
		}
	}

	return &Store{
		config: config,
		log:    log,
		db:     db,
		enc:    enc,
		dec:    dec,
	}, nil
}

// closeAfter closes c after a failed setup step and joins its
// error with err.
func closeAfter(c io.Closer, err error) error {
	if cerr := c.Close(); cerr != nil {
		return errors.Join(err, fmt.Errorf("close badger: %w", cerr))
	}
	return err
}

func classKey(className string) []byte {
	return []byte(keyPrefix + className)
}

// Put stores a under className, replacing any earlier attribute.
func (s *Store) Put(className string, a *trusted.Attribute) error {
	if className == "" {
		return errors.New("class name must not be empty")
	}
	data, err := trusted.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode attribute for %s: %w", className, err)
	}
	value := s.enc.EncodeAll(data, make([]byte, 0, len(data)))

	atomic.AddUint64(&s.writeCounter, 1)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(classKey(className), value)
	})
	if err != nil {
		return fmt.Errorf("write attribute for %s: %w", className, err)
	}
	s.log.WithFields(logrus.Fields{
		"class":      className,
		"length":     len(data),
		"compressed": len(value),
	}).Debug("stored trusted attribute")
	return nil
}

// Get returns the attribute stored under className.
func (s *Store) Get(className string) (*trusted.Attribute, error) {
	atomic.AddUint64(&s.readCounter, 1)
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(classKey(className))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, className)
	}
	if err != nil {
		return nil, fmt.Errorf("read attribute for %s: %w", className, err)
	}

	data, err := s.dec.DecodeAll(value, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress attribute for %s: %w", className, err)
	}
	a, err := trusted.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode attribute for %s: %w", className, err)
	}
	return a, nil
}

// Delete removes the attribute stored under className. Deleting
// an unknown class is not an error.
func (s *Store) Delete(className string) error {
	atomic.AddUint64(&s.writeCounter, 1)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(classKey(className))
	})
}

// List returns the class names starting with prefix, in key
// order.
func (s *Store) List(prefix string) ([]string, error) {
	atomic.AddUint64(&s.readCounter, 1)
	var names []string
	full := classKey(prefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(full); it.ValidForPrefix(full); it.Next() {
			key := it.Item().KeyCopy(nil)
			names = append(names, string(key[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	return names, nil
}

// Stats returns the number of read and write operations so far.
func (s *Store) Stats() (reads, writes uint64) {
	return atomic.LoadUint64(&s.readCounter),
		atomic.LoadUint64(&s.writeCounter)
}

func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	reads, writes := s.Stats()
	s.log.WithFields(logrus.Fields{
		"reads":  reads,
		"writes": writes,
	}).Info("attribute store closed")
	return nil
}

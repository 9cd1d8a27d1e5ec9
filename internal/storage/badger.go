package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/sessgauge/internal/core/domain"
)

const (
	// sessionKeyPrefix namespaces session records in the keyspace.
	sessionKeyPrefix = "session/"

	// ttlGrace is added to the idle timeout to form the Badger TTL.
	ttlGrace = 5 * time.Minute
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("badger store closed")

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory (tests, ephemeral deployments).
	InMemory bool

	// SyncWrites fsyncs after every write.
	SyncWrites bool

	// GCInterval is the interval between value log GC runs. Zero disables the loop.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64

	// EncryptionKey enables encryption at rest. It must be 16, 24 or 32
	// bytes long (AES-128/192/256). Empty disables encryption.
	EncryptionKey string
}

// encryptedIndexCacheSize is required by Badger once encryption is on.
const encryptedIndexCacheSize = 16 << 20

// DefaultBadgerConfig returns the default configuration for dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// BadgerStore persists sessions in Badger as JSON documents.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerStore opens (or creates) a Badger database.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.EncryptionKey != "" {
		switch len(cfg.EncryptionKey) {
		case 16, 24, 32:
		default:
			return nil, fmt.Errorf("badger: encryption key must be 16, 24 or 32 bytes, got %d", len(cfg.EncryptionKey))
		}
		opts = opts.WithEncryptionKey([]byte(cfg.EncryptionKey)).
			WithIndexCacheSize(encryptedIndexCacheSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop()
	} else {
		close(s.doneCh)
	}

	logger.Info("badger session store opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"encrypted", cfg.EncryptionKey != "",
		"gc_interval", cfg.GCInterval)

	return s, nil
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

// Create stores a new session. It fails with ErrSessionConflict if the ID is taken.
func (s *BadgerStore) Create(_ context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	value, err := json.Marshal(session)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := sessionKey(session.ID)
		if _, err := txn.Get(key); err == nil {
			return domain.ErrSessionConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.SetEntry(newEntry(key, value, session))
	})
	return s.wrap(err)
}

// Get loads a session by ID.
func (s *BadgerStore) Get(_ context.Context, id string) (*domain.Session, error) {
	var session *domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		session, err = readSession(txn, sessionKey(id))
		return err
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	if session.IsExpired() {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// Update replaces a stored session if its version still matches.
func (s *BadgerStore) Update(_ context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	next := session.Clone()
	next.Version++
	value, err := json.Marshal(next)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := sessionKey(session.ID)
		existing, err := readSession(txn, key)
		if err != nil {
			return err
		}
		if existing.Version != session.Version {
			return domain.ErrSessionConflict.WithDetails("version mismatch")
		}
		return txn.SetEntry(newEntry(key, value, next))
	})
	if err != nil {
		return s.wrap(err)
	}
	session.Version = next.Version
	return nil
}

// Delete removes a session.
func (s *BadgerStore) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := sessionKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrSessionNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	return s.wrap(err)
}

// Count walks the session keyspace without loading values.
func (s *BadgerStore) Count(_ context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, s.wrap(err)
}

// DeleteExpired removes sessions idle past their timeout at now.
func (s *BadgerStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	var expired [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var session *domain.Session
			if err := item.Value(func(val []byte) (err error) {
				session, err = decodeSession(val)
				return err
			}); err != nil {
				return err
			}
			if session.IsExpiredAt(now) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.wrap(err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range expired {
		if err := wb.Delete(key); err != nil {
			return 0, s.wrap(err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, s.wrap(err)
	}
	return len(expired), nil
}

// GC runs value log garbage collection until nothing is left to rewrite.
func (s *BadgerStore) GC() error {
	runs := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return fmt.Errorf("gc: %w", err)
		}
		runs++
	}
	s.logger.Debug("badger gc completed", "rewrites", runs)
	return nil
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	select {
	case <-s.stopCh:
		return ErrClosed
	default:
	}
	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	s.logger.Info("badger session store closed")
	return nil
}

func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.GC(); err != nil {
				s.logger.Error("badger gc failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// wrap maps storage failures onto domain errors, leaving domain errors untouched.
func (s *BadgerStore) wrap(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsDomainError(err, "") {
		return err
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return domain.ErrStorageError.WithCause(ErrClosed)
	}
	return domain.ErrStorageError.WithCause(err)
}

func readSession(txn *badger.Txn, key []byte) (*domain.Session, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	var session *domain.Session
	if err := item.Value(func(val []byte) (err error) {
		session, err = decodeSession(val)
		return err
	}); err != nil {
		return nil, err
	}
	return session, nil
}

// decodeSession unmarshals a stored session. Attributes are omitted from the
// record when empty, so the map is restored here.
func decodeSession(val []byte) (*domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return nil, err
	}
	if session.Attributes == nil {
		session.Attributes = make(map[string]string)
	}
	return &session, nil
}

// newEntry builds a Badger entry whose TTL trails the session idle timeout
// by ttlGrace, so Badger drops abandoned records even if the sweeper never runs.
func newEntry(key, value []byte, session *domain.Session) *badger.Entry {
	e := badger.NewEntry(key, value)
	if session.MaxInactive > 0 {
		e = e.WithTTL(time.Duration(session.MaxInactive)*time.Millisecond + ttlGrace)
	}
	return e
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

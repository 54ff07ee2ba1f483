package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/observability"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// BadgerConfig is decoded from the catalog.badger config section.
type BadgerConfig struct {
	Path     string `mapstructure:"path" validate:"required_without=InMemory"`
	InMemory bool   `mapstructure:"in_memory"`
}

// Key layout:
//
//	f\x00<user>\x00<id:%020d>  -> JSON models.FileRecord
//	a\x00<user>\x00<id:%020d>  -> JSON models.ActivityEntry
//
// ids come from monotonic sequences, so reverse prefix scans yield newest first.
const (
	prefixFile     = "f"
	prefixActivity = "a"
	seqFiles       = "seq/files"
	seqActivity    = "seq/activity"
)

// BadgerDB is an embedded catalog and ledger store with the same row
// semantics as PostgresDB.
type BadgerDB struct {
	db          *badger.DB
	fileSeq     *badger.Sequence
	activitySeq *badger.Sequence
	logger      *zap.Logger
}

func NewBadgerDB(cfg BadgerConfig, logger *zap.Logger) (*BadgerDB, error) {
	logger = logger.Named("badger")

	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(observability.NewSugaredLogger(logger)).
		WithLoggingLevel(badger.WARNING)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	fileSeq, err := db.GetSequence([]byte(seqFiles), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("file sequence: %w", err)
	}
	activitySeq, err := db.GetSequence([]byte(seqActivity), 100)
	if err != nil {
		fileSeq.Release()
		db.Close()
		return nil, fmt.Errorf("activity sequence: %w", err)
	}

	return &BadgerDB{db: db, fileSeq: fileSeq, activitySeq: activitySeq, logger: logger}, nil
}

func (b *BadgerDB) Ping(ctx context.Context) error {
	if b.db.IsClosed() {
		return fmt.Errorf("badger is closed")
	}
	return ctx.Err()
}

func (b *BadgerDB) Close() error {
	if err := b.fileSeq.Release(); err != nil {
		b.logger.Warn("failed to release file sequence", zap.Error(err))
	}
	if err := b.activitySeq.Release(); err != nil {
		b.logger.Warn("failed to release activity sequence", zap.Error(err))
	}
	return b.db.Close()
}

// checkUserID rejects ids containing the key separator; such an id would
// otherwise scan into another user's prefix.
func checkUserID(userID string) error {
	if strings.ContainsRune(userID, 0) {
		return vaulterr.Validation("user id %q contains a NUL byte", userID)
	}
	return nil
}

func userPrefix(kind, userID string) []byte {
	return []byte(kind + "\x00" + userID + "\x00")
}

func rowKey(kind, userID string, id int64) []byte {
	return append(userPrefix(kind, userID), fmt.Sprintf("%020d", id)...)
}

func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	// sequences start at 0; row ids start at 1 like BIGSERIAL
	return int64(n) + 1, nil
}

func (b *BadgerDB) InsertFile(ctx context.Context, rec models.FileRecord) (models.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.FileRecord{}, err
	}
	if err := checkUserID(rec.UserID); err != nil {
		return models.FileRecord{}, err
	}
	id, err := nextID(b.fileSeq)
	if err != nil {
		return models.FileRecord{}, fmt.Errorf("next file id: %w", err)
	}
	rec.ID = id
	rec.UploadedAt = rec.UploadedAt.UTC()

	val, err := json.Marshal(rec)
	if err != nil {
		return models.FileRecord{}, err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rowKey(prefixFile, rec.UserID, id), val)
	})
	if err != nil {
		return models.FileRecord{}, err
	}
	return rec, nil
}

func (b *BadgerDB) ListFiles(ctx context.Context, userID string) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := b.scanNewestFirst(ctx, prefixFile, userID, 0, func(val []byte) (bool, error) {
		var f models.FileRecord
		if err := json.Unmarshal(val, &f); err != nil {
			return false, err
		}
		files = append(files, f)
		return true, nil
	})
	return files, err
}

func (b *BadgerDB) FindFiles(ctx context.Context, userID, filename string) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := b.scanNewestFirst(ctx, prefixFile, userID, 0, func(val []byte) (bool, error) {
		var f models.FileRecord
		if err := json.Unmarshal(val, &f); err != nil {
			return false, err
		}
		if f.Filename == filename {
			files = append(files, f)
			return true, nil
		}
		return false, nil
	})
	return files, err
}

func (b *BadgerDB) DeleteFiles(ctx context.Context, userID string, ids []int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkUserID(userID); err != nil {
		return 0, err
	}
	deleted := 0
	err := b.db.Update(func(txn *badger.Txn) error {
		deleted = 0
		for _, id := range ids {
			key := rowKey(prefixFile, userID, id)
			if _, err := txn.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (b *BadgerDB) InsertActivity(ctx context.Context, entry models.ActivityEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkUserID(entry.UserID); err != nil {
		return err
	}
	id, err := nextID(b.activitySeq)
	if err != nil {
		return fmt.Errorf("next activity id: %w", err)
	}
	entry.ID = id
	entry.Timestamp = entry.Timestamp.UTC()

	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rowKey(prefixActivity, entry.UserID, id), val)
	})
}

func (b *BadgerDB) ListActivity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	err := b.scanNewestFirst(ctx, prefixActivity, userID, limit, func(val []byte) (bool, error) {
		var e models.ActivityEntry
		if err := json.Unmarshal(val, &e); err != nil {
			return false, err
		}
		entries = append(entries, e)
		return true, nil
	})
	return entries, err
}

// scanNewestFirst walks one user's rows of a kind in descending id order.
// fn reports whether the row was kept; scanning stops after limit kept rows
// when limit > 0.
func (b *BadgerDB) scanNewestFirst(ctx context.Context, kind, userID string, limit int, fn func(val []byte) (bool, error)) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	prefix := userPrefix(kind, userID)

	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		kept := 0
		for it.Seek(append(append([]byte{}, prefix...), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var ok bool
			err := it.Item().Value(func(val []byte) error {
				var err error
				ok, err = fn(val)
				return err
			})
			if err != nil {
				return err
			}
			if ok {
				kept++
				if limit > 0 && kept >= limit {
					return nil
				}
			}
		}
		return nil
	})
}

package offset

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

const (
	bucketName    = "ufw_offsets"
	checkpointLen = 24
)

// BoltDBStore implements Store on a local BoltDB file
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore opens (or creates) the state database at dbPath
func NewBoltDBStore(dbPath string) (*BoltDBStore, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		// A held lock means another ufwlog process uses the same state file
		return nil, fmt.Errorf("failed to open state db (file may be locked by another process): %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Debug().
		Str("db_path", dbPath).
		Msg("Offset store opened")

	return &BoltDBStore{db: db}, nil
}

// Get retrieves the checkpoint for key
func (s *BoltDBStore) Get(ctx context.Context, key string) (Checkpoint, error) {
	var cp Checkpoint
	if err := ctx.Err(); err != nil {
		return cp, err
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if val == nil {
			return nil
		}
		var err error
		cp, err = decodeCheckpoint(val)
		return err
	})
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to get offset for %s: %w", key, err)
	}

	return cp, nil
}

// Set stores the checkpoint for key
func (s *BoltDBStore) Set(ctx context.Context, key string, cp Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), encodeCheckpoint(cp))
	})
	if err != nil {
		return fmt.Errorf("failed to set offset for %s: %w", key, err)
	}

	log.Debug().
		Str("key", key).
		Str("file_path", cp.Path).
		Uint64("offset", cp.Offset).
		Uint64("lines", cp.Lines).
		Msg("Offset updated")

	return nil
}

// Delete removes the checkpoint for key
func (s *BoltDBStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete offset for %s: %w", key, err)
	}
	return nil
}

// List returns every stored checkpoint
func (s *BoltDBStore) List(ctx context.Context) (map[string]Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make(map[string]Checkpoint)

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			cp, err := decodeCheckpoint(v)
			if err != nil {
				log.Warn().Err(err).Str("key", string(k)).Msg("Skipping corrupt checkpoint")
				return nil
			}
			result[string(k)] = cp
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list offsets: %w", err)
	}

	return result, nil
}

// Close closes the database
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}

// encodeCheckpoint lays out Offset, Lines and UpdatedAt as big-endian
// uint64 values followed by the path bytes.
func encodeCheckpoint(cp Checkpoint) []byte {
	val := make([]byte, checkpointLen, checkpointLen+len(cp.Path))
	binary.BigEndian.PutUint64(val[0:8], cp.Offset)
	binary.BigEndian.PutUint64(val[8:16], cp.Lines)
	binary.BigEndian.PutUint64(val[16:24], uint64(cp.UpdatedAt.UnixNano()))
	return append(val, cp.Path...)
}

func decodeCheckpoint(val []byte) (Checkpoint, error) {
	if len(val) < checkpointLen {
		return Checkpoint{}, fmt.Errorf("invalid checkpoint value (%d bytes)", len(val))
	}
	return Checkpoint{
		Offset:    binary.BigEndian.Uint64(val[0:8]),
		Lines:     binary.BigEndian.Uint64(val[8:16]),
		UpdatedAt: time.Unix(0, int64(binary.BigEndian.Uint64(val[16:24]))),
		Path:      string(val[checkpointLen:]),
	}, nil
}

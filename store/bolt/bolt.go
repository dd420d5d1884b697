// Package bolt is a bbolt-backed FormStore.
package bolt

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/store"

	bolt "go.etcd.io/bbolt"
)

var bucket = []byte("formdata")

// Storage is a FormStore over a single bbolt file.
type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

// NewStorage makes a Storage for the given file.  Call Open before
// use.
func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

// Open opens the underlying database file.
func (s *Storage) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("bolt.Storage."+format, args...)
	}
}

func (s *Storage) Get(ctx context.Context, ref string) (conditional.FormData, error) {
	s.logf("Get %s", ref)
	var data conditional.FormData
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(bucket).Get([]byte(ref))
		if bs == nil {
			return store.NotFound
		}
		return json.Unmarshal(bs, &data)
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Storage) Put(ctx context.Context, ref string, data conditional.FormData) error {
	s.logf("Put %s (%d fields)", ref, len(data))
	js, err := json.Marshal(&data)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(ref), js)
	})
}

func (s *Storage) Delete(ctx context.Context, ref string) error {
	s.logf("Delete %s", ref)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(ref))
	})
}

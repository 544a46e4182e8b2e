package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/multierr"
)

const (
	bucketDocuments = "documents"
	bucketModified  = "modified"
)

// BoltStore keeps documents in a bbolt database, one key per document name,
// with the time of the last save in a second bucket.
type BoltStore struct {
	db   *bolt.DB
	path string
	name string
}

// OpenBolt opens or creates the database at path and selects the document
// called name.
func OpenBolt(path, name string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fail("open", path, err)
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fail("open", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range []string{bucketDocuments, bucketModified} {
			if _, err := tx.CreateBucketIfNotExists([]byte(b)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fail("open", path, multierr.Append(err, db.Close()))
	}
	return &BoltStore{db: db, path: path, name: name}, nil
}

func (s *BoltStore) Location() string { return s.path }

func (s *BoltStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fail("load", s.path, err)
	}
	var text string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketDocuments)).Get([]byte(s.name)); v != nil {
			text = string(v)
		}
		return nil
	})
	if err != nil {
		return "", fail("load", s.path, err)
	}
	return text, nil
}

func (s *BoltStore) Save(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return fail("save", s.path, err)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(s.name)
		if err := tx.Bucket([]byte(bucketDocuments)).Put(key, []byte(text)); err != nil {
			return err
		}
		stamp := time.Now().UTC().Format(time.RFC3339Nano)
		return tx.Bucket([]byte(bucketModified)).Put(key, []byte(stamp))
	})
	if err != nil {
		return fail("save", s.path, err)
	}
	return nil
}

// Modified returns when the document was last saved. ok is false when it
// was never saved.
func (s *BoltStore) Modified() (t time.Time, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketModified)).Get([]byte(s.name))
		if v == nil {
			return nil
		}
		t, err = time.Parse(time.RFC3339Nano, string(v))
		ok = err == nil
		return err
	})
	if err != nil {
		return time.Time{}, false, fail("modified", s.path, err)
	}
	return t, ok, nil
}

// Names lists every stored document.
func (s *BoltStore) Names() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDocuments)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fail("list", s.path, err)
	}
	return names, nil
}

func (s *BoltStore) Close() error {
	return multierr.Append(s.db.Sync(), s.db.Close())
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DiskBackend persists cache entries in a bbolt database, one bucket per
// namespace. Each value is a JSON envelope carrying inserted_at and
// ttl_seconds alongside the payload; bbolt transactions make every write
// atomic. A corrupt envelope is treated as a miss, logged by the cache front.
type DiskBackend struct {
	db  *bolt.DB
	now func() time.Time
}

// Current schema version. Bump when bucket layout or envelope format changes.
const diskSchemaVersion = 1

var bucketInternal = []byte("_meta")

// diskEnvelope is the on-disk representation of one cache entry.
type diskEnvelope struct {
	Payload    json.RawMessage `json:"payload"`
	InsertedAt time.Time       `json:"inserted_at"`
	TTLSeconds int             `json:"ttl_seconds"`
}

// NewDiskBackend opens (or creates) the cache database under dir.
// Parent directories are created automatically.
func NewDiskBackend(dir string) (*DiskBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	path := filepath.Join(dir, "fredmcp-cache.db")
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache db %s: %w", path, err)
	}
	b := &DiskBackend{db: db, now: time.Now}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return b, nil
}

// migrate ensures the internal bucket exists and the schema version is set.
func (d *DiskBackend) migrate() error {
	return d.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketInternal)
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", bucketInternal, err)
		}
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", diskSchemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the payload if present and unexpired. Expired and corrupt
// entries report a miss; the stale record is removed on the next Set sweep.
func (d *DiskBackend) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	var env diskEnvelope
	found := false
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &env); err != nil {
			// Corrupt envelope: miss, not failure.
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	if d.now().Sub(env.InsertedAt) > time.Duration(env.TTLSeconds)*time.Second {
		return nil, false, nil
	}
	return env.Payload, true, nil
}

// Set stores the payload, stamping inserted_at. The write is atomic via the
// bbolt transaction.
func (d *DiskBackend) Set(_ context.Context, namespace, key string, payload []byte, ttl time.Duration) error {
	env := diskEnvelope{
		Payload:    json.RawMessage(payload),
		InsertedAt: d.now().UTC(),
		TTLSeconds: int(ttl / time.Second),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding cache envelope: %w", err)
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", namespace, err)
		}
		return b.Put([]byte(key), data)
	})
}

// Delete removes one entry.
func (d *DiskBackend) Delete(_ context.Context, namespace, key string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Clear drops every namespace bucket.
func (d *DiskBackend) Clear(context.Context) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if string(name) == string(bucketInternal) {
				return nil
			}
			return tx.DeleteBucket(name)
		})
	})
}

// Info counts unexpired entries per namespace.
func (d *DiskBackend) Info(context.Context) BackendInfo {
	now := d.now()
	counts := map[string]int{}
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			if string(name) == string(bucketInternal) {
				return nil
			}
			ns := string(name)
			return b.ForEach(func(_, v []byte) error {
				var env diskEnvelope
				if json.Unmarshal(v, &env) != nil {
					return nil
				}
				if now.Sub(env.InsertedAt) <= time.Duration(env.TTLSeconds)*time.Second {
					counts[ns]++
				}
				return nil
			})
		})
	})
	return BackendInfo{Kind: "disk", Connected: err == nil, Entries: counts}
}

// Close closes the database.
func (d *DiskBackend) Close() error {
	return d.db.Close()
}

// Path returns the filesystem path of the open database.
func (d *DiskBackend) Path() string {
	return d.db.Path()
}

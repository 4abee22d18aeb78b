package vpnsched

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite"
)

// Keys held in the persistent store.
const (
	KeySchedules          = "schedules"
	KeySuppressDisconnect = "flags.scheduled_disconnect"
	KeyNotification       = "notification"
	KeyTimers             = "timers"
)

// KV is the persistent byte store backing the schedule store and timer
// service. Get reports absence with ok=false and a nil error.
type KV interface {
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	Close() error
}

// SQLiteKV stores values in a single sqlite table.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the sqlite database at path.
func OpenSQLite(path string) (*SQLiteKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("error: cannot create store directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error: cannot open store database: %w", err)
	}
	// one writer; the orchestrator serializes mutations anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value BLOB NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: failed to create kv table: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

// Get returns the value of key and whether it exists.
func (s *SQLiteKV) Get(key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrPersistence, key, err)
	}
	return v, true, nil
}

// Put stores value under key, replacing any previous value.
func (s *SQLiteKV) Put(key string, value []byte) error {
	_, err := s.db.Exec(`
        INSERT INTO kv (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value
    `, key, value)
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrPersistence, key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// FileKV stores one file per key under dir. Writes go to a temp file that
// is renamed over the target.
type FileKV struct {
	mu  sync.Mutex
	fs  afero.Fs
	dir string
}

// NewFileKV creates dir on fs if needed. Use afero.NewOsFs for disk and
// afero.NewMemMapFs for an in-memory store.
func NewFileKV(fs afero.Fs, dir string) (*FileKV, error) {
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("error: cannot create store directory: %w", err)
	}
	return &FileKV{fs: fs, dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".kv")
}

// Get returns the content of the key file and whether it exists.
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := afero.ReadFile(f.fs, f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrPersistence, key, err)
	}
	return b, true, nil
}

// Put replaces the key file atomically.
func (f *FileKV) Put(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tmp, err := afero.TempFile(f.fs, f.dir, "."+key+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrPersistence, key, err)
	}
	name := tmp.Name()
	if _, err = tmp.Write(value); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = f.fs.Rename(name, f.path(key))
	}
	if err != nil {
		_ = f.fs.Remove(name)
		return fmt.Errorf("%w: put %s: %v", ErrPersistence, key, err)
	}
	return nil
}

// Close is a no-op.
func (f *FileKV) Close() error { return nil }

var (
	_ KV = (*SQLiteKV)(nil)
	_ KV = (*FileKV)(nil)
)

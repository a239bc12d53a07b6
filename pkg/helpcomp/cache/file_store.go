package cache

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	lockName   = ".lock"
	entriesDir = "entries"
	tempPrefix = ".tmp-"
)

// recordHeader is the first line of every entry file; the payload follows.
type recordHeader struct {
	CreatedAt time.Time `json:"created_at"`
	TTL       int64     `json:"ttl_ns"`
}

// FileStore keeps one file per record under dir, sharded by the first two
// characters of the key. Reads and writes take a shared lock on dir/.lock;
// Prune and Clear take it exclusively. Writes go to a uniquely named temp
// file that is renamed into place, so concurrent writers of the same key
// never leave a torn file.
type FileStore struct {
	dir string
}

// NewFileStore opens (creating if needed) a file store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, entriesDir), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store root.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	if len(key) < 3 || key != filepath.Base(key) || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.dir, entriesDir, key[:2], key), nil
}

func (s *FileStore) withLock(exclusive bool, fn func() error) error {
	f, err := os.OpenFile(filepath.Join(s.dir, lockName), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open cache lock: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := lockFile(f, exclusive); err != nil {
		return fmt.Errorf("failed to lock cache: %w", err)
	}
	defer func() { _ = unlockFile(f) }()

	return fn()
}

func (s *FileStore) Get(ctx context.Context, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	path, err := s.path(key)
	if err != nil {
		return Record{}, err
	}

	var rec Record
	err = s.withLock(false, func() error {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read cache entry: %w", err)
		}
		line, payload, ok := strings.Cut(string(data), "\n")
		if !ok {
			return fmt.Errorf("cache entry %s has no header", key)
		}
		var hdr recordHeader
		if err := json.Unmarshal([]byte(line), &hdr); err != nil {
			return fmt.Errorf("cache entry %s has a corrupt header: %w", key, err)
		}
		rec = Record{
			Key:       key,
			Data:      []byte(payload),
			CreatedAt: hdr.CreatedAt,
			TTL:       time.Duration(hdr.TTL),
			Size:      int64(len(payload)),
		}
		return nil
	})
	return rec, err
}

func (s *FileStore) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(rec.Key)
	if err != nil {
		return err
	}
	header, err := json.Marshal(recordHeader{CreatedAt: rec.CreatedAt.UTC(), TTL: int64(rec.TTL)})
	if err != nil {
		return fmt.Errorf("failed to marshal cache header: %w", err)
	}

	return s.withLock(false, func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("failed to create cache shard: %w", err)
		}
		return writeAtomic(path, 0o600, func(w io.Writer) error {
			if _, err := w.Write(header); err != nil {
				return err
			}
			if _, err := w.Write([]byte{'\n'}); err != nil {
				return err
			}
			_, err := w.Write(rec.Data)
			return err
		})
	})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	return s.withLock(false, func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
		return nil
	})
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	var out []Record
	err := s.withLock(false, func() error {
		var err error
		out, err = s.list(ctx)
		return err
	})
	return out, err
}

// list walks the entries directory; callers hold the lock.
func (s *FileStore) list(ctx context.Context) ([]Record, error) {
	var out []Record
	root := filepath.Join(s.dir, entriesDir)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rec, err := readHeader(path)
		if err != nil {
			// unreadable entries are listed with zero metadata so that
			// prune can remove them
			rec = Record{}
		}
		rec.Key = d.Name()
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	return out, nil
}

func readHeader(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return Record{}, err
	}
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil {
		return Record{}, err
	}
	var hdr recordHeader
	if err := json.Unmarshal([]byte(line), &hdr); err != nil {
		return Record{}, err
	}
	return Record{
		CreatedAt: hdr.CreatedAt,
		TTL:       time.Duration(hdr.TTL),
		Size:      info.Size() - int64(len(line)),
	}, nil
}

func (s *FileStore) Prune(ctx context.Context, drop func(Record) bool) (int, error) {
	removed := 0
	err := s.withLock(true, func() error {
		records, err := s.list(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if !drop(rec) {
				continue
			}
			path, err := s.path(rec.Key)
			if err != nil {
				continue
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to delete cache entry: %w", err)
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.withLock(true, func() error {
		root := filepath.Join(s.dir, entriesDir)
		if err := os.RemoveAll(root); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		return os.MkdirAll(root, 0o700)
	})
}

func (s *FileStore) Close() error {
	return nil
}

// writeAtomic writes a file through a uniquely named temp file in the same
// directory followed by fsync and rename.
func writeAtomic(path string, perm os.FileMode, write func(io.Writer) error) error {
	tmpPath := filepath.Join(filepath.Dir(path), tempPrefix+uuid.NewString())
	tmpFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	writer := bufio.NewWriter(tmpFile)
	if err := write(writer); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := writer.Flush(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// WriteFile atomically replaces path with data, creating parent
// directories as needed. It is used for --write completion files.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return writeAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

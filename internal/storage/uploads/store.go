// Package uploads stores report images on the local filesystem under
// server generated names.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cleanCity/pkg/e"

	"github.com/google/uuid"
)

type Store struct {
	dir    string
	logger *slog.Logger
}

// File is an opened upload. Callers must close Content.
type File struct {
	Name    string
	ModTime time.Time
	Size    int64
	Content io.ReadSeekCloser
}

type FileInfo struct {
	Name    string
	ModTime time.Time
}

func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, e.Wrap("uploads.New.MkdirAll", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save writes r to a fresh file and returns its name. The file only becomes
// visible once fully written.
func (s *Store) Save(ctx context.Context, ext string, r io.Reader) (string, error) {
	const op = "uploads.Save"

	if err := ctx.Err(); err != nil {
		return "", e.WrapError(ctx, op, err)
	}

	name := uuid.NewString() + ext

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", e.Wrap(op, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", e.Wrap(op, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", e.Wrap(op, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", e.Wrap(op, err)
	}

	s.logger.Debug("upload stored", slog.String("name", name))
	return name, nil
}

func (s *Store) Open(ctx context.Context, name string) (*File, error) {
	const op = "uploads.Open"

	if !validName(name) {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return nil, e.Wrap(op, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, e.Wrap(op, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	return &File{Name: name, ModTime: st.ModTime(), Size: st.Size(), Content: f}, nil
}

func (s *Store) Remove(ctx context.Context, name string) error {
	const op = "uploads.Remove"

	if !validName(name) {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return e.Wrap(op, err)
	}
	return nil
}

// List returns stored uploads, skipping in-flight temp files.
func (s *Store) List(ctx context.Context) ([]FileInfo, error) {
	const op = "uploads.List"

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || strings.HasPrefix(ent.Name(), ".") {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{Name: ent.Name(), ModTime: info.ModTime()})
	}
	return out, nil
}

func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

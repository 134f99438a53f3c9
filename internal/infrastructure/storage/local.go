// Package storage is the local-disk blob backend. Objects are addressed by
// slash-separated relative handles; writes go to a temp file that is fsynced and
// renamed into place so a blob is either complete or absent.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"secure-share-api/internal/domain/errs"
)

const (
	tmpDirName = ".tmp"
	dirMode    = 0o750
	fileMode   = 0o640
)

var ErrInvalidHandle = errors.New("invalid storage handle")

type Local struct {
	root   string
	logger *zap.Logger
}

func NewLocal(root string, logger *zap.Logger) (*Local, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(filepath.Join(root, tmpDirName), dirMode); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", root, err)
	}

	logger.Info("blob storage ready", zap.String("root", root))

	return &Local{root: root, logger: logger}, nil
}

// Writer buffers a new object in a temp file until Commit.
type Writer struct {
	f      *os.File
	tmp    string
	final  string
	closed bool
}

func (w *Writer) Write(p []byte) (int, error) { return w.f.Write(p) }

// Commit makes the object visible under its handle.
func (w *Writer) Commit() error {
	if w.closed {
		return errors.New("writer already closed")
	}
	w.closed = true

	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = os.Remove(w.tmp)
		return fmt.Errorf("%w: fsync: %v", errs.ErrStorage, err)
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tmp)
		return fmt.Errorf("%w: close: %v", errs.ErrStorage, err)
	}
	if err := os.MkdirAll(filepath.Dir(w.final), dirMode); err != nil {
		_ = os.Remove(w.tmp)
		return fmt.Errorf("%w: mkdir: %v", errs.ErrStorage, err)
	}
	if err := os.Rename(w.tmp, w.final); err != nil {
		_ = os.Remove(w.tmp)
		return fmt.Errorf("%w: rename: %v", errs.ErrStorage, err)
	}

	return nil
}

// Discard drops the temp file. It is a no-op after Commit.
func (w *Writer) Discard() {
	if w.closed {
		return
	}
	w.closed = true
	_ = w.f.Close()
	_ = os.Remove(w.tmp)
}

func (l *Local) Create(handle string) (ObjectWriter, error) {
	final, err := l.resolve(handle)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(filepath.Join(l.root, tmpDirName), "blob-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp: %v", errs.ErrStorage, err)
	}
	if err = f.Chmod(fileMode); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("%w: chmod: %v", errs.ErrStorage, err)
	}

	return &Writer{f: f, tmp: f.Name(), final: final}, nil
}

func (l *Local) Open(handle string) (io.ReadCloser, error) {
	p, err := l.resolve(handle)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s", errs.ErrStorage, errs.ErrNotFound, handle)
		}
		return nil, fmt.Errorf("%w: open: %v", errs.ErrStorage, err)
	}

	return f, nil
}

// Remove fails with an error wrapping both errs.ErrStorage and fs.ErrNotExist when
// the object is already gone.
func (l *Local) Remove(handle string) error {
	p, err := l.resolve(handle)
	if err != nil {
		return err
	}

	if err = os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", errs.ErrStorage, fs.ErrNotExist)
		}
		return fmt.Errorf("%w: remove: %v", errs.ErrStorage, err)
	}

	l.pruneEmptyDirs(filepath.Dir(p))

	return nil
}

func (l *Local) resolve(handle string) (string, error) {
	if handle == "" || strings.Contains(handle, "\\") || strings.ContainsRune(handle, 0) {
		return "", ErrInvalidHandle
	}
	clean := path.Clean(handle)
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") ||
		clean != handle || strings.HasPrefix(clean, tmpDirName+"/") {
		return "", ErrInvalidHandle
	}

	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

// pruneEmptyDirs removes date directories left empty by Remove, stopping at root.
func (l *Local) pruneEmptyDirs(dir string) {
	for dir != l.root && strings.HasPrefix(dir, l.root+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// ObjectWriter is an uncommitted object.
type ObjectWriter interface {
	io.Writer
	Commit() error
	Discard()
}

var _ ObjectWriter = (*Writer)(nil)

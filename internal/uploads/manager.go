// Package uploads stores ticket files on local disk under generated names.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("file exceeds the upload size limit")
	ErrTimeout     = errors.New("upload timed out")
	ErrInvalidName = errors.New("invalid stored file name")
)

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

type Manager struct {
	dir     string
	maxSize int64
	now     func() time.Time
}

// NewManager creates dir if needed. maxSize <= 0 disables the size limit.
func NewManager(dir string, maxSize int64) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Manager{dir: dir, maxSize: maxSize, now: time.Now}, nil
}

func (m *Manager) Dir() string { return m.dir }

// Store copies r to a new file and returns its generated name. Nothing of
// originalName but a sanitized extension is kept. On any failure the partial
// file is removed.
func (m *Manager) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	name := m.newName(originalName)
	path := filepath.Join(m.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	src := r
	if m.maxSize > 0 {
		src = io.LimitReader(r, m.maxSize+1)
	}
	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: src})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && m.maxSize > 0 && n > m.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", fmt.Errorf("store %s: %w", name, ErrTimeout)
		}
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return name, nil
}

// Discard removes a previously stored file.
func (m *Manager) Discard(name string) error {
	path, err := m.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("discard %s: %w", name, err)
	}
	return nil
}

func (m *Manager) Exists(name string) bool {
	path, err := m.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Path resolves a stored name, refusing anything that is not a bare file name.
func (m *Manager) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(m.dir, name), nil
}

// Probe checks the directory is writable.
func (m *Manager) Probe() error {
	path := filepath.Join(m.dir, fmt.Sprintf("test-%d.txt", m.now().UnixNano()))
	if err := os.WriteFile(path, []byte("write-test"), 0o644); err != nil {
		return err
	}
	return os.Remove(path)
}

func (m *Manager) newName(originalName string) string {
	ext := filepath.Ext(filepath.Base(strings.ReplaceAll(originalName, `\`, "/")))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", m.now().UnixMilli(), uuid.NewString(), strings.ToLower(ext))
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

package api

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AttachmentStore keeps uploaded media and hands back an opaque reference.
type AttachmentStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// LocalAttachments stores files under a directory; refs look like /uploads/<name>.
type LocalAttachments struct {
	dir    string
	prefix string
}

func NewLocalAttachments(dir string) (*LocalAttachments, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalAttachments{dir: dir, prefix: "/uploads/"}, nil
}

func (l *LocalAttachments) Dir() string { return l.dir }

func (l *LocalAttachments) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	f, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close attachment: %w", err)
	}
	return l.prefix + name, nil
}

func (l *LocalAttachments) Delete(_ context.Context, ref string) error {
	name := filepath.Base(strings.TrimPrefix(ref, l.prefix))
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

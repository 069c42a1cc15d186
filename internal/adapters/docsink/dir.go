package docsink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexhive/juris-cli/internal/domain"
	"github.com/lexhive/juris-cli/internal/ports"
)

const (
	dirMode  = 0o755
	fileMode = 0o644

	maxNameLength = 120
)

// DirSink writes accepted documents under root/<case number>/<safe name>.
// It owns naming and placement only; whether the bytes are a valid
// document is the caller's problem.
type DirSink struct {
	root string
}

var _ ports.DocumentSink = (*DirSink)(nil)

func NewDirSink(root string) *DirSink {
	return &DirSink{root: root}
}

func (s *DirSink) Accept(ctx context.Context, number domain.CaseNumber, doc domain.Document, body io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	dir := s.root
	if !number.IsZero() {
		dir = filepath.Join(dir, number.String())
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return "", 0, fmt.Errorf("create download directory: %w", err)
	}

	path := filepath.Join(dir, safeFileName(doc))

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return "", 0, fmt.Errorf("create document file: %w", err)
	}

	written, err := io.Copy(file, body)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write document file: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", 0, fmt.Errorf("close document file: %w", err)
	}

	return path, written, nil
}

// safeFileName reduces the document title to a name no filesystem objects
// to, falling back to the document id when nothing survives.
func safeFileName(doc domain.Document) string {
	var b strings.Builder
	for _, r := range doc.Title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	name := strings.Trim(b.String(), "._")
	if name == "" {
		name = doc.ID
	}
	if name == "" {
		name = "document"
	}
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}

	if filepath.Ext(name) == "" {
		name += ".pdf"
	}

	return name
}

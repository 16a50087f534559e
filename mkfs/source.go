package mkfs

import (
	"fmt"
	"io"
	"os"
)

// Source supplies the size and bytes of regular files by entry name.
type Source interface {
	Size(name string) (uint64, error)
	// ReadAt follows io.ReaderAt: fewer than len(p) bytes come with an error,
	// io.EOF at end of file.
	ReadAt(name string, p []byte, off int64) (int, error)
}

// MemSource is a Source over in-memory file contents.
type MemSource map[string][]byte

func (m MemSource) Size(name string) (uint64, error) {
	b, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return uint64(len(b)), nil
}

func (m MemSource) ReadAt(name string, p []byte, off int64) (int, error) {
	b, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

package disk

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/mit-pdos/go-flatfs/util"
)

// zstd frame magic, little-endian 0xFD2FB528
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type SaveOptions struct {
	// Compress writes the image as a single zstd stream.
	Compress bool
}

// Save writes every block of d to path. The image goes to a temporary file in
// the same directory which is synced and then renamed over path, so path
// either keeps its old contents or holds the complete new image. A new image
// is created 0644; a replaced one keeps the old file's permissions.
func Save(path string, d Disk, opts SaveOptions) error {
	n, err := d.Size()
	if err != nil {
		return err
	}
	mode := os.FileMode(0644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}

	if opts.Compress {
		err = saveZstd(name, d, n)
	} else {
		err = saveRaw(name, d, n)
	}
	if err == nil {
		err = os.Chmod(name, mode)
	}
	if err == nil {
		err = os.Rename(name, path)
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("save %s: %w", path, err)
	}
	util.DPrintf(1, "Save: %s %d blocks compress %v\n", path, n, opts.Compress)
	return nil
}

func saveRaw(name string, d Disk, n uint64) error {
	fd, err := NewFileDisk(name, n)
	if err != nil {
		return err
	}
	if err := copyBlocks(fd, d, n); err != nil {
		fd.Close()
		return err
	}
	if err := fd.Barrier(); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

func copyBlocks(dst Disk, src Disk, n uint64) error {
	buf := make(Block, BlockSize)
	for a := uint64(0); a < n; a++ {
		if err := src.ReadTo(a, buf); err != nil {
			return err
		}
		if err := dst.Write(a, buf); err != nil {
			return err
		}
	}
	return nil
}

func saveZstd(name string, d Disk, n uint64) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if err := WriteTo(zw, d); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return f.Close()
}

// WriteTo streams every block of d to w in address order.
func WriteTo(w io.Writer, d Disk) error {
	n, err := d.Size()
	if err != nil {
		return err
	}
	buf := make(Block, BlockSize)
	for a := uint64(0); a < n; a++ {
		if err := d.ReadTo(a, buf); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a raw or zstd-compressed image file into memory.
func Load(path string) (Disk, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(b, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		b, err = dec.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	d, err := NewMemDiskFrom(b)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return d, nil
}

// Package hostdir is the host directory an image is packed from.
package hostdir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/minio/sha256-simd"

	"github.com/mit-pdos/go-flatfs/common"
	"github.com/mit-pdos/go-flatfs/util"
)

const (
	StampName  = "created.txt"
	stampFmt   = "2006-01-02, 15:04:05\n"
	ignoreName = ".gitignore"
)

// Dir implements mkfs.Source over the regular files of a directory.
type Dir struct {
	path    string
	created []string
}

func Open(path string) (*Dir, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s: input is not a directory", path)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) join(name string) string {
	return filepath.Join(d.path, name)
}

// Prepare creates an empty placeholder for each device that has no file yet
// and writes the build time to StampName. Cleanup undoes both.
func (d *Dir) Prepare(now time.Time) error {
	for _, name := range common.DeviceNames {
		f, err := os.OpenFile(d.join(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		d.created = append(d.created, name)
		if err := f.Close(); err != nil {
			return err
		}
	}
	if err := os.WriteFile(d.join(StampName), []byte(now.Format(stampFmt)), 0644); err != nil {
		return err
	}
	d.created = append(d.created, StampName)
	util.DPrintf(2, "Prepare: created %v\n", d.created)
	return nil
}

// Cleanup removes what Prepare created.
func (d *Dir) Cleanup() error {
	var first error
	for _, name := range d.created {
		if err := os.Remove(d.join(name)); err != nil && !os.IsNotExist(err) && first == nil {
			first = err
		}
	}
	d.created = nil
	return first
}

// List returns the names of the regular files in the directory, sorted,
// without .gitignore.
func (d *Dir) List() ([]string, error) {
	ents, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range ents {
		if ent.Name() == ignoreName {
			continue
		}
		if ent.Type()&os.ModeSymlink != 0 {
			// follow links to regular files
			st, err := os.Stat(d.join(ent.Name()))
			if err != nil || !st.Mode().IsRegular() {
				continue
			}
		} else if !ent.Type().IsRegular() {
			continue
		}
		names = append(names, ent.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d *Dir) Size(name string) (uint64, error) {
	st, err := os.Stat(d.join(name))
	if err != nil {
		return 0, err
	}
	if !st.Mode().IsRegular() {
		return 0, fmt.Errorf("%s: not a regular file", name)
	}
	return uint64(st.Size()), nil
}

func (d *Dir) ReadAt(name string, p []byte, off int64) (int, error) {
	f, err := os.Open(d.join(name))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(p, off)
}

// Digest is the SHA-256 of a file's contents.
func (d *Dir) Digest(name string) ([sha256.Size]byte, error) {
	var sum [sha256.Size]byte
	f, err := os.Open(d.join(name))
	if err != nil {
		return sum, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

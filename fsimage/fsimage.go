// Package fsimage is a read-only view of a flat image.
//
// Lookups follow the loader's rules: names compare over at most NameLen bytes,
// reads are clamped to the end of the file, and a file's bytes are the
// concatenation of its pages in the order its inode lists them.
package fsimage

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/go-flatfs/common"
	"github.com/mit-pdos/go-flatfs/disk"
	"github.com/mit-pdos/go-flatfs/layout"
	"github.com/mit-pdos/go-flatfs/util"
)

var (
	ErrNotFound = errors.New("no such entry")
	ErrBadInode = errors.New("inode out of range")
	ErrOffset   = errors.New("offset past end of file")
	ErrCorrupt  = errors.New("corrupt image")
)

type FS struct {
	d       disk.Disk
	boot    disk.Block
	bb      *layout.BootBlock
	nblocks uint64
}

// Open decodes the boot block of d and checks that the header counts agree
// with the size of d.
func Open(d disk.Disk) (*FS, error) {
	n, err := d.Size()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrCorrupt)
	}
	boot, err := d.Read(0)
	if err != nil {
		return nil, err
	}
	bb := layout.DecodeBootBlock(boot)
	if uint64(bb.NumDentries) > common.MaxDentries {
		return nil, fmt.Errorf("%w: %d dentries", ErrCorrupt, bb.NumDentries)
	}
	want := 1 + uint64(bb.NumInodes) + uint64(bb.NumPages)
	if want != n {
		return nil, fmt.Errorf("%w: header says %d blocks, image has %d", ErrCorrupt, want, n)
	}
	util.DPrintf(2, "Open: %d dentries %d inodes %d pages\n", bb.NumDentries, bb.NumInodes, bb.NumPages)
	return &FS{d: d, boot: boot, bb: bb, nblocks: n}, nil
}

func (fs *FS) NumDentries() uint32 { return fs.bb.NumDentries }
func (fs *FS) NumInodes() uint32   { return fs.bb.NumInodes }
func (fs *FS) NumPages() uint32    { return fs.bb.NumPages }

// Dentries returns the live entries in slot order.
func (fs *FS) Dentries() []layout.Dentry {
	return fs.bb.Dentries[:fs.bb.NumDentries]
}

func (fs *FS) DentryByIndex(i uint32) (layout.Dentry, error) {
	if i >= fs.bb.NumDentries {
		return layout.Dentry{}, fmt.Errorf("%w: index %d", ErrNotFound, i)
	}
	return fs.bb.Dentries[i], nil
}

// DentryByName finds name among the live entries. A name longer than NameLen
// never matches.
func (fs *FS) DentryByName(name string) (layout.Dentry, error) {
	if uint64(len(name)) <= common.NameLen {
		for _, de := range fs.Dentries() {
			if layout.NameString(de.Name) == name {
				return de, nil
			}
		}
	}
	return layout.Dentry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

func (fs *FS) inodeAddr(inum common.Inum) uint64 {
	return 1 + uint64(inum)
}

func (fs *FS) pageAddr(pn common.Pnum) uint64 {
	return 1 + uint64(fs.bb.NumInodes) + uint64(pn)
}

func (fs *FS) Inode(inum common.Inum) (layout.Inode, error) {
	if uint32(inum) >= fs.bb.NumInodes {
		return layout.Inode{}, fmt.Errorf("%w: %d", ErrBadInode, inum)
	}
	b, err := fs.d.Read(fs.inodeAddr(inum))
	if err != nil {
		return layout.Inode{}, err
	}
	return layout.DecodeInode(b), nil
}

func (fs *FS) readPage(pn common.Pnum) (disk.Block, error) {
	if uint32(pn) >= fs.bb.NumPages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrCorrupt, pn, fs.bb.NumPages)
	}
	return fs.d.Read(fs.pageAddr(pn))
}

// ReadData copies file bytes starting at off into buf and returns how many
// were copied; reads past the end of the file are clamped.
func (fs *FS) ReadData(inum common.Inum, off uint32, buf []byte) (int, error) {
	ino, err := fs.Inode(inum)
	if err != nil {
		return 0, err
	}
	if off > ino.Size {
		return 0, fmt.Errorf("%w: %d > %d", ErrOffset, off, ino.Size)
	}
	length := util.Min(uint64(len(buf)), uint64(ino.Size-off))
	pos := uint64(off)
	end := pos + length
	n := 0
	for pos < end {
		i := pos / common.PageSize
		if i >= uint64(len(ino.Pages)) {
			return n, fmt.Errorf("%w: inode %d has %d pages", ErrCorrupt, inum, len(ino.Pages))
		}
		blk, err := fs.readPage(ino.Pages[i])
		if err != nil {
			return n, err
		}
		start := pos % common.PageSize
		m := copy(buf[n:length], blk[start:])
		n += m
		pos += uint64(m)
	}
	return n, nil
}

// ReadFile returns the whole contents of the file at inum.
func (fs *FS) ReadFile(inum common.Inum) ([]byte, error) {
	ino, err := fs.Inode(inum)
	if err != nil {
		return nil, err
	}
	if util.RoundUp(uint64(ino.Size), common.PageSize) > uint64(len(ino.Pages)) {
		return nil, fmt.Errorf("%w: inode %d size %d needs more than its %d pages",
			ErrCorrupt, inum, ino.Size, len(ino.Pages))
	}
	buf := make([]byte, ino.Size)
	n, err := fs.ReadData(inum, 0, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Lookup reads the file called name.
func (fs *FS) Lookup(name string) ([]byte, error) {
	de, err := fs.DentryByName(name)
	if err != nil {
		return nil, err
	}
	if de.Type != common.TypeFile {
		return []byte{}, nil
	}
	return fs.ReadFile(de.Inum)
}

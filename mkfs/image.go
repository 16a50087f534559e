// Package mkfs packs a flat list of files into a flat image.
//
// Build runs the whole pipeline: BuildCatalog classifies and sizes the entries,
// AllocInodes and AllocPages place them, and Serialize lays out the boot block,
// the inode table and the data pages on an in-memory disk. Nothing is written
// anywhere until the caller saves the finished image.
package mkfs

import (
	"errors"
	"fmt"
	"io"

	"github.com/mit-pdos/go-flatfs/alloc"
	"github.com/mit-pdos/go-flatfs/common"
	"github.com/mit-pdos/go-flatfs/disk"
	"github.com/mit-pdos/go-flatfs/layout"
	"github.com/mit-pdos/go-flatfs/util"
)

type Image struct {
	Catalog *Catalog
	Disk    disk.Disk
}

// Sizes is the byte size of each image section.
type Sizes struct {
	Boot   uint64
	Inodes uint64
	Data   uint64
}

func (s Sizes) Total() uint64 {
	return s.Boot + s.Inodes + s.Data
}

func (img *Image) Sizes() Sizes {
	return Sizes{
		Boot:   common.PageSize,
		Inodes: common.NumInodes * common.PageSize,
		Data:   img.Catalog.NumPages() * common.PageSize,
	}
}

// NumBlocks is the image length in pages.
func (img *Image) NumBlocks() uint64 {
	return common.DataStart + img.Catalog.NumPages()
}

// Build packs names, reading regular files from src.
func Build(names []string, src Source, rng alloc.Rand) (*Image, error) {
	c, err := BuildCatalog(names, src)
	if err != nil {
		return nil, err
	}
	if err := AllocInodes(c, rng); err != nil {
		return nil, err
	}
	if err := AllocPages(c, rng); err != nil {
		return nil, err
	}
	return Serialize(c, src)
}

func checkAllocated(c *Catalog) error {
	for _, e := range c.Entries {
		if e.IsFile() && e.Inum == common.NULLINUM {
			return fmt.Errorf("%w: %q has no inode", ErrNotAllocated, e.Name)
		}
		if uint64(len(e.Pages)) != e.NumPages {
			return fmt.Errorf("%w: %q has %d of %d pages", ErrNotAllocated, e.Name, len(e.Pages), e.NumPages)
		}
		if e.NumPages > common.NumDirect {
			return fmt.Errorf("%w: %q", ErrPageCapacity, e.Name)
		}
	}
	return nil
}

// Serialize lays out an allocated catalog. Pages not written below (page 0,
// unused inodes, spare pages) stay zero.
func Serialize(c *Catalog, src Source) (*Image, error) {
	if uint64(len(c.Entries)) > common.MaxDentries {
		return nil, ErrTooManyEntries
	}
	if err := checkAllocated(c); err != nil {
		return nil, err
	}
	img := &Image{Catalog: c}
	img.Disk = disk.NewMemDisk(img.NumBlocks())

	if err := img.writeBootBlock(); err != nil {
		return nil, err
	}
	if err := img.writeInodes(); err != nil {
		return nil, err
	}
	if err := img.writeData(src); err != nil {
		return nil, err
	}
	sz := img.Sizes()
	util.DPrintf(1, "Serialize: boot %d inodes %d data %d bytes\n", sz.Boot, sz.Inodes, sz.Data)
	return img, nil
}

func (img *Image) writeBootBlock() error {
	c := img.Catalog
	bb := &layout.BootBlock{
		NumDentries: uint32(len(c.Entries)),
		NumInodes:   uint32(common.NumInodes),
		NumPages:    uint32(c.NumPages()),
	}
	for _, e := range c.Entries {
		bb.Dentries = append(bb.Dentries, e.dentry())
	}
	return img.Disk.Write(0, layout.EncodeBootBlock(bb))
}

func (img *Image) writeInodes() error {
	for _, e := range img.Catalog.Files() {
		ino := layout.Inode{Size: uint32(e.Size), Pages: e.Pages}
		if err := img.Disk.Write(common.InodeAddr(e.Inum), layout.EncodeInode(ino)); err != nil {
			return err
		}
	}
	return nil
}

// writeData fills each file's pages: the i-th page of e.Pages holds bytes
// [i*PageSize, (i+1)*PageSize) of the file.
func (img *Image) writeData(src Source) error {
	for _, e := range img.Catalog.Files() {
		for i, pn := range e.Pages {
			off := uint64(i) * common.PageSize
			blk := make(disk.Block, common.PageSize)
			n := util.Min(common.PageSize, e.Size-off)
			if err := readPage(src, e.Name, blk[:n], off); err != nil {
				return err
			}
			if err := img.Disk.Write(common.PageAddr(pn), blk); err != nil {
				return err
			}
		}
	}
	return nil
}

// readPage reads into p; a file that got shorter since it was sized leaves
// the rest of p zero.
func readPage(src Source, name string, p []byte, off uint64) error {
	n, err := src.ReadAt(name, p, int64(off))
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read %q at %d: %w", name, off, err)
	}
	if n < len(p) {
		util.DPrintf(1, "readPage: %q short at %d: %d of %d bytes\n", name, off, n, len(p))
	}
	return nil
}

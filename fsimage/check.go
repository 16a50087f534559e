package fsimage

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/go-flatfs/alloc"
	"github.com/mit-pdos/go-flatfs/common"
	"github.com/mit-pdos/go-flatfs/layout"
	"github.com/mit-pdos/go-flatfs/util"
)

type checker struct {
	fs    *FS
	errs  []error
	pages *alloc.Alloc // pages some inode references
	owner map[common.Pnum]common.Inum
}

func (c *checker) errorf(format string, a ...interface{}) {
	c.errs = append(c.errs, fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, a...)))
}

// Check verifies the structure of the image and reports every violation it
// finds, joined into one error.
func (fs *FS) Check() error {
	// the extra slot keeps an empty header valid; NumFree then counts exactly
	// the unreferenced pages
	c := &checker{
		fs:    fs,
		pages: alloc.MkMaxAlloc(uint64(fs.bb.NumPages) + 1),
		owner: make(map[common.Pnum]common.Inum),
	}
	c.checkHeader()
	inodes := c.checkDentries()
	c.checkInodes(inodes)
	inUse := uint64(fs.bb.NumPages) - c.pages.NumFree()
	if inUse+common.SparePages != uint64(fs.bb.NumPages) {
		c.errorf("%d pages in use and %d spare, header says %d",
			inUse, common.SparePages, fs.bb.NumPages)
	}
	c.checkPages()
	if len(c.errs) > 0 {
		util.DPrintf(1, "Check: %d problems\n", len(c.errs))
	}
	return errors.Join(c.errs...)
}

func (c *checker) checkHeader() {
	bb := c.fs.bb
	if uint64(bb.NumInodes) != common.NumInodes {
		c.errorf("%d inodes, want %d", bb.NumInodes, common.NumInodes)
	}
	if bb.NumPages == 0 {
		c.errorf("no data pages")
	}
	if !layout.HeaderPadIsZero(c.fs.boot) {
		c.errorf("header padding is not zero")
	}
}

// checkDentries returns the dentry index bound to each used inode.
func (c *checker) checkDentries() map[common.Inum]int {
	bb := c.fs.bb
	inodes := make(map[common.Inum]int)
	names := make(map[layout.Name]int)
	if bb.NumDentries == 0 {
		c.errorf("no self entry")
	}
	for i, de := range bb.Dentries {
		if uint32(i) >= bb.NumDentries {
			if !de.IsZero() || !layout.DentryPadIsZero(c.fs.boot, uint64(i)) {
				c.errorf("unused dentry %d is not zero", i)
			}
			continue
		}
		if !layout.DentryPadIsZero(c.fs.boot, uint64(i)) {
			c.errorf("dentry %d padding is not zero", i)
		}
		if j, ok := names[de.Name]; ok {
			c.errorf("dentries %d and %d are both %q", j, i, layout.NameString(de.Name))
		}
		names[de.Name] = i
		isSelf := layout.NameString(de.Name) == common.SelfName
		if (i == 0) != isSelf || (i == 0) != (de.Type == common.TypeDir) {
			c.errorf("dentry %d: %v; slot 0 and only slot 0 is the directory", i, de)
		}
		switch {
		case de.Type == common.TypeFile:
			if de.Inum == common.NULLINUM || uint32(de.Inum) >= bb.NumInodes {
				c.errorf("dentry %d: file bound to inode %d", i, de.Inum)
				continue
			}
			if j, ok := inodes[de.Inum]; ok {
				c.errorf("dentries %d and %d share inode %d", j, i, de.Inum)
			}
			inodes[de.Inum] = i
		case de.Type == common.TypeDir:
			if de.Inum != common.NULLINUM {
				c.errorf("dentry %d: directory bound to inode %d", i, de.Inum)
			}
		default:
			name := layout.NameString(de.Name)
			if t, ok := common.DeviceType(name); !ok || t != de.Type {
				c.errorf("dentry %d: bad type %d for %q", i, de.Type, name)
			}
			if de.Inum != common.NULLINUM {
				c.errorf("dentry %d: device bound to inode %d", i, de.Inum)
			}
		}
	}
	return inodes
}

// checkInodes marks every page an inode references.
func (c *checker) checkInodes(inodes map[common.Inum]int) {
	for inum := common.Inum(0); uint32(inum) < c.fs.bb.NumInodes; inum++ {
		b, err := c.fs.d.Read(c.fs.inodeAddr(inum))
		if err != nil {
			c.errs = append(c.errs, err)
			return
		}
		if _, used := inodes[inum]; !used {
			if !layout.IsZeroBlock(b) {
				c.errorf("unused inode %d is not zero", inum)
			}
			continue
		}
		ino := layout.DecodeInode(b)
		if util.RoundUp(uint64(ino.Size), common.PageSize) > common.NumDirect {
			c.errorf("inode %d: size %d is too large", inum, ino.Size)
			continue
		}
		if !layout.InodeSlackIsZero(b, ino) {
			c.errorf("inode %d: data after its %d page ids", inum, len(ino.Pages))
		}
		for _, pn := range ino.Pages {
			if pn == common.NULLPNUM || uint32(pn) >= c.fs.bb.NumPages {
				c.errorf("inode %d: page %d out of range", inum, pn)
				continue
			}
			if c.pages.IsUsed(uint64(pn)) {
				c.errorf("page %d is used by inodes %d and %d", pn, c.owner[pn], inum)
				continue
			}
			c.pages.MarkUsed(uint64(pn))
			c.owner[pn] = inum
		}
		c.checkTail(inum, ino)
	}
}

// checkTail verifies that the last page of ino is zero past the end of the
// file.
func (c *checker) checkTail(inum common.Inum, ino layout.Inode) {
	rem := uint64(ino.Size) % common.PageSize
	if rem == 0 || len(ino.Pages) == 0 {
		return
	}
	last := ino.Pages[len(ino.Pages)-1]
	if last == common.NULLPNUM || uint32(last) >= c.fs.bb.NumPages {
		return
	}
	b, err := c.fs.readPage(last)
	if err != nil {
		c.errs = append(c.errs, err)
		return
	}
	if !layout.IsZeroBlock(b[rem:]) {
		c.errorf("inode %d: page %d is not zero past end of file", inum, last)
	}
}

func (c *checker) checkPages() {
	for pn := common.Pnum(0); uint32(pn) < c.fs.bb.NumPages; pn++ {
		if pn != common.NULLPNUM && c.pages.IsUsed(uint64(pn)) {
			continue
		}
		b, err := c.fs.readPage(pn)
		if err != nil {
			c.errs = append(c.errs, err)
			return
		}
		if !layout.IsZeroBlock(b) {
			c.errorf("unused page %d is not zero", pn)
		}
	}
}

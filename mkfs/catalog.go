package mkfs

import (
	"fmt"

	"github.com/mit-pdos/go-flatfs/common"
	"github.com/mit-pdos/go-flatfs/layout"
	"github.com/mit-pdos/go-flatfs/util"
)

// An Entry is one directory entry of the image being built. Inum and Pages
// are filled in by the allocators.
type Entry struct {
	Name     string
	Dname    layout.Name
	Type     common.FileType
	Size     uint64
	NumPages uint64

	Inum  common.Inum
	Pages []common.Pnum // in file order
}

func (e *Entry) IsFile() bool {
	return e.Type == common.TypeFile
}

func (e *Entry) dentry() layout.Dentry {
	return layout.Dentry{Name: e.Dname, Type: e.Type, Inum: e.Inum}
}

// A Catalog is the entries of one image in slot order; the self entry is
// always slot 0 and the rest keep the order they were first seen in.
type Catalog struct {
	Entries       []*Entry
	RequiredPages uint64
}

// NumPages is the size of the data section, spare pages included.
func (c *Catalog) NumPages() uint64 {
	return c.RequiredPages + common.SparePages
}

// Files returns the regular-file entries in slot order.
func (c *Catalog) Files() []*Entry {
	var files []*Entry
	for _, e := range c.Entries {
		if e.IsFile() {
			files = append(files, e)
		}
	}
	return files
}

func countEntries(names []string) uint64 {
	n := uint64(len(names))
	for _, name := range names {
		if name == common.SelfName {
			return n
		}
	}
	return n + 1
}

// BuildCatalog classifies names and sizes the regular files through src. The
// self entry is added if names lacks it.
func BuildCatalog(names []string, src Source) (*Catalog, error) {
	if n := countEntries(names); n > common.MaxDentries {
		return nil, fmt.Errorf("%w: %d, max is %d", ErrTooManyEntries, n, common.MaxDentries)
	}

	ordered := make([]string, 0, len(names)+1)
	ordered = append(ordered, common.SelfName)
	self := false
	for _, name := range names {
		if name == common.SelfName && !self {
			self = true
			continue
		}
		ordered = append(ordered, name)
	}

	c := &Catalog{Entries: make([]*Entry, 0, len(ordered))}
	seen := make(map[layout.Name]string, len(ordered))
	for _, name := range ordered {
		e, err := mkEntry(name, src)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[e.Dname]; ok {
			return nil, fmt.Errorf("%w: %q and %q both become %q",
				ErrDuplicateName, prev, name, layout.NameString(e.Dname))
		}
		seen[e.Dname] = name
		c.Entries = append(c.Entries, e)
		c.RequiredPages += e.NumPages
		util.DPrintf(5, "BuildCatalog: %v size %d pages %d\n", e.dentry(), e.Size, e.NumPages)
	}
	return c, nil
}

func mkEntry(name string, src Source) (*Entry, error) {
	e := &Entry{
		Name:  name,
		Dname: layout.MkName(name),
		Type:  common.Classify(name),
	}
	if !e.IsFile() {
		return e, nil
	}
	sz, err := src.Size(name)
	if err != nil {
		return nil, fmt.Errorf("size of %q: %w", name, err)
	}
	e.Size = sz
	if util.SumOverflows(sz, common.PageSize-1) {
		return nil, fmt.Errorf("%w: %q has %d bytes", ErrPageCapacity, name, sz)
	}
	e.NumPages = util.RoundUp(sz, common.PageSize)
	if e.NumPages > common.NumDirect {
		return nil, fmt.Errorf("%w: %q has %d bytes (%d pages, max %d)",
			ErrPageCapacity, name, sz, e.NumPages, common.NumDirect)
	}
	return e, nil
}

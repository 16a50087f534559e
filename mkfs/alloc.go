package mkfs

import (
	"fmt"

	"github.com/mit-pdos/go-flatfs/alloc"
	"github.com/mit-pdos/go-flatfs/common"
	"github.com/mit-pdos/go-flatfs/util"
)

// AllocInodes binds every regular file to an inode drawn uniformly from
// [1, NumInodes). Directory and device entries get NULLINUM.
func AllocInodes(c *Catalog, rng alloc.Rand) error {
	a := alloc.MkMaxAlloc(common.NumInodes)
	for _, e := range c.Entries {
		if !e.IsFile() {
			e.Inum = common.NULLINUM
			continue
		}
		n, err := a.AllocNum(rng)
		if err != nil {
			return fmt.Errorf("%w: for %q (%d inodes)", ErrInodesExhausted, e.Name, common.NumInodes)
		}
		e.Inum = common.Inum(n)
		util.DPrintf(3, "AllocInodes: %q -> %d\n", e.Name, n)
	}
	return nil
}

// AllocPages gives each file NumPages data pages sampled from [1, NumPages()).
// The sample order is the file's page order.
func AllocPages(c *Catalog, rng alloc.Rand) error {
	a := alloc.MkMaxAlloc(c.NumPages())
	for _, e := range c.Entries {
		e.Pages = nil
		if e.NumPages == 0 {
			continue
		}
		nums, err := a.AllocNums(rng, e.NumPages)
		if err != nil {
			return fmt.Errorf("pages for %q: %w", e.Name, err)
		}
		e.Pages = make([]common.Pnum, len(nums))
		for i, n := range nums {
			e.Pages[i] = common.Pnum(n)
		}
		util.DPrintf(3, "AllocPages: %q -> %v\n", e.Name, e.Pages)
	}
	util.DPrintf(1, "AllocPages: %d pages, %d spare\n", c.NumPages(), a.NumFree())
	return nil
}

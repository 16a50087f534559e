package mkfs

import "errors"

var (
	ErrTooManyEntries  = errors.New("too many directory entries")
	ErrDuplicateName   = errors.New("duplicate 32-byte file name")
	ErrInodesExhausted = errors.New("no free inodes")
	ErrPageCapacity    = errors.New("file needs more pages than an inode can hold")
	ErrNotAllocated    = errors.New("entry not allocated")
)

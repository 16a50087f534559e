// Package disk holds images as arrays of fixed-size blocks, in memory while
// they are built and in files once they are saved.
package disk

import (
	"github.com/tchajed/goose/machine/disk"
)

// Block is one image page
type Block = disk.Block

const BlockSize uint64 = disk.BlockSize

// Disk is a block-addressed image
type Disk interface {
	// Read returns a copy of block a
	//
	// Fails if a >= Size().
	Read(a uint64) (Block, error)

	// ReadTo copies block a into b, which must be block-sized
	ReadTo(a uint64, b Block) error

	// Write replaces block a with v, which must be block-sized
	Write(a uint64, v Block) error

	// Size is the number of blocks, fixed when the disk is made
	Size() (uint64, error)

	// Barrier returns once all writes so far are durable
	Barrier() error

	// Close releases the disk; it is unusable afterwards.
	Close() error
}

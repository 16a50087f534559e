package alloc

import (
	"errors"
	"math/bits"

	"github.com/mit-pdos/go-flatfs/util"
)

var ErrExhausted = errors.New("alloc: no free numbers")

// Rand is the randomness an Alloc draws from. *math/rand.Rand satisfies it.
type Rand interface {
	// Intn returns a uniform number in [0, n).
	Intn(n int) int
}

// Alloc hands out numbers in [1, max) chosen uniformly at random. 0 is never
// free. The bitmap records which numbers are owned; free is the pool drawn
// from, and pos maps a number to its index in free (or -1 while owned).
type Alloc struct {
	max    uint64
	bitmap []byte
	free   []uint64
	pos    []int
}

func MkMaxAlloc(max uint64) *Alloc {
	if max == 0 {
		panic("MkMaxAlloc: max must include number 0")
	}
	a := &Alloc{
		max:    max,
		bitmap: make([]byte, util.RoundUp(max, 8)),
		free:   make([]uint64, 0, max-1),
		pos:    make([]int, max),
	}
	a.setBit(0)
	a.pos[0] = -1
	for n := uint64(1); n < max; n++ {
		a.pos[n] = len(a.free)
		a.free = append(a.free, n)
	}
	return a
}

func (a *Alloc) setBit(n uint64) {
	a.bitmap[n/8] |= 1 << (n % 8)
}

func (a *Alloc) IsUsed(n uint64) bool {
	if n >= a.max {
		return false
	}
	return a.bitmap[n/8]&(1<<(n%8)) != 0
}

// take removes free[i] from the pool by moving the last free number into its
// slot.
func (a *Alloc) take(i int) uint64 {
	n := a.free[i]
	last := len(a.free) - 1
	a.free[i] = a.free[last]
	a.pos[a.free[i]] = i
	a.free = a.free[:last]
	a.pos[n] = -1
	a.setBit(n)
	return n
}

func (a *Alloc) AllocNum(rng Rand) (uint64, error) {
	if len(a.free) == 0 {
		return 0, ErrExhausted
	}
	n := a.take(rng.Intn(len(a.free)))
	util.DPrintf(10, "AllocNum: %d (%d left)\n", n, len(a.free))
	return n, nil
}

// AllocNums draws k distinct numbers without replacement. The result is in
// draw order.
func (a *Alloc) AllocNums(rng Rand, k uint64) ([]uint64, error) {
	if k > uint64(len(a.free)) {
		return nil, ErrExhausted
	}
	nums := make([]uint64, 0, k)
	for i := uint64(0); i < k; i++ {
		nums = append(nums, a.take(rng.Intn(len(a.free))))
	}
	util.DPrintf(10, "AllocNums: %v (%d left)\n", nums, len(a.free))
	return nums, nil
}

// MarkUsed takes n out of the pool without drawing it. Marking a number that
// is already owned is a no-op.
func (a *Alloc) MarkUsed(n uint64) {
	if n >= a.max {
		panic("MarkUsed")
	}
	if i := a.pos[n]; i >= 0 {
		a.take(i)
	}
}

func popCnt(b byte) uint64 {
	return uint64(bits.OnesCount8(b))
}

// NumFree counts free numbers from the bitmap.
func (a *Alloc) NumFree() uint64 {
	var used uint64
	for _, b := range a.bitmap {
		used += popCnt(b)
	}
	return a.max - used
}

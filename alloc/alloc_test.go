package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scripted returns its values in order, reduced modulo n.
type scripted struct {
	vals []int
}

func (s *scripted) Intn(n int) int {
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v % n
}

func TestPopCnt(t *testing.T) {
	assert.Equal(t, uint64(0), popCnt(0))
	assert.Equal(t, uint64(1), popCnt(1))
	assert.Equal(t, uint64(1), popCnt(2))
	assert.Equal(t, uint64(2), popCnt(3))
	assert.Equal(t, uint64(8), popCnt(255))
}

func TestAlloc(t *testing.T) {
	assert := assert.New(t)
	max := uint64(32)
	a := MkMaxAlloc(max)
	rng := &scripted{vals: []int{0, 0}}

	assert.Equal(max-1, a.NumFree(), "everything (but 0) should be initially free")
	assert.True(a.IsUsed(0))

	n, err := a.AllocNum(rng)
	assert.NoError(err)
	assert.Equal(uint64(1), n, "first free slot holds 1")

	a.MarkUsed(n + 1)
	n2, err := a.AllocNum(rng)
	assert.NoError(err)
	assert.NotEqual(n+1, n2, "should not allocate something marked used")
	assert.NotEqual(uint64(0), n2, "should not allocate 0")

	assert.Equal(max-4, a.NumFree(), "should have used 4 items")

	a.MarkUsed(n)
	a.MarkUsed(0)
	assert.Equal(max-4, a.NumFree(), "marking an owned number changes nothing")
	assert.False(a.IsUsed(3))
	assert.False(a.IsUsed(max), "out of range is never used")
}

func TestAllocExhausted(t *testing.T) {
	assert := assert.New(t)
	a := MkMaxAlloc(4)
	rng := rand.New(rand.NewSource(1))

	seen := map[uint64]bool{}
	for i := 0; i < 3; i++ {
		n, err := a.AllocNum(rng)
		assert.NoError(err)
		assert.False(seen[n], "numbers are handed out once")
		assert.NotEqual(uint64(0), n)
		seen[n] = true
	}
	_, err := a.AllocNum(rng)
	assert.Equal(ErrExhausted, err)
	assert.Equal(uint64(0), a.NumFree())
}

func TestAllocNumsOrder(t *testing.T) {
	assert := assert.New(t)
	a := MkMaxAlloc(6) // free: [1 2 3 4 5]
	rng := &scripted{vals: []int{4, 0, 2}}

	nums, err := a.AllocNums(rng, 3)
	assert.NoError(err)
	// 4 -> 5, free [1 2 3 4]; 0 -> 1, free [4 2 3]; 2 -> 3
	assert.Equal([]uint64{5, 1, 3}, nums, "draw order is kept")
	assert.Equal(uint64(2), a.NumFree())
	for _, n := range nums {
		assert.True(a.IsUsed(n))
	}
	assert.False(a.IsUsed(2))
	assert.False(a.IsUsed(4))
}

func TestAllocNumsTooMany(t *testing.T) {
	a := MkMaxAlloc(4)
	rng := rand.New(rand.NewSource(1))
	_, err := a.AllocNums(rng, 4)
	assert.Equal(t, ErrExhausted, err)
	assert.Equal(t, uint64(3), a.NumFree(), "failed draw takes nothing")

	nums, err := a.AllocNums(rng, 0)
	assert.NoError(t, err)
	assert.Empty(t, nums)
}

func TestAllocUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	counts := make([]int, 8)
	for i := 0; i < 7000; i++ {
		a := MkMaxAlloc(8)
		n, err := a.AllocNum(rng)
		assert.NoError(t, err)
		counts[n]++
	}
	assert.Equal(t, 0, counts[0])
	for n := 1; n < 8; n++ {
		assert.InDelta(t, 1000, counts[n], 150, "number %d", n)
	}
}

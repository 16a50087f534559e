package layout

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-flatfs/common"
)

func le32(b []byte, off uint64) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func TestMkName(t *testing.T) {
	assert := assert.New(t)
	n := MkName("a.txt")
	assert.Equal([]byte("a.txt"), n[:5])
	assert.Equal(make([]byte, 27), n[5:], "zero padded")
	assert.Equal("a.txt", NameString(n))

	long := strings.Repeat("x", 40)
	n = MkName(long)
	assert.Equal(long[:32], NameString(n), "truncated to 32 bytes, no terminator")

	assert.Equal(MkName(strings.Repeat("y", 32)+"1"), MkName(strings.Repeat("y", 32)+"2"))
}

func TestBootBlockBytes(t *testing.T) {
	assert := assert.New(t)
	bb := &BootBlock{
		NumDentries: 3,
		NumInodes:   64,
		NumPages:    27,
		Dentries: []Dentry{
			{Name: MkName("."), Type: common.TypeDir},
			{Name: MkName("rtc"), Type: common.TypeRTC},
			{Name: MkName("a.txt"), Type: common.TypeFile, Inum: 17},
		},
	}
	b := EncodeBootBlock(bb)
	assert.Equal(int(disk.BlockSize), len(b))
	assert.Equal(uint32(3), le32(b, 0))
	assert.Equal(uint32(64), le32(b, 4))
	assert.Equal(uint32(27), le32(b, 8))
	assert.True(HeaderPadIsZero(b))

	// slot 2 starts at 64 + 2*64
	off := uint64(192)
	assert.Equal([]byte("a.txt"), b[off:off+5])
	assert.Equal(uint32(common.TypeFile), le32(b, off+32))
	assert.Equal(uint32(17), le32(b, off+36))
	for i := uint64(0); i < 3; i++ {
		assert.True(DentryPadIsZero(b, i))
	}
	assert.Equal(uint32(common.TypeDir), le32(b, 64+32))
	assert.True(IsZeroBlock(b[256:]), "unused slots are zero")
}

func TestBootBlockDecode(t *testing.T) {
	assert := assert.New(t)
	des := []Dentry{
		{Name: MkName("."), Type: common.TypeDir},
		{Name: MkName("frame0.txt"), Type: common.TypeFile, Inum: 5},
	}
	b := EncodeBootBlock(&BootBlock{NumDentries: 2, NumInodes: 64, NumPages: 26, Dentries: des})
	bb := DecodeBootBlock(b)
	assert.Equal(uint32(2), bb.NumDentries)
	assert.Equal(uint32(64), bb.NumInodes)
	assert.Equal(uint32(26), bb.NumPages)
	assert.Equal(int(common.MaxDentries), len(bb.Dentries))
	assert.Equal(des, bb.Dentries[:2])
	assert.True(bb.Dentries[2].IsZero())
	assert.Equal("frame0.txt", NameString(bb.Dentries[1].Name))
}

func TestBootBlockFull(t *testing.T) {
	des := make([]Dentry, common.MaxDentries)
	for i := range des {
		des[i] = Dentry{Name: MkName(strings.Repeat("z", i%32+1)), Type: common.TypeFile, Inum: common.Inum(i + 1)}
	}
	b := EncodeBootBlock(&BootBlock{NumDentries: 63, Dentries: des})
	bb := DecodeBootBlock(b)
	assert.Equal(t, des, bb.Dentries)
	assert.Panics(t, func() {
		EncodeBootBlock(&BootBlock{Dentries: append(des, Dentry{})})
	})
}

func TestInodeBytes(t *testing.T) {
	assert := assert.New(t)
	ino := Inode{Size: 5000, Pages: []common.Pnum{9, 3}}
	b := EncodeInode(ino)
	assert.Equal(uint32(5000), le32(b, 0))
	assert.Equal(uint32(9), le32(b, 4))
	assert.Equal(uint32(3), le32(b, 8))
	assert.True(InodeSlackIsZero(b, ino))

	got := DecodeInode(b)
	assert.Equal(ino, got, "page order survives")
}

func TestInodeEmpty(t *testing.T) {
	b := EncodeInode(Inode{Size: 0, Pages: []common.Pnum{}})
	assert.True(t, IsZeroBlock(b))
	ino := DecodeInode(b)
	assert.Equal(t, uint32(0), ino.Size)
	assert.Empty(t, ino.Pages)
}

func TestInodeFull(t *testing.T) {
	assert := assert.New(t)
	pages := make([]common.Pnum, common.NumDirect)
	for i := range pages {
		pages[i] = common.Pnum(i + 1)
	}
	ino := Inode{Size: uint32(common.NumDirect * common.PageSize), Pages: pages}
	b := EncodeInode(ino)
	assert.Equal(uint32(common.NumDirect), le32(b, disk.BlockSize-4))
	assert.Equal(ino, DecodeInode(b))

	assert.Panics(func() {
		EncodeInode(Inode{Pages: append(pages, 1)})
	})
}

func TestInodeSlack(t *testing.T) {
	b := EncodeInode(Inode{Size: 10, Pages: []common.Pnum{4}})
	b[100] = 1
	ino := DecodeInode(b)
	assert.False(t, InodeSlackIsZero(b, ino))
}

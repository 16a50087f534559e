// Package layout encodes and decodes the fixed-width records of a flat image.
//
// All integers are 4-byte little-endian words. The boot block is a 64-byte
// header (dentry count, inode count, data page count, zero padding) followed by
// MaxDentries 64-byte dentries (32-byte name, type, inode, zero padding). An
// inode page is the file size followed by up to NumDirect page ids.
package layout

import (
	"bytes"
	"fmt"

	"github.com/tchajed/goose/machine/disk"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-flatfs/common"
)

const (
	hdrPad    = common.BOOTHDRSZ - 3*4
	dentryPad = common.DentrySize - common.NameLen - 2*4
)

type Name = [common.NameLen]byte

// MkName truncates s to NameLen bytes, zero-padding a shorter name.
func MkName(s string) Name {
	var n Name
	copy(n[:], s)
	return n
}

// NameString returns the name up to its first zero byte.
func NameString(n Name) string {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return string(n[:i])
	}
	return string(n[:])
}

type Dentry struct {
	Name Name
	Type common.FileType
	Inum common.Inum
}

func (de Dentry) String() string {
	return fmt.Sprintf("%q %v inode %d", NameString(de.Name), de.Type, de.Inum)
}

// IsZero reports an unused dentry slot.
func (de Dentry) IsZero() bool {
	return de == Dentry{}
}

type BootBlock struct {
	NumDentries uint32
	NumInodes   uint32
	NumPages    uint32
	// the first NumDentries slots are live; the rest must be zero
	Dentries []Dentry
}

func putDentry(enc *marshal.Enc, de Dentry) {
	enc.PutBytes(de.Name[:])
	enc.PutInt32(uint32(de.Type))
	enc.PutInt32(uint32(de.Inum))
	enc.PutBytes(make([]byte, dentryPad))
}

func getDentry(dec *marshal.Dec) Dentry {
	var de Dentry
	copy(de.Name[:], dec.GetBytes(common.NameLen))
	de.Type = common.FileType(dec.GetInt32())
	de.Inum = common.Inum(dec.GetInt32())
	dec.GetBytes(dentryPad)
	return de
}

func EncodeBootBlock(bb *BootBlock) disk.Block {
	if uint64(len(bb.Dentries)) > common.MaxDentries {
		panic("EncodeBootBlock: too many dentries")
	}
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt32(bb.NumDentries)
	enc.PutInt32(bb.NumInodes)
	enc.PutInt32(bb.NumPages)
	enc.PutBytes(make([]byte, hdrPad))
	for _, de := range bb.Dentries {
		putDentry(&enc, de)
	}
	return enc.Finish()
}

// DecodeBootBlock decodes the header and all MaxDentries slots.
func DecodeBootBlock(b disk.Block) *BootBlock {
	if uint64(len(b)) != disk.BlockSize {
		panic("DecodeBootBlock: not a block")
	}
	dec := marshal.NewDec(b)
	bb := &BootBlock{}
	bb.NumDentries = dec.GetInt32()
	bb.NumInodes = dec.GetInt32()
	bb.NumPages = dec.GetInt32()
	dec.GetBytes(hdrPad)
	bb.Dentries = make([]Dentry, common.MaxDentries)
	for i := range bb.Dentries {
		bb.Dentries[i] = getDentry(&dec)
	}
	return bb
}

// HeaderPadIsZero checks the reserved bytes after the header counts.
func HeaderPadIsZero(b disk.Block) bool {
	return isZero(b[3*4 : common.BOOTHDRSZ])
}

// DentryPadIsZero checks the reserved bytes of dentry slot i.
func DentryPadIsZero(b disk.Block, i uint64) bool {
	off := common.BOOTHDRSZ + i*common.DentrySize
	return isZero(b[off+common.DentrySize-dentryPad : off+common.DentrySize])
}

type Inode struct {
	Size  uint32
	Pages []common.Pnum
}

func EncodeInode(ino Inode) disk.Block {
	if uint64(len(ino.Pages)) > common.NumDirect {
		panic("EncodeInode: too many pages")
	}
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt32(ino.Size)
	for _, pn := range ino.Pages {
		enc.PutInt32(uint32(pn))
	}
	return enc.Finish()
}

// DecodeInode decodes the size and the page ids the size calls for, capped at
// NumDirect.
func DecodeInode(b disk.Block) Inode {
	if uint64(len(b)) != disk.BlockSize {
		panic("DecodeInode: not a block")
	}
	dec := marshal.NewDec(b)
	ino := Inode{Size: dec.GetInt32()}
	n := (uint64(ino.Size) + common.PageSize - 1) / common.PageSize
	if n > common.NumDirect {
		n = common.NumDirect
	}
	ino.Pages = make([]common.Pnum, n)
	for i := range ino.Pages {
		ino.Pages[i] = common.Pnum(dec.GetInt32())
	}
	return ino
}

// InodeSlackIsZero checks that nothing follows the page ids of ino in b.
func InodeSlackIsZero(b disk.Block, ino Inode) bool {
	return isZero(b[4+4*uint64(len(ino.Pages)):])
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// IsZeroBlock reports an all-zero page.
func IsZeroBlock(b disk.Block) bool {
	return isZero(b)
}

// Package common holds the fixed geometry of a flat image and the identifier
// types shared by the packer and the reader.
//
// An image is a sequence of PageSize pages:
//
//	[ boot block | inode table (NumInodes pages) | data pages ]
//	  page 0       pages 1..NumInodes              NumInodes+1 ..
package common

import (
	"github.com/tchajed/goose/machine/disk"
)

const (
	PageSize uint64 = disk.BlockSize

	NameLen     uint64 = 32
	DentrySize  uint64 = 64
	MaxDentries uint64 = 63
	NumInodes   uint64 = 64
	SparePages  uint64 = 25

	BOOTHDRSZ uint64 = 64 // counts plus padding, same width as a dentry

	// an inode page holds the size word then page ids
	NumDirect uint64 = (PageSize - 4) / 4

	InodeStart uint64 = 1
	DataStart  uint64 = InodeStart + NumInodes
)

// Inum names an inode record; 0 is never bound to a file.
type Inum uint32

// Pnum names a data page; 0 is never bound to a file.
type Pnum uint32

const (
	NULLINUM Inum = 0
	NULLPNUM Pnum = 0
)

// SelfName is the directory's own entry, always in slot 0.
const SelfName = "."

// FileType is the on-disk type code of a directory entry.
type FileType uint32

const (
	TypeRTC   FileType = 0
	TypeDir   FileType = 1
	TypeFile  FileType = 2
	TypeMouse FileType = 3
	TypeTaux  FileType = 4
	TypeSound FileType = 5
	TypeTTY   FileType = 6
)

var deviceTypes = map[string]FileType{
	"rtc":   TypeRTC,
	"mouse": TypeMouse,
	"taux":  TypeTaux,
	"sound": TypeSound,
	"tty":   TypeTTY,
}

// DeviceNames lists the recognized device entries in type-code order.
var DeviceNames = []string{"rtc", "mouse", "taux", "sound", "tty"}

// DeviceType reports the type code of a device name.
func DeviceType(name string) (FileType, bool) {
	t, ok := deviceTypes[name]
	return t, ok
}

// Classify maps an entry name to its type code.
func Classify(name string) FileType {
	if name == SelfName {
		return TypeDir
	}
	if t, ok := DeviceType(name); ok {
		return t
	}
	return TypeFile
}

func (t FileType) String() string {
	switch t {
	case TypeDir:
		return "dir"
	case TypeFile:
		return "file"
	}
	for name, dt := range deviceTypes {
		if dt == t {
			return name
		}
	}
	return "unknown"
}

// PageAddr is the image page holding data page pn.
func PageAddr(pn Pnum) uint64 {
	return DataStart + uint64(pn)
}

// InodeAddr is the image page holding inode inum.
func InodeAddr(inum Inum) uint64 {
	return InodeStart + uint64(inum)
}

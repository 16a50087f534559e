package common

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometry(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(4096), PageSize)
	assert.Equal(uint64(1023), NumDirect)
	assert.Equal(BOOTHDRSZ+MaxDentries*DentrySize, PageSize,
		"header and dentries fill the boot block")
	assert.Equal(uint64(65), DataStart)
	assert.Equal(uint64(65), PageAddr(0))
	assert.Equal(uint64(64), InodeAddr(63))
}

func TestClassify(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(TypeDir, Classify("."))
	assert.Equal(TypeRTC, Classify("rtc"))
	assert.Equal(TypeMouse, Classify("mouse"))
	assert.Equal(TypeTaux, Classify("taux"))
	assert.Equal(TypeSound, Classify("sound"))
	assert.Equal(TypeTTY, Classify("tty"))
	assert.Equal(FileType(6), Classify("tty"))
	assert.Equal(FileType(0), Classify("rtc"))

	assert.Equal(TypeFile, Classify("frame0.txt"))
	assert.Equal(TypeFile, Classify("TTY"), "match is exact")
	assert.Equal(TypeFile, Classify("rtc "))
	assert.Equal(TypeFile, Classify(".."))
}

func TestDeviceNames(t *testing.T) {
	for _, name := range DeviceNames {
		typ, ok := DeviceType(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, typ.String())
	}
	_, ok := DeviceType(SelfName)
	assert.False(t, ok)
	assert.Equal(t, "dir", TypeDir.String())
	assert.Equal(t, "file", TypeFile.String())
	assert.Equal(t, "unknown", FileType(42).String())
}

func TestIdentifierTypes(t *testing.T) {
	assert := assert.New(t)
	assert.NotEqual(reflect.TypeOf(uint32(0)), reflect.TypeOf(NULLPNUM), "page ids are their own type")
	assert.NotEqual(reflect.TypeOf(NULLINUM), reflect.TypeOf(NULLPNUM))
	assert.Equal(reflect.Uint32, reflect.TypeOf(NULLPNUM).Kind(), "page ids stay 32-bit on disk")
}

package util

import (
	"log"
	"sync/atomic"
)

var debug uint64

// SetDebug sets the highest DPrintf level that is printed.
func SetDebug(level uint64) {
	atomic.StoreUint64(&debug, level)
}

func DPrintf(level uint64, format string, a ...interface{}) {
	if level <= atomic.LoadUint64(&debug) {
		log.Printf(format, a...)
	}
}

// RoundUp returns the number of sz-sized units needed to hold n.
func RoundUp(n uint64, sz uint64) uint64 {
	return (n + sz - 1) / sz
}

func Min(n uint64, m uint64) uint64 {
	if n < m {
		return n
	} else {
		return m
	}
}

func SumOverflows(n uint64, m uint64) bool {
	return n+m < n
}

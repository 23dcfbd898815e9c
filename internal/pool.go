package internal

import "sync"

// Size-bucketed frame buffers. Most inbound messages are tiny command
// envelopes; the big bucket only exists so one oversized frame does not
// force an allocation path of its own.
var pool64 = sync.Pool{New: func() any {
	buf := make([]byte, 64)
	return &buf
}}
var pool512 = sync.Pool{New: func() any {
	buf := make([]byte, 512)
	return &buf
}}
var pool4K = sync.Pool{New: func() any {
	buf := make([]byte, 4096)
	return &buf
}}
var pool64K = sync.Pool{New: func() any {
	buf := make([]byte, 65536)
	return &buf
}}

func getBufferForSize(size int) *[]byte {
	switch {
	case size <= 64:
		return pool64.Get().(*[]byte)
	case size <= 512:
		return pool512.Get().(*[]byte)
	case size <= 4096:
		return pool4K.Get().(*[]byte)
	default:
		return pool64K.Get().(*[]byte)
	}
}

func putBuffer(buf *[]byte) {
	switch cap(*buf) {
	case 64:
		pool64.Put(buf)
	case 512:
		pool512.Put(buf)
	case 4096:
		pool4K.Put(buf)
	case 65536:
		pool64K.Put(buf)
	}
}

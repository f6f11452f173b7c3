// Package status holds the stable, abstract return-code taxonomy shared by
// every layer of the storage engine. The pagefile, bufferpool, heap, index
// and engine packages return errors that wrap one of these with %w so
// callers can errors.Is against the stable name regardless of which layer
// raised it. The record package's validation errors,
// bufferpool.ErrUnsupportedStrategy, and engine.ErrTableExists /
// ErrIndexExists are plain errors that wrap no status code.
package status

import "errors"

var (
	ErrFileNotFound         = errors.New("file not found")
	ErrFileHandleNotInit    = errors.New("file handle not initialized")
	ErrWriteFailed          = errors.New("write failed")
	ErrReadFailed           = errors.New("read failed")
	ErrReadNonExistingPage  = errors.New("read of non-existing page")
	ErrDestroyFailed        = errors.New("destroy failed")
	ErrMemoryAllocationFail = errors.New("memory allocation failed")
	ErrBufferPoolFull       = errors.New("buffer pool full")
	ErrBufferPoolInUse      = errors.New("buffer pool in use")
	ErrCloseFailed          = errors.New("close failed")
	ErrRecordNotFound       = errors.New("record not found")
	ErrKeyNotFound          = errors.New("key not found")
	ErrNoMoreEntries        = errors.New("no more entries")
	ErrNoMoreTuples         = errors.New("no more tuples")
	ErrInvalidHeader        = errors.New("invalid header")
	ErrGeneralError         = errors.New("general error")
)

// Package pagefile implements fixed-size block I/O over a single regular
// file: the bottom layer of the storage engine. A File's length is always an
// integer multiple of PageSize; block N occupies the byte range
// [N*PageSize, (N+1)*PageSize).
package pagefile

import (
	"fmt"
	"io"
	"os"

	"github.com/blockwisedb/blockwise/internal/status"
)

// PageSize is the fixed block size used throughout the engine.
const PageSize = 8192

// File is an open page file: a filename, the total page count, a cursor
// page used by the convenience readers, and the underlying descriptor.
type File struct {
	name       string
	f          *os.File
	totalPages uint32
	curPage    uint32
}

// Create makes a new file containing exactly one zero-filled page.
func Create(name string) error {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("pagefile: create %s: %w: %w", name, status.ErrFileNotFound, err)
	}
	defer f.Close()

	if _, err := f.Write(make([]byte, PageSize)); err != nil {
		return fmt.Errorf("pagefile: create %s: %w: %w", name, status.ErrWriteFailed, err)
	}
	return nil
}

// Open opens an existing page file, computing total page count from the
// file's current size and resetting the cursor to page 0.
func Open(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pagefile: open %s: %w: %w", name, status.ErrFileNotFound, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pagefile: stat %s: %w: %w", name, status.ErrFileNotFound, err)
	}

	return &File{
		name:       name,
		f:          f,
		totalPages: uint32(info.Size() / PageSize),
		curPage:    0,
	}, nil
}

// Close releases the underlying descriptor. After Close, ReadBlock,
// WriteBlock and a second Close return ErrFileHandleNotInit.
func (h *File) Close() error {
	if h == nil || h.f == nil {
		return status.ErrFileHandleNotInit
	}
	err := h.f.Close()
	h.f = nil
	if err != nil {
		return fmt.Errorf("pagefile: close %s: %w: %w", h.name, status.ErrCloseFailed, err)
	}
	return nil
}

// Destroy removes a page file from disk. The file must not be open.
func Destroy(name string) error {
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("pagefile: destroy %s: %w: %w", name, status.ErrDestroyFailed, err)
	}
	return nil
}

// TotalPages returns the current page count.
func (h *File) TotalPages() uint32 {
	return h.totalPages
}

// ReadBlock copies exactly PageSize bytes from block n into buf, and moves
// the cursor to n. n must be in [0, TotalPages()).
func (h *File) ReadBlock(n uint32, buf []byte) error {
	if h == nil || h.f == nil {
		return status.ErrFileHandleNotInit
	}
	if len(buf) != PageSize {
		return fmt.Errorf("pagefile: buffer must be %d bytes: %w", PageSize, status.ErrGeneralError)
	}
	if n >= h.totalPages {
		return fmt.Errorf("pagefile: block %d out of range (total %d): %w", n, h.totalPages, status.ErrReadNonExistingPage)
	}

	nRead, err := h.f.ReadAt(buf, int64(n)*PageSize)
	if err != nil || nRead != PageSize {
		return fmt.Errorf("pagefile: short read at block %d: %w: %w", n, status.ErrReadNonExistingPage, err)
	}
	h.curPage = n
	return nil
}

// WriteBlock writes exactly PageSize bytes to block n, and moves the cursor
// to n. n may equal TotalPages(), in which case the write behaves as an
// append and grows the file by one page.
func (h *File) WriteBlock(n uint32, buf []byte) error {
	if h == nil || h.f == nil {
		return status.ErrFileHandleNotInit
	}
	if len(buf) != PageSize {
		return fmt.Errorf("pagefile: buffer must be %d bytes: %w", PageSize, status.ErrGeneralError)
	}
	if n > h.totalPages {
		return fmt.Errorf("pagefile: write at %d beyond end (total %d): %w", n, h.totalPages, status.ErrWriteFailed)
	}

	nWritten, err := h.f.WriteAt(buf, int64(n)*PageSize)
	if err != nil || nWritten != PageSize {
		return fmt.Errorf("pagefile: short write at block %d: %w: %w", n, status.ErrWriteFailed, err)
	}
	if n == h.totalPages {
		h.totalPages++
	}
	h.curPage = n
	return nil
}

// AppendEmptyBlock extends the file by one zero-filled page and positions
// the cursor on it.
func (h *File) AppendEmptyBlock() error {
	return h.WriteBlock(h.totalPages, make([]byte, PageSize))
}

// EnsureCapacity appends empty blocks until the file holds at least k pages.
func (h *File) EnsureCapacity(k uint32) error {
	for h.totalPages < k {
		if err := h.AppendEmptyBlock(); err != nil {
			return err
		}
	}
	return nil
}

// First reads block 0.
func (h *File) First(buf []byte) error { return h.ReadBlock(0, buf) }

// Current re-reads the page the cursor currently points at.
func (h *File) Current(buf []byte) error { return h.ReadBlock(h.curPage, buf) }

// Next reads the block after the cursor.
func (h *File) Next(buf []byte) error { return h.ReadBlock(h.curPage+1, buf) }

// Prev reads the block before the cursor. Requires curPage > 0.
func (h *File) Prev(buf []byte) error {
	if h.curPage == 0 {
		return fmt.Errorf("pagefile: no block before 0: %w", status.ErrReadNonExistingPage)
	}
	return h.ReadBlock(h.curPage-1, buf)
}

// Last reads the final block in the file.
func (h *File) Last(buf []byte) error {
	if h.totalPages == 0 {
		return fmt.Errorf("pagefile: file has no blocks: %w", status.ErrReadNonExistingPage)
	}
	return h.ReadBlock(h.totalPages-1, buf)
}

var _ io.Closer = (*File)(nil)

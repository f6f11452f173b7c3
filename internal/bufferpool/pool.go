// Package bufferpool implements the in-memory frame cache over a page
// file, with pin/unpin reference counting, dirty tracking, and
// replacement-strategy-driven eviction.
package bufferpool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blockwisedb/blockwise/internal/lock"
	"github.com/blockwisedb/blockwise/internal/pagefile"
	"github.com/blockwisedb/blockwise/internal/status"
)

const logPrefix = "bufferpool: "

// NoPage is the sentinel page number recorded for an empty frame.
const NoPage = ^uint32(0)

var (
	// ErrBufferPoolFull wraps status.ErrBufferPoolFull: no evictable frame
	// was found (every resident frame is pinned).
	ErrBufferPoolFull = fmt.Errorf("bufferpool: no unpinned frame available: %w", status.ErrBufferPoolFull)

	// ErrBufferPoolInUse wraps status.ErrBufferPoolInUse: Shutdown was
	// called while at least one frame is still pinned.
	ErrBufferPoolInUse = fmt.Errorf("bufferpool: shutdown with pinned frames: %w", status.ErrBufferPoolInUse)
)

// frame holds one resident page's bytes and bookkeeping.
type frame struct {
	pageNum uint32
	data    []byte // PageSize bytes, a view into Pool.buf
	dirty   bool
	pin     lock.PinCount
}

// PageHandle is the caller-visible reference returned by PinPage: the page
// number and a borrowed view of its frame bytes, valid until the matching
// UnpinPage.
type PageHandle struct {
	PageNum uint32
	Data    []byte

	frameIdx int
}

// Pool is a fixed-size buffer pool bound to one pagefile.File.
type Pool struct {
	file     *pagefile.File
	strategy Strategy
	replacer Replacer

	mu        sync.Mutex
	buf       []byte
	frames    []*frame       // len == capacity; nil == empty
	pageTable map[uint32]int // pageNum -> frame index

	numReadIO  uint64
	numWriteIO uint64
}

// Init opens a buffer pool of numFrames frames backed by file, using the
// given replacement strategy. All frames start out empty.
func Init(file *pagefile.File, numFrames int, strategy Strategy) (*Pool, error) {
	if numFrames <= 0 {
		numFrames = 1
	}
	replacer, err := newReplacer(strategy, numFrames)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		file:      file,
		strategy:  strategy,
		replacer:  replacer,
		buf:       make([]byte, numFrames*pagefile.PageSize),
		frames:    make([]*frame, numFrames),
		pageTable: make(map[uint32]int, numFrames),
	}
	slog.Debug(logPrefix+"init", "numFrames", numFrames, "strategy", strategy.String())
	return p, nil
}

// Shutdown flushes all dirty frames and releases the pool. Fails with
// ErrBufferPoolInUse if any frame is still pinned.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.frames {
		if f != nil && !f.pin.IsZero() {
			return ErrBufferPoolInUse
		}
	}
	if err := p.flushAllLocked(); err != nil {
		return err
	}
	p.frames = nil
	p.pageTable = nil
	p.buf = nil
	slog.Debug(logPrefix + "shutdown")
	return nil
}

// PinPage resolves pageNum to a resident frame, loading or evicting as
// needed, and returns a handle borrowing that frame's bytes.
func (p *Pool) PinPage(pageNum uint32) (*PageHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx, ok := p.pageTable[pageNum]; ok {
		f := p.frames[idx]
		newCount := f.pin.Inc()
		p.replacer.RecordAccess(idx)
		if newCount == 1 {
			p.replacer.SetEvictable(idx, false)
		}
		slog.Debug(logPrefix+"pin hit", "pageNum", pageNum, "frame", idx, "fixCnt", newCount)
		return &PageHandle{PageNum: pageNum, Data: f.data, frameIdx: idx}, nil
	}

	freeIdx := -1
	for i, f := range p.frames {
		if f == nil {
			freeIdx = i
			break
		}
	}

	if freeIdx != -1 {
		data, err := p.loadLocked(pageNum, freeIdx)
		if err != nil {
			return nil, err
		}
		f := &frame{pageNum: pageNum, data: data}
		f.pin.Inc()
		p.frames[freeIdx] = f
		p.pageTable[pageNum] = freeIdx
		p.replacer.RecordAccess(freeIdx)
		p.replacer.SetEvictable(freeIdx, false)
		slog.Debug(logPrefix+"pin free frame", "pageNum", pageNum, "frame", freeIdx)
		return &PageHandle{PageNum: pageNum, Data: data, frameIdx: freeIdx}, nil
	}

	victimIdx, ok := p.replacer.Evict()
	if !ok {
		return nil, ErrBufferPoolFull
	}
	victim := p.frames[victimIdx]
	if victim.dirty {
		if err := p.writeBackLocked(victim); err != nil {
			return nil, err
		}
	}
	delete(p.pageTable, victim.pageNum)

	data, err := p.loadLocked(pageNum, victimIdx)
	if err != nil {
		return nil, err
	}
	victim.pageNum = pageNum
	victim.data = data
	victim.dirty = false
	victim.pin.Inc()
	p.pageTable[pageNum] = victimIdx
	p.replacer.RecordAccess(victimIdx)
	p.replacer.SetEvictable(victimIdx, false)
	slog.Debug(logPrefix+"pin evicted", "pageNum", pageNum, "frame", victimIdx)
	return &PageHandle{PageNum: pageNum, Data: data, frameIdx: victimIdx}, nil
}

// loadLocked ensures the file has pageNum resident (extending it with zero
// pages first if pageNum is at or past EOF) and copies it into frame idx's
// slice of Pool.buf.
func (p *Pool) loadLocked(pageNum uint32, idx int) ([]byte, error) {
	if pageNum >= p.file.TotalPages() {
		if err := p.file.EnsureCapacity(pageNum + 1); err != nil {
			return nil, err
		}
	}
	data := p.buf[idx*pagefile.PageSize : (idx+1)*pagefile.PageSize]
	if err := p.file.ReadBlock(pageNum, data); err != nil {
		return nil, err
	}
	p.numReadIO++
	return data, nil
}

func (p *Pool) writeBackLocked(f *frame) error {
	if err := p.file.EnsureCapacity(f.pageNum + 1); err != nil {
		return err
	}
	if err := p.file.WriteBlock(f.pageNum, f.data); err != nil {
		return err
	}
	f.dirty = false
	p.numWriteIO++
	return nil
}

// UnpinPage decrements the fix count for pageNum. Idempotent / silent on an
// unknown page.
func (p *Pool) UnpinPage(pageNum uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageNum]
	if !ok {
		return nil
	}
	f := p.frames[idx]
	if !f.pin.IsZero() && f.pin.Dec() == 0 {
		p.replacer.SetEvictable(idx, true)
	}
	return nil
}

// MarkDirty flags pageNum's frame as dirty, if resident.
func (p *Pool) MarkDirty(pageNum uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageNum]
	if !ok {
		return nil
	}
	p.frames[idx].dirty = true
	return nil
}

// ForcePage writes pageNum's frame back immediately, regardless of fix
// count, and clears dirty.
func (p *Pool) ForcePage(pageNum uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageNum]
	if !ok {
		return fmt.Errorf("bufferpool: force unknown page %d: %w", pageNum, status.ErrGeneralError)
	}
	return p.writeBackLocked(p.frames[idx])
}

// ForceFlushPool writes back every unpinned dirty frame.
func (p *Pool) ForceFlushPool() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushAllLocked()
}

func (p *Pool) flushAllLocked() error {
	for _, f := range p.frames {
		if f == nil || !f.pin.IsZero() || !f.dirty {
			continue
		}
		if err := p.writeBackLocked(f); err != nil {
			return err
		}
	}
	return nil
}

// GetFrameContents returns the page number resident in each frame, NoPage
// where empty.
func (p *Pool) GetFrameContents() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint32, len(p.frames))
	for i, f := range p.frames {
		if f == nil {
			out[i] = NoPage
		} else {
			out[i] = f.pageNum
		}
	}
	return out
}

// GetDirtyFlags returns the dirty bit of each frame.
func (p *Pool) GetDirtyFlags() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bool, len(p.frames))
	for i, f := range p.frames {
		out[i] = f != nil && f.dirty
	}
	return out
}

// GetFixCounts returns the fix count of each frame.
func (p *Pool) GetFixCounts() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.frames))
	for i, f := range p.frames {
		if f != nil {
			out[i] = int(f.pin.Get())
		}
	}
	return out
}

func (p *Pool) GetNumReadIO() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numReadIO
}

func (p *Pool) GetNumWriteIO() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numWriteIO
}

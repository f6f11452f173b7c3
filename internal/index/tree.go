package index

import (
	"fmt"
	"log/slog"

	"github.com/blockwisedb/blockwise/internal/bufferpool"
	"github.com/blockwisedb/blockwise/internal/heap"
	"github.com/blockwisedb/blockwise/internal/pagefile"
	"github.com/blockwisedb/blockwise/internal/record"
	"github.com/blockwisedb/blockwise/internal/status"
)

const (
	metaPageNum        = 0
	firstNodePageNum   = 1
	createBufferFrames = 3
	// DefaultOpenBufferFrames is the buffer pool size OpenBtree uses by
	// default.
	DefaultOpenBufferFrames = 8
)

var (
	// ErrKeyNotFound wraps status.ErrKeyNotFound.
	ErrKeyNotFound = fmt.Errorf("index: key not found: %w", status.ErrKeyNotFound)

	// ErrNoMoreEntries wraps status.ErrNoMoreEntries.
	ErrNoMoreEntries = fmt.Errorf("index: scan exhausted: %w", status.ErrNoMoreEntries)

	// ErrTreeClosed is returned by any operation on a Tree after Close.
	ErrTreeClosed = fmt.Errorf("index: tree is closed: %w", status.ErrFileHandleNotInit)
)

// Tree is a keyed Value -> RID index: a singly-linked chain of fixed-size
// nodes, appended to at the tail and scanned in ascending key order by
// sorting the whole chain at scan-open time.
type Tree struct {
	path string
	file *pagefile.File
	pool *bufferpool.Pool

	keyType   record.DataType
	keyLength int
	keyWidth  int
	capacity  int

	numNodes     uint32
	numEntries   uint32
	headNodePage uint32
	tailNodePage uint32

	closed bool
}

// CreateBtree creates the backing page file and an empty root node holding
// up to n keys. If n is <= 0 or larger than what fits in one page, the
// per-node capacity is clamped to what fits (a node is always exactly one
// page).
func CreateBtree(path string, keyType record.DataType, keyLength, n int) error {
	keyWidth := record.Width(keyType, keyLength)
	maxFit := nodeCapacity(pagefile.PageSize, keyWidth)
	capacity := n
	if capacity <= 0 || capacity > maxFit {
		slog.Warn("index: requested node capacity does not fit one page, clamping", "requested", n, "max", maxFit)
		capacity = maxFit
	}

	if err := pagefile.Create(path); err != nil {
		return err
	}
	f, err := pagefile.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pool, err := bufferpool.Init(f, createBufferFrames, bufferpool.FIFO)
	if err != nil {
		return err
	}

	metaH, err := pool.PinPage(metaPageNum)
	if err != nil {
		return err
	}
	copy(metaH.Data, encodeMeta(treeMeta{
		KeyType:      keyType,
		KeyLength:    keyLength,
		Capacity:     capacity,
		NumNodes:     1,
		NumEntries:   0,
		HeadNodePage: firstNodePageNum,
		TailNodePage: firstNodePageNum,
	}))
	if err := pool.MarkDirty(metaPageNum); err != nil {
		return err
	}
	if err := pool.UnpinPage(metaPageNum); err != nil {
		return err
	}

	rootH, err := pool.PinPage(firstNodePageNum)
	if err != nil {
		return err
	}
	writeNodeHeader(rootH.Data, 0, noNext)
	if err := pool.MarkDirty(firstNodePageNum); err != nil {
		return err
	}
	if err := pool.UnpinPage(firstNodePageNum); err != nil {
		return err
	}

	slog.Debug("index: created btree", "path", path, "keyType", keyType.String(), "capacity", capacity)
	return pool.Shutdown()
}

// OpenBtree opens an existing index with the default buffer pool size.
func OpenBtree(path string) (*Tree, error) {
	return OpenBtreeWithCapacity(path, DefaultOpenBufferFrames, bufferpool.FIFO)
}

// OpenBtreeWithCapacity opens an existing index with an explicit buffer
// pool size and strategy.
func OpenBtreeWithCapacity(path string, bpFrames int, strategy bufferpool.Strategy) (*Tree, error) {
	f, err := pagefile.Open(path)
	if err != nil {
		return nil, err
	}
	pool, err := bufferpool.Init(f, bpFrames, strategy)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	metaH, err := pool.PinPage(metaPageNum)
	if err != nil {
		_ = pool.Shutdown()
		_ = f.Close()
		return nil, err
	}
	m, err := decodeMeta(metaH.Data)
	if err != nil {
		_ = pool.UnpinPage(metaPageNum)
		_ = pool.Shutdown()
		_ = f.Close()
		return nil, err
	}
	if err := pool.UnpinPage(metaPageNum); err != nil {
		return nil, err
	}

	return &Tree{
		path:         path,
		file:         f,
		pool:         pool,
		keyType:      m.KeyType,
		keyLength:    m.KeyLength,
		keyWidth:     record.Width(m.KeyType, m.KeyLength),
		capacity:     m.Capacity,
		numNodes:     m.NumNodes,
		numEntries:   m.NumEntries,
		headNodePage: m.HeadNodePage,
		tailNodePage: m.TailNodePage,
	}, nil
}

// DeleteBtree destroys the underlying page file. The tree must not be open.
func DeleteBtree(path string) error {
	return pagefile.Destroy(path)
}

// GetNumEntries returns the live entry count.
func (t *Tree) GetNumEntries() uint32 { return t.numEntries }

// GetNumNodes returns the chain length.
func (t *Tree) GetNumNodes() uint32 { return t.numNodes }

// GetKeyType returns the DataType fixed at CreateBtree.
func (t *Tree) GetKeyType() record.DataType { return t.keyType }

func (t *Tree) ensureOpen() error {
	if t.closed {
		return ErrTreeClosed
	}
	return nil
}

// Close writes back the tree metadata and shuts down the buffer pool.
// Idempotent.
func (t *Tree) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	metaH, err := t.pool.PinPage(metaPageNum)
	if err != nil {
		return err
	}
	copy(metaH.Data, encodeMeta(treeMeta{
		KeyType:      t.keyType,
		KeyLength:    t.keyLength,
		Capacity:     t.capacity,
		NumNodes:     t.numNodes,
		NumEntries:   t.numEntries,
		HeadNodePage: t.headNodePage,
		TailNodePage: t.tailNodePage,
	}))
	if err := t.pool.MarkDirty(metaPageNum); err != nil {
		return err
	}
	if err := t.pool.UnpinPage(metaPageNum); err != nil {
		return err
	}
	if err := t.pool.Shutdown(); err != nil {
		return err
	}
	return t.file.Close()
}

// InsertKey appends (key, rid) to the tail node, allocating and linking a
// new node when the tail is full. Appending rather than replacing means a
// duplicate key's most recent RID is always the last match FindKey sees.
func (t *Tree) InsertKey(key record.Value, rid heap.RID) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	keyBytes, err := encodeKey(key, t.keyWidth)
	if err != nil {
		return err
	}

	tailH, err := t.pool.PinPage(t.tailNodePage)
	if err != nil {
		return err
	}
	count, next := readNodeHeader(tailH.Data)

	if int(count) < t.capacity {
		writeEntry(tailH.Data, int(count), t.keyWidth, keyBytes, rid)
		writeNodeHeader(tailH.Data, count+1, next)
		if err := t.pool.MarkDirty(t.tailNodePage); err != nil {
			return err
		}
		if err := t.pool.UnpinPage(t.tailNodePage); err != nil {
			return err
		}
		t.numEntries++
		return nil
	}

	// Tail is full: allocate and link a new node.
	newPage := t.file.TotalPages()
	writeNodeHeader(tailH.Data, count, int32(newPage))
	if err := t.pool.MarkDirty(t.tailNodePage); err != nil {
		return err
	}
	if err := t.pool.UnpinPage(t.tailNodePage); err != nil {
		return err
	}

	newH, err := t.pool.PinPage(newPage)
	if err != nil {
		return err
	}
	writeNodeHeader(newH.Data, 1, noNext)
	writeEntry(newH.Data, 0, t.keyWidth, keyBytes, rid)
	if err := t.pool.MarkDirty(newPage); err != nil {
		return err
	}
	if err := t.pool.UnpinPage(newPage); err != nil {
		return err
	}

	t.tailNodePage = newPage
	t.numNodes++
	t.numEntries++
	return nil
}

// visitChain calls fn for every node page in the chain, in chain order.
func (t *Tree) visitChain(fn func(pageNum uint32) error) error {
	page := t.headNodePage
	for {
		if err := fn(page); err != nil {
			return err
		}
		h, err := t.pool.PinPage(page)
		if err != nil {
			return err
		}
		_, next := readNodeHeader(h.Data)
		if err := t.pool.UnpinPage(page); err != nil {
			return err
		}
		if next == noNext {
			return nil
		}
		page = uint32(next)
	}
}

// FindKey returns the last-inserted RID for key. Fails with ErrKeyNotFound
// on miss.
func (t *Tree) FindKey(key record.Value) (heap.RID, error) {
	if err := t.ensureOpen(); err != nil {
		return heap.RID{}, err
	}
	found := false
	var result heap.RID

	err := t.visitChain(func(page uint32) error {
		h, err := t.pool.PinPage(page)
		if err != nil {
			return err
		}
		defer t.pool.UnpinPage(page)

		count, _ := readNodeHeader(h.Data)
		for i := 0; i < int(count); i++ {
			live, keyBytes, rid := readEntry(h.Data, i, t.keyWidth)
			if !live {
				continue
			}
			if compareKeys(decodeKey(t.keyType, keyBytes), key) == 0 {
				found = true
				result = rid
			}
		}
		return nil
	})
	if err != nil {
		return heap.RID{}, err
	}
	if !found {
		return heap.RID{}, ErrKeyNotFound
	}
	return result, nil
}

// DeleteKey removes every entry with this key.
func (t *Tree) DeleteKey(key record.Value) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	return t.visitChain(func(page uint32) error {
		h, err := t.pool.PinPage(page)
		if err != nil {
			return err
		}
		defer t.pool.UnpinPage(page)

		count, _ := readNodeHeader(h.Data)
		dirty := false
		for i := 0; i < int(count); i++ {
			live, keyBytes, _ := readEntry(h.Data, i, t.keyWidth)
			if !live {
				continue
			}
			if compareKeys(decodeKey(t.keyType, keyBytes), key) == 0 {
				markEntryDeleted(h.Data, i, t.keyWidth)
				t.numEntries--
				dirty = true
			}
		}
		if dirty {
			return t.pool.MarkDirty(page)
		}
		return nil
	})
}

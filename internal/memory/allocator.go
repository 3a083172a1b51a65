package memory

import (
	"slices"
	"sort"
)

// DefaultGrowthFactor is applied to a buffer's capacity when an allocation
// does not fit.
const DefaultGrowthFactor = 1.5

// MoveFunc is called once for every surviving slot whose body-local index
// changed during a compaction.
type MoveFunc func(c *Chunk, oldLocal, newLocal int)

// Remap maps an absolute index from before a compaction to its index after
// it, or -1 when the slot was removed. A nil Remap is the identity.
type Remap []int32

func identityRemap(n int) Remap {
	r := make(Remap, n)
	for i := range r {
		r[i] = int32(i)
	}
	return r
}

// Index returns the new position of abs and whether it survived.
// Indices outside the remapped range are returned unchanged.
func (r Remap) Index(abs int32) (int32, bool) {
	if r == nil || abs < 0 || int(abs) >= len(r) {
		return abs, true
	}
	n := r[abs]
	return n, n >= 0
}

// Removed counts the slots r marks as removed.
func (r Remap) Removed() int {
	n := 0
	for _, v := range r {
		if v < 0 {
			n++
		}
	}
	return n
}

// Allocator lends contiguous chunks of a shared buffer. The chunks it has
// handed out always tile [0, Used()) with no gaps.
type Allocator struct {
	kind   Kind
	buffer Buffer
	chunks []*Chunk
	used   int
	growth float64
	onMove MoveFunc
}

func NewAllocator(kind Kind, buffer Buffer, capacity int, growth float64) *Allocator {
	if growth <= 1 {
		growth = DefaultGrowthFactor
	}
	if capacity > buffer.Len() {
		buffer.Resize(capacity)
	}
	return &Allocator{
		kind:   kind,
		buffer: buffer,
		growth: growth,
	}
}

func (a *Allocator) Kind() Kind     { return a.kind }
func (a *Allocator) Used() int      { return a.used }
func (a *Allocator) Capacity() int  { return a.buffer.Len() }
func (a *Allocator) Buffer() Buffer { return a.buffer }

// SetMoveFunc installs the index-change hook. Passing nil removes it.
func (a *Allocator) SetMoveFunc(fn MoveFunc) { a.onMove = fn }

// Chunks returns the live chunks ordered by begin index.
func (a *Allocator) Chunks() []*Chunk {
	return slices.Clone(a.chunks)
}

// Allocate reserves count contiguous slots at the end of the used region,
// growing the buffer when needed. New slots are zeroed.
func (a *Allocator) Allocate(count int) *Chunk {
	if count < 0 {
		count = 0
	}
	a.reserve(a.used + count)
	c := &Chunk{kind: a.kind, begin: a.used, size: count}
	a.buffer.Clear(c.begin, count)
	a.used += count
	a.chunks = append(a.chunks, c)
	return c
}

// Owner returns the chunk containing the absolute slot abs, or nil.
func (a *Allocator) Owner(abs int) *Chunk {
	if abs < 0 || abs >= a.used {
		return nil
	}
	i := sort.Search(len(a.chunks), func(i int) bool {
		return a.chunks[i].EndIndex() > abs
	})
	if i < len(a.chunks) && a.chunks[i].InRange(abs) {
		return a.chunks[i]
	}
	return nil
}

// Resize changes the size of c. Growing shifts later chunks right and zeroes
// the new slots; shrinking drops the chunk's tail.
func (a *Allocator) Resize(c *Chunk, size int) Remap {
	k := a.indexOf(c)
	if k < 0 || size < 0 || size == c.size {
		return nil
	}
	if size < c.size {
		tail := make([]int, 0, c.size-size)
		for i := size; i < c.size; i++ {
			tail = append(tail, i)
		}
		return a.RemoveIndices(c, tail)
	}

	delta := size - c.size
	a.reserve(a.used + delta)

	remap := identityRemap(a.used)
	end := c.EndIndex()
	if n := a.used - end; n > 0 {
		a.buffer.Move(end+delta, end, n)
		for i := end; i < a.used; i++ {
			remap[i] = int32(i + delta)
		}
	}
	a.buffer.Clear(end, delta)
	for _, later := range a.chunks[k+1:] {
		later.begin += delta
	}
	c.size = size
	a.used += delta
	return remap
}

// RemoveIndices drops the given body-local indices from c. Survivors keep
// their relative order: slots after a removed one shift left within the chunk
// and every later chunk shifts left by the number of removed slots.
// Duplicate and out-of-range indices are ignored.
func (a *Allocator) RemoveIndices(c *Chunk, locals []int) Remap {
	k := a.indexOf(c)
	if k < 0 {
		return nil
	}

	removed := make([]bool, c.size)
	count := 0
	for _, l := range locals {
		if c.Contains(l) && !removed[l] {
			removed[l] = true
			count++
		}
	}
	if count == 0 {
		return nil
	}

	type move struct{ from, to int }
	var moves []move

	remap := identityRemap(a.used)
	dst := 0
	for src := 0; src < c.size; src++ {
		abs := c.begin + src
		if removed[src] {
			remap[abs] = -1
			continue
		}
		if dst != src {
			a.buffer.Move(c.begin+dst, abs, 1)
			remap[abs] = int32(c.begin + dst)
			moves = append(moves, move{src, dst})
		}
		dst++
	}

	a.closeGap(k, c.EndIndex(), count, remap)
	c.size -= count

	if a.onMove != nil {
		for _, m := range moves {
			a.onMove(c, m.from, m.to)
		}
	}
	return remap
}

// Free returns every slot of c and compacts the chunks after it. The chunk is
// unusable afterwards.
func (a *Allocator) Free(c *Chunk) Remap {
	k := a.indexOf(c)
	if k < 0 {
		return nil
	}

	var remap Remap
	if c.size > 0 {
		remap = identityRemap(a.used)
		for i := c.begin; i < c.EndIndex(); i++ {
			remap[i] = -1
		}
		a.closeGap(k, c.EndIndex(), c.size, remap)
	}

	a.chunks = slices.Delete(a.chunks, k, k+1)
	c.size = 0
	c.freed = true
	return remap
}

// closeGap shifts everything from end onward left by n and moves the begin of
// every chunk after index k.
func (a *Allocator) closeGap(k, end, n int, remap Remap) {
	if tail := a.used - end; tail > 0 {
		a.buffer.Move(end-n, end, tail)
		for i := end; i < a.used; i++ {
			remap[i] = int32(i - n)
		}
	}
	for _, later := range a.chunks[k+1:] {
		later.begin -= n
	}
	a.used -= n
}

func (a *Allocator) reserve(n int) {
	capacity := a.buffer.Len()
	if n <= capacity {
		return
	}
	next := int(float64(capacity) * a.growth)
	if next < n {
		next = n
	}
	a.buffer.Resize(next)
}

func (a *Allocator) indexOf(c *Chunk) int {
	if c == nil || c.freed || c.kind != a.kind {
		return -1
	}
	return slices.Index(a.chunks, c)
}

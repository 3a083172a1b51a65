package memory

// Buffer is the storage an Allocator manages. Implementations keep any number
// of parallel columns in lockstep.
type Buffer interface {
	Len() int
	Resize(n int)
	// Move copies n slots from src to dst. Ranges may overlap.
	Move(dst, src, n int)
	Clear(from, n int)
}

type column[T any] []T

func (c *column[T]) resize(n int) {
	switch {
	case n <= len(*c):
		*c = (*c)[:n]
	case n <= cap(*c):
		old := len(*c)
		*c = (*c)[:n]
		clear((*c)[old:])
	default:
		grown := make([]T, n)
		copy(grown, *c)
		*c = grown
	}
}

func (c *column[T]) move(dst, src, n int) {
	copy((*c)[dst:dst+n], (*c)[src:src+n])
}

func (c *column[T]) zero(from, n int) {
	clear((*c)[from : from+n])
}

type columnOps interface {
	resize(n int)
	move(dst, src, n int)
	zero(from, n int)
}

// table implements Buffer over a fixed set of columns.
type table struct {
	n    int
	cols []columnOps
}

func (t *table) Len() int { return t.n }

func (t *table) Resize(n int) {
	for _, c := range t.cols {
		c.resize(n)
	}
	t.n = n
}

func (t *table) Move(dst, src, n int) {
	if n <= 0 || dst == src {
		return
	}
	for _, c := range t.cols {
		c.move(dst, src, n)
	}
}

func (t *table) Clear(from, n int) {
	if n <= 0 {
		return
	}
	for _, c := range t.cols {
		c.zero(from, n)
	}
}

package memory

import "fmt"

// Kind names a shared buffer.
type Kind int

const (
	KindParticles Kind = iota
	KindSprings
	KindTriangles
	KindRigids
	KindRigidComponents
	KindInflatables

	kindCount
)

var kindNames = [...]string{
	KindParticles:       "particles",
	KindSprings:         "springs",
	KindTriangles:       "triangles",
	KindRigids:          "rigids",
	KindRigidComponents: "rigid_components",
	KindInflatables:     "inflatables",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every buffer kind in allocation order.
func Kinds() []Kind {
	return []Kind{KindParticles, KindSprings, KindTriangles, KindRigids, KindRigidComponents, KindInflatables}
}

// Chunk is a contiguous run of slots owned by one body within a shared
// buffer. It covers the half-open range [BeginIndex, EndIndex).
//
// Chunks are handed out and patched by their Allocator; holders must not
// cache absolute indices across a compaction.
type Chunk struct {
	kind  Kind
	begin int
	size  int
	freed bool
}

func (c *Chunk) Kind() Kind { return c.kind }

// Size is the number of slots in the chunk. A nil chunk has size zero.
func (c *Chunk) Size() int {
	if c == nil {
		return 0
	}
	return c.size
}

func (c *Chunk) BeginIndex() int { return c.begin }

// EndIndex is one past the last slot of the chunk.
func (c *Chunk) EndIndex() int { return c.begin + c.size }

// Freed reports whether the chunk was returned to its allocator.
func (c *Chunk) Freed() bool { return c != nil && c.freed }

// Contains reports whether local is a valid body-local index.
func (c *Chunk) Contains(local int) bool {
	return c != nil && local >= 0 && local < c.size
}

// InRange reports whether the absolute slot abs belongs to the chunk.
func (c *Chunk) InRange(abs int) bool {
	return c != nil && abs >= c.begin && abs < c.begin+c.size
}

// BufferIndex translates a body-local index into an absolute slot.
func (c *Chunk) BufferIndex(local int) int { return c.begin + local }

// ChunkIndex translates an absolute slot into a body-local index.
func (c *Chunk) ChunkIndex(abs int) int { return abs - c.begin }

func (c *Chunk) String() string {
	if c == nil {
		return "<nil chunk>"
	}
	return fmt.Sprintf("%s[%d,%d)", c.kind, c.begin, c.EndIndex())
}

func (c *Chunk) mustBufferIndex(local int) int {
	if !c.Contains(local) {
		panic(fmt.Sprintf("memory: index %d out of range for %v", local, c))
	}
	return c.begin + local
}

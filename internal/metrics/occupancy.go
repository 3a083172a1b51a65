package metrics

import (
	"github.com/san-kum/flexsim/internal/memory"
	"github.com/san-kum/flexsim/internal/space"
)

// Occupancy is the mean used fraction of one shared buffer.
type Occupancy struct {
	kind    memory.Kind
	sum     float64
	samples int
}

func NewOccupancy(kind memory.Kind) *Occupancy {
	return &Occupancy{kind: kind}
}

func (o *Occupancy) Name() string { return "occupancy_" + o.kind.String() }

func (o *Occupancy) Observe(sp *space.Space, t float64) {
	o.sum += sp.Stats().Usage(o.kind).Occupancy()
	o.samples++
}

func (o *Occupancy) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return o.sum / float64(o.samples)
}

func (o *Occupancy) Reset() {
	o.sum = 0
	o.samples = 0
}

// Churn is the mean number of slots released per observed step, summed over
// every buffer.
type Churn struct {
	name    string
	base    uint64
	last    uint64
	started bool
	samples int
}

func NewChurn() *Churn {
	return &Churn{name: "churn"}
}

func (c *Churn) Name() string { return c.name }

func (c *Churn) Observe(sp *space.Space, t float64) {
	var removed uint64
	for _, u := range sp.Stats().Buffers {
		removed += u.Removed
	}
	if !c.started {
		c.base = removed
		c.started = true
	}
	c.last = removed
	c.samples++
}

func (c *Churn) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.last-c.base) / float64(c.samples)
}

func (c *Churn) Reset() {
	c.base = 0
	c.last = 0
	c.started = false
	c.samples = 0
}

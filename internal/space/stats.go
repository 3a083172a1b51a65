package space

import "github.com/san-kum/flexsim/internal/memory"

// Usage describes one shared buffer.
type Usage struct {
	Kind     memory.Kind
	Used     int
	Capacity int
	Chunks   int
	// Removed counts slots released since the space was created.
	Removed uint64
}

// Occupancy is the used fraction of the buffer, 0 when it has no capacity.
func (u Usage) Occupancy() float64 {
	if u.Capacity == 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Capacity)
}

type Stats struct {
	Steps   uint64
	Bodies  int
	Backend string
	Buffers []Usage
}

// Usage returns the entry for kind k.
func (s Stats) Usage(k memory.Kind) Usage {
	for _, u := range s.Buffers {
		if u.Kind == k {
			return u
		}
	}
	return Usage{Kind: k}
}

func (s *Space) Stats() Stats {
	st := Stats{
		Steps:  s.steps,
		Bodies: len(s.bodies),
	}
	if s.backend != nil {
		st.Backend = s.backend.Name()
	}
	for _, k := range memory.Kinds() {
		a := s.store.Allocator(k)
		st.Buffers = append(st.Buffers, Usage{
			Kind:     k,
			Used:     a.Used(),
			Capacity: a.Capacity(),
			Chunks:   len(a.Chunks()),
			Removed:  s.removed[k],
		})
	}
	return st
}

package body

// Phase word layout consumed by the solver: the low 20 bits carry the
// collision group, bits 20-23 the collision flags and the top byte the
// primitive channel mask.
const (
	PhaseGroupMask         uint32 = 0x000fffff
	PhaseFlagsMask         uint32 = 0x00f00000
	PhaseShapeChannelMask  uint32 = 0xff000000
	PhaseSelfCollide       uint32 = 1 << 20
	PhaseSelfCollideFilter uint32 = 1 << 21
	PhaseFluid             uint32 = 1 << 22
	PhaseShapeChannel0     uint32 = 1 << 24

	// MaxCollisionGroup is the exclusive upper bound of a collision group.
	MaxCollisionGroup uint32 = 1 << 20
)

type CollisionFlag int

const (
	CollisionFlagSelfCollide CollisionFlag = iota
	CollisionFlagSelfCollideFilter
	CollisionFlagFluid
)

func collisionFlagBit(f CollisionFlag) uint32 {
	switch f {
	case CollisionFlagSelfCollide:
		return PhaseSelfCollide
	case CollisionFlagSelfCollideFilter:
		return PhaseSelfCollideFilter
	case CollisionFlagFluid:
		return PhaseFluid
	}
	return 0
}

// SetCollisionGroup ignores groups that do not fit in the phase word.
func (b *Body) SetCollisionGroup(group uint32) {
	if group >= MaxCollisionGroup {
		return
	}
	b.collisionGroup = group
	b.changed |= ChangedPhase
}

func (b *Body) CollisionGroup() uint32 { return b.collisionGroup }

func (b *Body) SetCollisionFlag(f CollisionFlag, active bool) {
	if active {
		b.collisionFlags |= collisionFlagBit(f)
	} else {
		b.collisionFlags &^= collisionFlagBit(f)
	}
	b.changed |= ChangedPhase
}

func (b *Body) CollisionFlag(f CollisionFlag) bool {
	return b.collisionFlags&collisionFlagBit(f) != 0
}

// SetCollisionPrimitiveMask takes an 8-bit channel mask.
func (b *Body) SetCollisionPrimitiveMask(mask uint32) {
	b.collisionPrimitiveMask = PhaseShapeChannelMask & (mask << 24)
	b.changed |= ChangedPhase
}

func (b *Body) CollisionPrimitiveMask() uint32 {
	return b.collisionPrimitiveMask >> 24
}

// Phase packs group, flags and primitive mask into the solver phase word.
func (b *Body) Phase() int32 {
	return int32(b.collisionGroup&PhaseGroupMask | b.collisionFlags&PhaseFlagsMask | b.collisionPrimitiveMask)
}

// SetCollisionPrimitiveMaskBit toggles one of the 8 primitive channels.
// Bits outside [0, 8) are ignored.
func (b *Body) SetCollisionPrimitiveMaskBit(bit int, on bool) {
	if bit < 0 || bit >= 8 {
		return
	}
	mask := b.CollisionPrimitiveMask()
	if on {
		mask |= 1 << bit
	} else {
		mask &^= 1 << bit
	}
	b.SetCollisionPrimitiveMask(mask)
}

func (b *Body) CollisionPrimitiveMaskBit(bit int) bool {
	if bit < 0 || bit >= 8 {
		return false
	}
	return b.CollisionPrimitiveMask()&(1<<bit) != 0
}

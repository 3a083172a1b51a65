package memory

// Spring holds two absolute particle indices.
type Spring [2]int32

// Triangle holds three absolute particle indices.
type Triangle [3]int32

type SpringsMemory struct {
	table
	springs   column[Spring]
	lengths   column[float32]
	stiffness column[float32]
}

func NewSpringsMemory() *SpringsMemory {
	m := &SpringsMemory{}
	m.cols = []columnOps{&m.springs, &m.lengths, &m.stiffness}
	return m
}

func (m *SpringsMemory) Spring(c *Chunk, i int) Spring {
	return m.springs[c.mustBufferIndex(i)]
}

func (m *SpringsMemory) SetSpring(c *Chunk, i int, s Spring) {
	m.springs[c.mustBufferIndex(i)] = s
}

func (m *SpringsMemory) Length(c *Chunk, i int) float32 {
	return m.lengths[c.mustBufferIndex(i)]
}

func (m *SpringsMemory) SetLength(c *Chunk, i int, length float32) {
	m.lengths[c.mustBufferIndex(i)] = length
}

func (m *SpringsMemory) Stiffness(c *Chunk, i int) float32 {
	return m.stiffness[c.mustBufferIndex(i)]
}

func (m *SpringsMemory) SetStiffness(c *Chunk, i int, stiffness float32) {
	m.stiffness[c.mustBufferIndex(i)] = stiffness
}

func (m *SpringsMemory) Springs() []Spring      { return m.springs }
func (m *SpringsMemory) Lengths() []float32     { return m.lengths }
func (m *SpringsMemory) Stiffnesses() []float32 { return m.stiffness }

type TrianglesMemory struct {
	table
	triangles column[Triangle]
}

func NewTrianglesMemory() *TrianglesMemory {
	m := &TrianglesMemory{}
	m.cols = []columnOps{&m.triangles}
	return m
}

func (m *TrianglesMemory) Triangle(c *Chunk, i int) Triangle {
	return m.triangles[c.mustBufferIndex(i)]
}

func (m *TrianglesMemory) SetTriangle(c *Chunk, i int, t Triangle) {
	m.triangles[c.mustBufferIndex(i)] = t
}

func (m *TrianglesMemory) Triangles() []Triangle { return m.triangles }

// InflatablesMemory holds pressure-volume descriptors. Each one references a
// run of triangles by absolute start index and count.
type InflatablesMemory struct {
	table
	startTriangles   column[int32]
	triangleCounts   column[int32]
	restVolumes      column[float32]
	pressures        column[float32]
	constraintScales column[float32]
}

func NewInflatablesMemory() *InflatablesMemory {
	m := &InflatablesMemory{}
	m.cols = []columnOps{&m.startTriangles, &m.triangleCounts, &m.restVolumes, &m.pressures, &m.constraintScales}
	return m
}

func (m *InflatablesMemory) StartTriangleIndex(c *Chunk, i int) int32 {
	return m.startTriangles[c.mustBufferIndex(i)]
}

func (m *InflatablesMemory) SetStartTriangleIndex(c *Chunk, i int, start int32) {
	m.startTriangles[c.mustBufferIndex(i)] = start
}

func (m *InflatablesMemory) TriangleCount(c *Chunk, i int) int32 {
	return m.triangleCounts[c.mustBufferIndex(i)]
}

func (m *InflatablesMemory) SetTriangleCount(c *Chunk, i int, count int32) {
	m.triangleCounts[c.mustBufferIndex(i)] = count
}

func (m *InflatablesMemory) RestVolume(c *Chunk, i int) float32 {
	return m.restVolumes[c.mustBufferIndex(i)]
}

func (m *InflatablesMemory) SetRestVolume(c *Chunk, i int, v float32) {
	m.restVolumes[c.mustBufferIndex(i)] = v
}

func (m *InflatablesMemory) Pressure(c *Chunk, i int) float32 {
	return m.pressures[c.mustBufferIndex(i)]
}

func (m *InflatablesMemory) SetPressure(c *Chunk, i int, p float32) {
	m.pressures[c.mustBufferIndex(i)] = p
}

func (m *InflatablesMemory) ConstraintScale(c *Chunk, i int) float32 {
	return m.constraintScales[c.mustBufferIndex(i)]
}

func (m *InflatablesMemory) SetConstraintScale(c *Chunk, i int, s float32) {
	m.constraintScales[c.mustBufferIndex(i)] = s
}

func (m *InflatablesMemory) StartTriangles() []int32     { return m.startTriangles }
func (m *InflatablesMemory) TriangleCounts() []int32     { return m.triangleCounts }
func (m *InflatablesMemory) RestVolumes() []float32      { return m.restVolumes }
func (m *InflatablesMemory) Pressures() []float32        { return m.pressures }
func (m *InflatablesMemory) ConstraintScales() []float32 { return m.constraintScales }

package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/flexsim/internal/memory"
	"github.com/san-kum/flexsim/internal/space"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type canvas struct {
	w, h  int
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.clear()
	return c
}

func (c *canvas) clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y][x] = r
	}
}

func (c *canvas) line(x1, y1, x2, y2 int, r rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *canvas) lines() []string {
	out := make([]string, len(c.cells))
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// view maps the XY plane onto a canvas, Y up.
type view struct {
	minX, minY, scale float32
	h                 int
}

func (v view) cell(x, y float32) (int, int) {
	return int((x - v.minX) * v.scale), v.h - 1 - int((y-v.minY)*v.scale/2)
}

// fitView frames every live particle and the ground line. Rows count double
// because terminal cells are about twice as tall as they are wide.
func fitView(sp *space.Space, w, h int) view {
	store := sp.Store()
	positions := store.Particles.Positions()[:store.Used(memory.KindParticles)]

	minX, maxX := float32(-1), float32(1)
	minY, maxY := float32(0), float32(1)
	for _, p := range positions {
		if isBad(p[0]) || isBad(p[1]) {
			continue
		}
		minX, maxX = min(minX, p[0]), max(maxX, p[0])
		minY, maxY = min(minY, p[1]), max(maxY, p[1])
	}
	pad := 0.05 * max(maxX-minX, maxY-minY)
	minX, maxX = minX-pad, maxX+pad
	minY, maxY = minY-pad, maxY+pad

	scale := min(float32(w-1)/(maxX-minX), 2*float32(h-1)/(maxY-minY))
	return view{minX: minX, minY: minY, scale: scale, h: h}
}

func isBad(f float32) bool {
	return math.IsNaN(float64(f)) || math.IsInf(float64(f), 0)
}

// drawSpace projects springs, then particles, onto c. Static particles draw
// as '#'.
func drawSpace(c *canvas, sp *space.Space) {
	c.clear()
	v := fitView(sp, c.w, c.h)

	gx0, gy := v.cell(v.minX, 0)
	gx1, _ := v.cell(v.minX+float32(c.w)/v.scale, 0)
	c.line(gx0, gy, gx1, gy, '─')

	store := sp.Store()
	positions := store.Particles.Positions()
	for _, s := range store.Springs.Springs()[:store.Used(memory.KindSprings)] {
		a, b := positions[s[0]], positions[s[1]]
		x1, y1 := v.cell(a[0], a[1])
		x2, y2 := v.cell(b[0], b[1])
		c.line(x1, y1, x2, y2, '·')
	}
	for _, p := range positions[:store.Used(memory.KindParticles)] {
		r := 'o'
		if p[3] == 0 {
			r = '#'
		}
		x, y := v.cell(p[0], p[1])
		c.set(x, y, r)
	}
}

// chunkBar draws one buffer as a bar of width cells, one shade per owning
// chunk, with unused capacity dimmed.
func chunkBar(sp *space.Space, k memory.Kind, width int) string {
	a := sp.Store().Allocator(k)
	capacity := a.Capacity()
	if capacity == 0 || width <= 0 {
		return dimmer.Render(strings.Repeat("─", max(width, 0)))
	}
	shades := []lipgloss.Style{cyan, magenta, green, yellow}

	var b strings.Builder
	cell := 0
	for i, c := range a.Chunks() {
		end := c.EndIndex() * width / capacity
		if end > cell {
			b.WriteString(shades[i%len(shades)].Render(strings.Repeat("█", end-cell)))
			cell = end
		}
	}
	b.WriteString(dimmer.Render(strings.Repeat("─", width-cell)))
	return b.String()
}

func statsLines(sp *space.Space, width int) []string {
	st := sp.Stats()
	lines := make([]string, 0, len(st.Buffers))
	for _, u := range st.Buffers {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			dim.Render(fmt.Sprintf("%-16s", u.Kind)),
			chunkBar(sp, u.Kind, width),
			dim.Render(fmt.Sprintf("%5d/%-5d -%d", u.Used, u.Capacity, u.Removed))))
	}
	return lines
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := max(len(data)/width, 1)
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[min(max(idx, 0), 7)])
	}
	return sb.String()
}

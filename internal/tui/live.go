package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/san-kum/flexsim/internal/space"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the space to a terminal as the simulation steps. It
// implements sim.Observer.
type LiveRenderer struct {
	model     string
	frameRate int
	lastFrame time.Time
	canvas    *canvas
	out       io.Writer
}

func NewLiveRenderer(model string, frameRate int) *LiveRenderer {
	return &LiveRenderer{
		model:     model,
		frameRate: max(frameRate, 1),
		canvas:    newCanvas(width, height),
		out:       os.Stdout,
	}
}

// SetOutput redirects frames, os.Stdout by default.
func (r *LiveRenderer) SetOutput(w io.Writer) { r.out = w }

func (r *LiveRenderer) OnStep(sp *space.Space, step int, t float64) {
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	drawSpace(r.canvas, sp)
	r.render(sp, step, t)
}

func (r *LiveRenderer) render(sp *space.Space, step int, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.2fs  step %d\n", r.model, t, step))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas.lines() {
		b.WriteString("  ")
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for _, line := range statsLines(sp, 32) {
		b.WriteString("  " + line + "\n")
	}

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/config"
	"github.com/san-kum/flexsim/internal/experiment"
	"github.com/san-kum/flexsim/internal/sim"
)

var modelInfo = map[string]string{
	"rope":      "springs, pinned root",
	"cloth":     "springs and triangles",
	"rigid_box": "one rigid cluster",
	"soft":      "overlapping clusters and links",
	"fluid":     "fluid phase lattice",
	"balloon":   "inflatable shell",
}

type state int

const (
	stateMenu state = iota
	stateConfig
	stateSim
)

type model struct {
	registry *experiment.Registry
	log      logr.Logger

	state    state
	cursor   int
	models   []string
	selected string

	params      map[string]float64
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string

	running   bool
	paused    bool
	exp       *experiment.Experiment
	simTime   float64
	dt        float64
	speed     float64
	history   []float64
	lastFrame time.Time
	fps       float64
	status    string
	err       error

	width  int
	height int
}

func NewInteractiveApp(log logr.Logger) *model {
	reg := experiment.NewRegistry()
	return &model{
		registry:   reg,
		log:        log,
		state:      stateMenu,
		models:     reg.ListModels(),
		params:     make(map[string]float64),
		paramNames: []string{"resolution", "stiffness", "height", "dt", "duration"},
		speed:      1.0,
		history:    make([]float64, 0, 60),
		width:      80,
		height:     24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if m.running && !m.paused && m.exp != nil {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			for i := 0; i < max(int(m.speed), 1); i++ {
				m.step()
			}
		}
		if m.running && m.state == stateSim {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.models)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.models[m.cursor]
		m.state = stateConfig
		m.paramCursor = 0
		m.setParamsForModel()
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			fmt.Sscanf(m.editBuf, "%f", &val)
			m.params[m.paramNames[m.paramCursor]] = val
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = fmt.Sprintf("%.2f", m.params[m.paramNames[m.paramCursor]])
	case "s":
		if err := m.start(); err != nil {
			m.err = err
			return m, nil
		}
		m.state = stateSim
		return m, tea.Batch(tea.ClearScreen, tick())
	case "left", "h":
		m.adjust(-1)
	case "right", "l":
		m.adjust(1)
	}
	return m, nil
}

func (m *model) adjust(dir float64) {
	name := m.paramNames[m.paramCursor]
	switch name {
	case "resolution":
		m.params[name] = math.Max(m.params[name]+dir, 1)
	case "dt":
		m.params[name] = math.Max(m.params[name]+dir*0.001, 0.001)
	default:
		m.params[name] += dir * 0.1
	}
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.running = false
		m.state = stateMenu
		m.reset()
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		if err := m.start(); err != nil {
			m.err = err
		}
		return m, tea.ClearScreen
	case "c":
		m.running = false
		m.state = stateConfig
		m.reset()
		return m, tea.ClearScreen
	case "x":
		m.cut()
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

// setParamsForModel loads the first preset of the selected model.
func (m *model) setParamsForModel() {
	cfg := config.DefaultConfig()
	if presets := config.ListPresets(m.selected); len(presets) > 0 {
		cfg = config.GetPreset(m.selected, presets[0])
	}
	m.params["resolution"] = float64(cfg.Body.Resolution)
	m.params["stiffness"] = float64(cfg.Body.Stiffness)
	m.params["height"] = float64(cfg.Body.Height)
	m.params["dt"] = cfg.Dt
	m.params["duration"] = cfg.Duration
}

func (m *model) runConfig() *config.Config {
	cfg := config.DefaultConfig()
	if presets := config.ListPresets(m.selected); len(presets) > 0 {
		cfg = config.GetPreset(m.selected, presets[0])
	}
	cfg.Model = m.selected
	cfg.Body.Resolution = int(m.params["resolution"])
	cfg.Body.Stiffness = float32(m.params["stiffness"])
	cfg.Body.Height = float32(m.params["height"])
	cfg.Dt = m.params["dt"]
	cfg.Duration = m.params["duration"]
	return cfg
}

func (m *model) start() error {
	m.reset()
	exp := experiment.New(m.runConfig(), m.log)
	if err := exp.Setup(m.registry, nil); err != nil {
		exp.Close()
		return err
	}
	m.exp = exp
	m.dt = exp.Config().Dt
	m.history = make([]float64, 0, 60)
	m.simTime = 0
	m.speed = 1.0
	m.lastFrame = time.Time{}
	m.status = ""
	m.err = nil
	m.running = true
	m.paused = false
	return nil
}

func (m *model) reset() {
	if m.exp != nil {
		m.exp.Close()
	}
	m.exp = nil
	m.history = nil
	m.simTime = 0
}

func (m *model) step() {
	if m.simTime >= m.params["duration"] {
		m.paused = true
		return
	}
	sp := m.exp.Space()
	if err := sp.Step(float32(m.dt)); err != nil {
		m.err = err
		m.paused = true
		return
	}
	m.simTime += m.dt

	m.history = append(m.history, sim.Summarize(sp, m.simTime).KineticEnergy)
	if len(m.history) > 60 {
		m.history = m.history[1:]
	}
}

// cut removes the middle particle of the body on the next step.
func (m *model) cut() {
	if m.exp == nil {
		return
	}
	b := m.exp.Body()
	if n := b.ParticleCount(); n > 0 {
		b.RemoveParticle(body.ParticleIndex(n / 2))
		m.status = fmt.Sprintf("cut particle %d", n/2)
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("f l e x s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.models {
		desc := modelInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(modelInfo[m.selected]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range m.paramNames {
		val := fmt.Sprintf("%8.3f", m.params[name])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-12s", name)) + dim.Render(val) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := max(m.width-6, 50)
	ch := max(m.height-18, 10)

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.selected), statusText, dim.Render(m.status)))

	progress := math.Min(m.simTime/m.params["duration"], 1)
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("%.1fs/%.0fs", m.simTime, m.params["duration"])
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s  %s\n\n", bar, dim.Render(timeStr),
		dim.Render(fmt.Sprintf("%.0ffps", m.fps)), dim.Render(fmt.Sprintf("x%.2g", m.speed))))

	if m.exp != nil {
		c := newCanvas(cw, ch)
		sp := m.exp.Space()
		drawSpace(c, sp)
		for _, row := range c.lines() {
			b.WriteString("   " + row + "\n")
		}
		b.WriteString("\n")
		for _, line := range statsLines(sp, 24) {
			b.WriteString("   " + line + "\n")
		}
		b.WriteString(fmt.Sprintf("   %s %d\n", dim.Render("contacts"), m.exp.Contacts()))
	}

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s %.3f\n", dim.Render("KE"), cyan.Render(sparkline(m.history, 24)), m.history[len(m.history)-1]))
	}
	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  x cut  r reset  c config  q quit") + "\n")

	return b.String()
}

func RunInteractive(log logr.Logger) error {
	p := tea.NewProgram(NewInteractiveApp(log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package viz

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/metrics"
	"github.com/san-kum/barosim/internal/sim"
)

const (
	mapCols         = 72
	mapRows         = 24
	trackCols       = 36
	trackRows       = 6
	historyCapacity = 600
	frameRate       = time.Second / 30
)

// Snapshot is one stored model state for replay.
type Snapshot struct {
	State     *dynamo.State
	Enstrophy float64
	Energy    float64
}

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(48)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Builder constructs a fresh model; the live view calls it on start and on
// every reset.
type Builder func() (*sim.Model, error)

// Model is the bubbletea program state of the live view.
type Model struct {
	name    string
	build   Builder
	sim     *sim.Model
	runTime float64

	stepsPerFrame int
	field         Field
	running       bool
	showHelp      bool
	err           error

	history  []Snapshot
	playHead int
	track    []metrics.Center

	recording bool
	frames    []*image.Paletted
	message   string
}

// NewModel builds the first model. runTime, when positive, is the length of
// the run shown by the progress bar.
func NewModel(name string, build Builder, runTime float64) (Model, error) {
	m := Model{
		name:          name,
		build:         build,
		runTime:       runTime,
		stepsPerFrame: 1,
		running:       true,
		playHead:      -1,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles key presses and advances the model on every tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				m.running = false
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "f":
			m.field = m.field.Next()
		case "+", "=":
			m.stepsPerFrame = min(m.stepsPerFrame*2, 64)
		case "-", "_":
			m.stepsPerFrame = max(m.stepsPerFrame/2, 1)
		case "g":
			m.toggleRecording()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

// step advances the model stepsPerFrame steps and records the new state.
// A failing step pauses the view and keeps the last good state on screen.
func (m *Model) step() {
	if m.err != nil {
		m.running = false
		return
	}
	for k := 0; k < m.stepsPerFrame; k++ {
		if _, err := m.sim.Step(); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	m.record()
}

func (m *Model) record() {
	st := m.sim.State()
	cfg := m.sim.Config()
	m.history = append(m.history, Snapshot{
		State:     st,
		Enstrophy: metrics.Enstrophy(st.Current),
		Energy:    metrics.KineticEnergy(st.Current, cfg.Radius),
	})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}

	if g, err := m.sim.Vorticity(); err == nil {
		eng := m.sim.Grid()
		c := metrics.Centroid(g, eng.Latitudes(), eng.Longitudes(), 1)
		if !math.IsNaN(c.Lat) {
			m.track = append(m.track, c)
			if len(m.track) > historyCapacity {
				m.track = m.track[1:]
			}
		}
	}
}

// scrub moves the replay position through the stored history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset rebuilds the model from its initial condition.
func (m *Model) reset() error {
	s, err := m.build()
	if err != nil {
		return err
	}
	m.sim = s
	m.err = nil
	m.history = m.history[:0]
	m.track = m.track[:0]
	m.playHead = -1
	m.record()
	return nil
}

// current returns the snapshot on screen.
func (m Model) current() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.history[len(m.history)-1]
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = m.frames[:0]
		m.message = ""
		return
	}
	m.recording = false
	path := fmt.Sprintf("barosim_%d.gif", time.Now().Unix())
	if err := SaveGIF(path, m.frames, 5); err != nil {
		m.message = "gif: " + err.Error()
	} else {
		m.message = "saved " + path
	}
	m.frames = nil
}

func (m *Model) captureFrame() {
	g, err := m.field.Grid(m.sim.Grid(), m.current().State.Current)
	if err != nil {
		return
	}
	m.frames = append(m.frames, Frame(g, 4))
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Error).Render("FAILED")
	case m.recording:
		return StatusRecording.Render("● REC")
	case m.playHead != -1:
		latest := m.history[len(m.history)-1].State.Time
		return StatusPaused.Render(fmt.Sprintf("REPLAY (%+.1fh)", (m.current().State.Time-latest)/3600))
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

// View renders the field map next to the run statistics.
func (m Model) View() string {
	th := CurrentTheme
	snap := m.current()
	eng := m.sim.Grid()
	cfg := m.sim.Config()

	mapView := ""
	if g, err := m.field.Grid(eng, snap.State.Current); err == nil {
		mapView = RenderField(g, mapCols, mapRows, th)
	}
	var left strings.Builder
	left.WriteString(lipgloss.NewStyle().Foreground(th.Muted).Render(fmt.Sprintf("%s  90°N..90°S  0°..360°", m.field)) + "\n")
	left.WriteString(mapView)
	canvasView := canvasStyle.Render(left.String())

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.name), th.Primary, th.Accent) + "\n")
	s.WriteString(m.status() + "\n\n")

	valid := cfg.StartTime.Add(time.Duration(snap.State.Time * float64(time.Second)))
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2f d", snap.State.Time/86400))
	row("Valid", valid.UTC().Format("2006-01-02 15:04Z"))
	row("Step", fmt.Sprintf("%d (×%d/frame)", snap.State.Step, m.stepsPerFrame))
	row("Enstrophy", fmt.Sprintf("%.4e s⁻²", snap.Enstrophy))
	row("Energy", fmt.Sprintf("%.4e m²/s²", snap.Energy))
	if g, err := eng.ToGrid(snap.State.Current); err == nil {
		row("Peak ζ", fmt.Sprintf("%.3e s⁻¹", metrics.MaxAbs(g)))
	}
	if n := len(m.track); n > 0 {
		c := m.track[n-1]
		row("Vortex", fmt.Sprintf("%.1f°, %.1f°", c.Lat, c.Lon))
	}
	if m.runTime > 0 {
		s.WriteString("\n" + ProgressBar(snap.State.Time/m.runTime, 30) + "\n")
	}

	ens := make([]float64, len(m.history))
	for i, h := range m.history {
		ens[i] = h.Enstrophy
	}
	if ens = plottable(ens); len(ens) > 1 {
		chart := asciigraph.Plot(ens, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Enstrophy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	energy := make([]float64, len(m.history))
	for i, h := range m.history {
		energy[i] = h.Energy
	}
	s.WriteString(labelStyle.Render("Energy") + SparklineChart(plottable(energy), 30) + "\n")

	if len(m.track) > 1 {
		c := NewCanvas(trackCols, trackRows)
		lats := make([]float64, len(m.track))
		lons := make([]float64, len(m.track))
		for i, f := range m.track {
			lats[i], lons[i] = f.Lat, f.Lon
		}
		c.Track(lats, lons)
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(th.Accent).Render(c.String()))
	}

	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(th.Error).Width(44).Render(m.err.Error()) + "\n")
	}
	if m.message != "" {
		s.WriteString("\n" + Subtle.Render(m.message) + "\n")
	}
	s.WriteString(helpStyle.Render(Separator(40) + "\nSP:Pause R:Reset Q:Quit F:Field\nT:Theme G:Record ?:Help [ ]:Replay ±:Speed"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart from t=0         ║
║  Q        - Quit                     ║
║  F        - Cycle displayed field    ║
║  + / -    - Steps per frame          ║
║  [        - Replay backwards         ║
║  ]        - Replay forwards          ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// plottable keeps the finite values of a series. A series whose range
// overflows is dropped entirely.
func plottable(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	if len(out) > 1 && math.IsInf(floats.Max(out)-floats.Min(out), 0) {
		return nil
	}
	return out
}

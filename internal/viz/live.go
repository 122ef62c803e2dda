package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/mpc"
	"github.com/san-kum/mpcdrive/internal/path"
	"github.com/san-kum/mpcdrive/internal/sim"
)

const (
	width           = 72
	height          = 24
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

// planSource is implemented by controllers that keep their last horizon
// plan around, such as *mpc.Optimizer.
type planSource interface {
	Last() *mpc.Plan
}

// Builder returns a fresh simulator with the car at its start pose. The
// live model calls it again on reset.
type Builder func() (*sim.Simulator, error)

// Model steps a closed-loop run one tick per frame and draws the path,
// the driven trajectory and the car from above.
type Model struct {
	build    Builder
	sim      *sim.Simulator
	path     path.Path
	cfg      dynamo.Config
	title    string
	interval time.Duration

	tick     int
	t        float64
	samples  []dynamo.Sample
	failures int
	err      error

	running  bool
	showHelp bool
	showPlan bool
	canvas   *Canvas
	frame    Frame
}

func NewModel(build Builder, p path.Path, cfg dynamo.Config, title string) (Model, error) {
	s, err := build()
	if err != nil {
		return Model{}, err
	}
	m := Model{
		build:    build,
		sim:      s,
		path:     p,
		cfg:      cfg,
		title:    title,
		interval: time.Second / 10,
		samples:  make([]dynamo.Sample, 0, len(p)),
		running:  true,
		showPlan: true,
		canvas:   NewCanvas(width, height),
	}
	start := []dynamo.Point{s.Car().Position()}
	m.frame = NewFrame(m.canvas, 3, p, start)
	return m, nil
}

func (m Model) ticker() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.ticker()
}

// Update handles input events and steps the loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n", "right":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "+", "=":
			m.interval = max(m.interval/2, time.Second/60)
		case "-", "_":
			m.interval = min(m.interval*2, 2*time.Second)
		case "p":
			m.showPlan = !m.showPlan
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.ticker()
	}
	return m, nil
}

// Done reports whether the run reached the end of the path or stopped on
// an error.
func (m Model) Done() bool {
	last := len(m.path)
	if m.cfg.MaxTicks > 0 && m.cfg.MaxTicks < last {
		last = m.cfg.MaxTicks
	}
	return m.err != nil || m.tick >= last
}

func (m Model) Samples() []dynamo.Sample { return m.samples }

func (m *Model) step() {
	if m.Done() {
		m.running = false
		return
	}

	sample, err := m.sim.Step(context.Background(), m.path, m.tick, m.t, m.cfg)
	if err != nil {
		if !errors.Is(err, dynamo.ErrControlFailure) {
			m.err = err
			m.running = false
			return
		}
		m.failures++
	}

	m.tick++
	m.t = sample.Time
	m.samples = append(m.samples, sample)
	if len(m.samples) > historyCapacity {
		m.samples = m.samples[1:]
	}
}

func (m *Model) reset() {
	s, err := m.build()
	if err != nil {
		m.err = err
		return
	}
	m.sim = s
	m.tick = 0
	m.t = 0
	m.failures = 0
	m.err = nil
	m.samples = m.samples[:0]
	m.running = true
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.canvas.Dots(m.frame, m.path)

	traj := make([]dynamo.Point, 0, len(m.samples)+1)
	if len(m.samples) == 0 {
		traj = append(traj, m.sim.Car().Position())
	}
	for _, s := range m.samples {
		traj = append(traj, dynamo.Point{X: s.State[0], Y: s.State[1]})
	}
	m.canvas.Polyline(m.frame, traj)

	if m.showPlan {
		if src, ok := m.sim.Controller().(planSource); ok {
			if plan := src.Last(); plan != nil {
				m.canvas.Dots(m.frame, plan.Predicted)
			}
		}
	}

	car := m.sim.Car()
	m.canvas.Car(m.frame, car.Position(), car.Psi(), 4)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("STOPPED")
	case m.Done():
		return StatusRunning.Render("FINISHED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	car := m.sim.Car()
	progress := float64(m.tick) / float64(max(len(m.path), 1))
	s.WriteString(ProgressBar(progress, 20) + fmt.Sprintf(" %d/%d\n\n", m.tick, len(m.path)))
	s.WriteString(Row("Time", fmt.Sprintf("%.1fs", m.t)))
	s.WriteString(Row("Position", fmt.Sprintf("(%.2f, %.2f)", car.X(), car.Y())))
	s.WriteString(Row("Speed", fmt.Sprintf("%.2f", car.V())))
	s.WriteString(Row("Heading", fmt.Sprintf("%.1f°", car.Psi()*180/math.Pi)))

	speeds := make([]float64, 0, len(m.samples))
	steers := make([]float64, 0, len(m.samples))
	errSum := 0.0
	for _, sample := range m.samples {
		speeds = append(speeds, sample.State[2])
		steers = append(steers, sample.Control.Steer()*180/math.Pi)
		d := dynamo.Point{X: sample.State[0], Y: sample.State[1]}.Dist(sample.Target)
		errSum += d * d
	}
	if n := len(m.samples); n > 0 {
		last := m.samples[n-1]
		s.WriteString(Row("Accel", fmt.Sprintf("%+.2f", last.Control.Accel())))
		s.WriteString(Row("Steer", fmt.Sprintf("%+.1f°", last.Control.Steer()*180/math.Pi)))
		s.WriteString(Row("RMS error", fmt.Sprintf("%.3f", math.Sqrt(errSum/float64(n)))))
	}
	s.WriteString(Row("Failures", fmt.Sprintf("%d", m.failures)))

	if len(speeds) > 1 {
		chart := asciigraph.Plot(speeds, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Speed"))
		s.WriteString(graphStyle.Render(chart) + "\n")
		s.WriteString(Subtle.Render("steer ") + Sparkline(steers, 30) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}

	s.WriteString(KeyHint.Render("\nSP:Pause N:Step R:Reset Q:Quit\n+/-:Speed P:Plan ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return Panel.Render(strings.Join([]string{
			"Space  pause or resume",
			"N / →  single step while paused",
			"R      restart from the start pose",
			"+ / -  faster or slower",
			"P      show or hide the predicted horizon",
			"Q      quit",
		}, "\n")) + "\n\n" + mainView
	}
	return mainView
}

// RunLive opens the live view in the alternate screen.
func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/episode"
)

const (
	canvasWidth     = 60
	canvasHeight    = 30
	historyCapacity = 600
	baseInterval    = 50 * time.Millisecond
)

// Frame is one rendered tick.
type Frame struct {
	Tick        int
	State       chase.State
	WolfReward  float64
	SheepReward float64
	Kills       int
}

// FrameFromTransition summarizes tr as the frame after the step.
func FrameFromTransition(tr chase.Transition) Frame {
	f := Frame{Tick: tr.Tick + 1, State: tr.Next, Kills: len(tr.Kills)}
	for _, v := range tr.WolfRewards {
		f.WolfReward += v
	}
	for _, v := range tr.SheepRewards {
		f.SheepReward += v
	}
	return f
}

// FramesFromStates builds reward-less frames, e.g. from a stored trajectory.
func FramesFromStates(states []chase.State) []Frame {
	frames := make([]Frame, len(states))
	for i, s := range states {
		frames[i] = Frame{Tick: i, State: s}
	}
	return frames
}

type TickMsg time.Time

// Model plays either a live episode session or a list of recorded frames.
type Model struct {
	title    string
	scene    *chase.Scene
	proj     Projection
	canvas   *Canvas
	theme    Theme
	maxTicks int

	runner *episode.Runner
	cfg    episode.Config
	sess   *episode.Session
	err    error

	replay []Frame
	cursor int

	history    []Frame
	playHead   int
	totalKills int
	running    bool
	speed      int
	showHelp   bool
}

// NewLive starts an episode on runner and shows it tick by tick.
func NewLive(runner *episode.Runner, cfg episode.Config, title string) (Model, error) {
	sess, err := runner.Begin(cfg)
	if err != nil {
		return Model{}, err
	}
	m := newModel(title, sess.Scene(), runner.Env().Params().Reset.MapSize, cfg.MaxTicks)
	m.runner, m.cfg, m.sess = runner, cfg, sess
	m.push(Frame{State: sess.State()})
	return m, nil
}

// NewReplay shows recorded frames; frames[0] is the initial state.
func NewReplay(sc *chase.Scene, mapSize float64, frames []Frame, title string) Model {
	m := newModel(title, sc, mapSize, max(len(frames)-1, 1))
	m.replay = frames
	if len(frames) > 0 {
		m.push(frames[0])
	}
	return m
}

func newModel(title string, sc *chase.Scene, mapSize float64, maxTicks int) Model {
	return Model{
		title:    title,
		scene:    sc,
		proj:     Projection{Half: mapSize, Width: canvasWidth * 2, Height: canvasHeight * 4},
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		theme:    ThemeMeadow,
		maxTicks: maxTicks,
		history:  make([]Frame, 0, historyCapacity),
		playHead: -1,
		running:  true,
		speed:    1,
	}
}

func (m Model) interval() time.Duration {
	if m.speed > 0 {
		return baseInterval / time.Duration(m.speed)
	}
	return baseInterval * time.Duration(2-m.speed)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval(), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.restart()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.speed = min(m.speed+1, 8)
		case "-", "_":
			m.speed = max(m.speed-1, -4)
		case "t":
			m.theme = NextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.advance()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// Finished reports whether no further frames will arrive.
func (m Model) Finished() bool {
	if m.sess != nil {
		return m.sess.Done() || m.err != nil
	}
	return m.cursor >= len(m.replay)-1
}

func (m Model) Err() error { return m.err }

func (m *Model) advance() {
	if m.Finished() {
		return
	}
	if m.sess != nil {
		tr, err := m.sess.Tick()
		if err != nil {
			m.err = err
			return
		}
		m.push(FrameFromTransition(tr))
		return
	}
	m.cursor++
	m.push(m.replay[m.cursor])
}

func (m *Model) push(f Frame) {
	m.totalKills += f.Kills
	m.history = append(m.history, f)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

// scrub changes the playback position in history.
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

// restart begins a fresh episode; replays rewind to the first frame.
func (m *Model) restart() {
	m.history = m.history[:0]
	m.playHead = -1
	m.totalKills = 0
	m.err = nil
	if m.runner != nil {
		sess, err := m.runner.Begin(m.cfg)
		if err != nil {
			m.err = err
			return
		}
		m.sess = sess
		m.scene = sess.Scene()
		m.push(Frame{State: sess.State()})
		return
	}
	m.cursor = 0
	if len(m.replay) > 0 {
		m.push(m.replay[0])
	}
}

func (m Model) current() Frame {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	if len(m.history) == 0 {
		return Frame{}
	}
	return m.history[len(m.history)-1]
}

func (m *Model) draw(f Frame) {
	c := m.canvas
	c.Clear()

	c.Pen(m.theme.Wall)
	x0, y0 := m.proj.Point(-m.proj.Half, m.proj.Half)
	x1, y1 := m.proj.Point(m.proj.Half, -m.proj.Half)
	c.DrawRect(x0, y0, min(x1, m.proj.Width-1), min(y1, m.proj.Height-1))

	if len(f.State) != m.scene.Roster.NumEntities() {
		return
	}
	r := m.scene.Roster
	for _, id := range r.Blocks() {
		m.drawEntity(f.State, id, m.theme.Block, false)
	}
	for _, id := range r.Sheep() {
		m.drawEntity(f.State, id, m.theme.Sheep, f.State[id].Streak == 0)
	}
	for _, id := range r.Wolves() {
		m.drawEntity(f.State, id, m.theme.Wolf, false)
	}
	c.Pen("")
}

func (m *Model) drawEntity(s chase.State, id int, color lipgloss.Color, hollow bool) {
	m.canvas.Pen(color)
	x, y := m.proj.Point(s[id].Pos[0], s[id].Pos[1])
	m.canvas.DrawDisk(x, y, m.proj.Length(m.scene.Bodies[id].Size), hollow)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusDone.Render("ERROR")
	case m.playHead != -1:
		return StatusPaused.Render(fmt.Sprintf("REPLAY (%d)", m.playHead-len(m.history)+1))
	case m.Finished():
		return StatusDone.Render("FINISHED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

func (m Model) View() string {
	f := m.current()
	m.draw(f)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(ProgressBar(float64(f.Tick)/float64(m.maxTicks), 30) + "\n\n")
	s.WriteString(MetricLabel.Render("Tick") + MetricValue.Render(fmt.Sprintf("%d / %d", f.Tick, m.maxTicks)) + "\n")
	s.WriteString(MetricLabel.Render("Kills") + MetricValue.Render(fmt.Sprintf("%d", m.totalKills)) + "\n")
	s.WriteString(MetricLabel.Render("Wolf r") + MetricValue.Render(fmt.Sprintf("%.3f", f.WolfReward)) + "\n")
	s.WriteString(MetricLabel.Render("Sheep r") + MetricValue.Render(fmt.Sprintf("%.3f", f.SheepReward)) + "\n")
	s.WriteString(MetricLabel.Render("Speed") + MetricValue.Render(fmt.Sprintf("%d", m.speed)) + "\n")

	if len(f.State) == m.scene.Roster.NumEntities() {
		s.WriteString("\nSTREAKS\n")
		for _, id := range m.scene.Roster.Sheep() {
			s.WriteString(MetricLabel.Render(fmt.Sprintf("sheep %d", id)) + strings.Repeat("●", f.State[id].Streak) + "\n")
		}
	}

	wolf, sheep := m.rewardSeries()
	s.WriteString(MetricLabel.Render("Sheep trend") + SparklineChart(sheep, 18) + "\n")
	if len(wolf) > 1 {
		chart := asciigraph.Plot(wolf, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("wolf reward"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if m.err != nil {
		s.WriteString(StatusDone.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + Separator(30) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause R:Restart Q:Quit\nT:Theme +/-:Speed ?:Help\n[ ]:Time-Travel"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panelStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

// rewardSeries returns team rewards up to the displayed frame.
func (m Model) rewardSeries() (wolf, sheep []float64) {
	end := len(m.history)
	if m.playHead >= 0 {
		end = m.playHead + 1
	}
	wolf = make([]float64, 0, end)
	sheep = make([]float64, 0, end)
	for _, f := range m.history[:end] {
		wolf = append(wolf, f.WolfReward)
		sheep = append(sheep, f.SheepReward)
	}
	return wolf, sheep
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart                  ║
║  Q        - Quit                     ║
║  + / -    - Faster / slower          ║
║  [        - Rewind (time travel)     ║
║  ]        - Forward (time travel)    ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run opens the viewer full screen and blocks until the user quits.
func Run(m Model) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.Err()
	}
	return nil
}

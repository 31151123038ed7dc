// Package tui is the terminal front end: the bootstrap menus, per-player key
// configuration and the board view. The session runs on its own goroutine;
// keys reach it through a ChanInput and snapshots come back over a channel.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/tron/ai"
	"github.com/brensch/tron/game"
	"github.com/brensch/tron/session"
)

// Options configures the sessions the menus start.
type Options struct {
	// Arena fixes the board size. Zero follows the terminal window.
	Arena     game.Arena
	TickDelay time.Duration
	Seed      int64
	Logger    *slog.Logger
	Recorder  session.Recorder
}

var headingNames = [4]string{"UP", "DOWN", "LEFT", "RIGHT"}

// menuQuitKeys leave the program from the main menu.
var menuQuitKeys = []string{"ctrl+c", "esc", "q"}

type frameMsg struct {
	id   string
	snap session.Snapshot
}

type sessionDoneMsg struct {
	id  string
	err error
}

// Model is the bubbletea model driving menus and play.
type Model struct {
	ctx  context.Context
	opts Options
	log  *slog.Logger

	phase  session.Phase
	width  int
	height int
	notice string

	// key configuration
	players int
	keys    []session.KeyMap
	pending []string

	// running session
	sessionID string
	input     *ChanInput
	frames    chan session.Snapshot
	cancel    context.CancelFunc
	snap      *session.Snapshot
}

func New(ctx context.Context, opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return Model{
		ctx:   ctx,
		opts:  opts,
		log:   log,
		phase: session.MenuSelect,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func waitForFrame(id string, frames chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-frames
		if !ok {
			return nil
		}
		return frameMsg{id: id, snap: snap}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case frameMsg:
		if msg.id != m.sessionID {
			return m, nil
		}
		snap := msg.snap
		m.snap = &snap
		return m, waitForFrame(m.sessionID, m.frames)

	case sessionDoneMsg:
		if msg.id != m.sessionID {
			return m, nil
		}
		return m.finish(msg.err), nil

	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

func (m Model) key(k string) (tea.Model, tea.Cmd) {
	switch m.phase {
	case session.MenuSelect:
		return m.menuKey(k)
	case session.DifficultySelect:
		return m.difficultyKey(k)
	case session.KeyConfig:
		return m.keyConfigKey(k)
	case session.Playing:
		m.input.Push(k)
	}
	return m, nil
}

func (m Model) menuKey(k string) (tea.Model, tea.Cmd) {
	for _, q := range menuQuitKeys {
		if k == q {
			return m, tea.Quit
		}
	}
	switch k {
	case "1":
		m.notice = ""
		m.goTo(session.DifficultySelect)
	case "2", "3", "4":
		m.notice = ""
		m.players = int(k[0] - '0')
		m.keys = nil
		m.pending = nil
		m.goTo(session.KeyConfig)
	}
	return m, nil
}

func (m Model) difficultyKey(k string) (tea.Model, tea.Cmd) {
	if k == "esc" {
		m.goTo(session.MenuSelect)
		return m, nil
	}
	level, err := ai.ParseLevel(k)
	if err != nil {
		m.notice = fmt.Sprintf("pick a level between 0 and %d", len(ai.Levels)-1)
		return m, nil
	}
	m.notice = ""
	return m.start(session.VersusAI(m.arena(), level))
}

// keyConfigKey records one heading for the current player. Keys already
// bound, the pause key and the quit keys are refused.
func (m Model) keyConfigKey(k string) (tea.Model, tea.Cmd) {
	if k == "esc" {
		m.goTo(session.MenuSelect)
		return m, nil
	}
	if reason := m.keyTaken(k); reason != "" {
		m.notice = fmt.Sprintf("%q is %s, pick another", k, reason)
		return m, nil
	}
	m.notice = ""
	m.pending = append(m.pending, k)
	if len(m.pending) < len(headingNames) {
		return m, nil
	}

	m.keys = append(m.keys, session.KeyMap{
		Up:    m.pending[0],
		Down:  m.pending[1],
		Left:  m.pending[2],
		Right: m.pending[3],
	})
	m.pending = nil
	if len(m.keys) < m.players {
		return m, nil
	}
	return m.start(session.HotSeat(m.arena(), m.keys))
}

func (m Model) keyTaken(k string) string {
	if k == session.DefaultPauseKey {
		return "the pause key"
	}
	for _, q := range session.DefaultQuitKeys {
		if k == q {
			return "a quit key"
		}
	}
	for _, p := range m.pending {
		if p == k {
			return "already yours"
		}
	}
	for i, km := range m.keys {
		if km.Up == k || km.Down == k || km.Left == k || km.Right == k {
			return fmt.Sprintf("taken by player %d", i+1)
		}
	}
	return ""
}

func (m *Model) goTo(p session.Phase) {
	next, err := m.phase.Transition(p)
	if err != nil {
		m.log.Warn("menu transition", "err", err)
		return
	}
	m.phase = next
}

func (m Model) arena() game.Arena {
	if m.opts.Arena.Width > 0 && m.opts.Arena.Height > 0 {
		return m.opts.Arena
	}
	// Row 0 holds the score line.
	return game.Arena{Width: m.width, Height: m.height - 1}
}

// start launches a session and the command that runs it to completion.
func (m Model) start(cfg session.Config) (Model, tea.Cmd) {
	if m.opts.TickDelay > 0 {
		cfg.TickDelay = m.opts.TickDelay
	}
	cfg.Seed = m.opts.Seed
	cfg.Logger = m.log
	cfg.Recorder = m.opts.Recorder

	s, err := session.New(cfg)
	if err != nil {
		m.log.Error("start session", "err", err)
		m.notice = err.Error()
		m.phase = session.MenuSelect
		m.keys, m.pending = nil, nil
		return m, nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	input := NewChanInput(64)
	frames := make(chan session.Snapshot, 1)
	snap := s.Snapshot()

	m.sessionID = s.ID
	m.input = input
	m.frames = frames
	m.cancel = cancel
	m.snap = &snap
	m.goTo(session.Playing)

	run := func() tea.Msg {
		err := s.Run(ctx, input, frameSink(frames))
		cancel()
		close(frames)
		return sessionDoneMsg{id: s.ID, err: err}
	}
	return m, tea.Batch(run, waitForFrame(s.ID, frames))
}

// finish drops the ended session and returns to the main menu.
func (m Model) finish(err error) Model {
	if m.cancel != nil {
		m.cancel()
	}
	if err != nil {
		m.log.Warn("session stopped", "session", m.sessionID, "err", err)
	}
	m.phase = session.MenuSelect
	m.sessionID = ""
	m.input, m.frames, m.cancel, m.snap = nil, nil, nil, nil
	m.keys, m.pending = nil, nil
	return m
}

// Stop cancels a running session, if any.
func (m Model) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m Model) View() string {
	var b strings.Builder
	switch m.phase {
	case session.MenuSelect:
		b.WriteString(titleStyle.Render("TRON") + "\n\n")
		b.WriteString("1) play against the computer\n")
		for n := 2; n <= game.MaxPlayers; n++ {
			fmt.Fprintf(&b, "%d) %d players\n", n, n)
		}
		b.WriteString(dimStyle.Render("\npress a number, q to exit") + "\n")

	case session.DifficultySelect:
		b.WriteString(titleStyle.Render("DIFFICULTY") + "\n\n")
		for _, l := range ai.Levels {
			fmt.Fprintf(&b, "%d) %s\n", int(l), l)
		}
		b.WriteString(dimStyle.Render("\nesc to go back") + "\n")

	case session.KeyConfig:
		player := len(m.keys)
		b.WriteString(titleStyle.Render("CONTROLS") + "\n\n")
		fmt.Fprintf(&b, "player %d (%s): press the key for %s\n",
			player+1,
			slotStyle(player).Render(slotNames[player%game.MaxPlayers]),
			headingNames[len(m.pending)],
		)
		b.WriteString(dimStyle.Render("\nesc to go back") + "\n")

	case session.Playing:
		if m.snap != nil {
			b.WriteString(renderSnapshot(*m.snap))
		}
		return b.String()
	}

	if m.notice != "" {
		b.WriteString("\n" + errStyle.Render(m.notice) + "\n")
	}
	return b.String()
}

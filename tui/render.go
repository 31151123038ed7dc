package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/tron/game"
	"github.com/brensch/tron/session"
)

const (
	wallRune  = '#'
	trailRune = '█'
	headRune  = '@'
)

// Slot colours, in slot order.
var (
	slotNames  = [game.MaxPlayers]string{"GREEN", "RED", "CYAN", "BLUE"}
	slotColors = [game.MaxPlayers]lipgloss.Color{"2", "1", "6", "4"}
)

var (
	wallStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func slotStyle(slot int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(slotColors[slot%game.MaxPlayers])
}

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellWall
	cellTrail
	cellHead
	cellBanner
)

type cell struct {
	kind cellKind
	slot int
	r    rune
}

func (c cell) style() lipgloss.Style {
	switch c.kind {
	case cellWall:
		return wallStyle
	case cellTrail:
		return slotStyle(c.slot)
	case cellHead:
		return slotStyle(c.slot).Bold(true)
	case cellBanner:
		return bannerStyle
	}
	return lipgloss.NewStyle()
}

// board lays the state out as rows of cells. Heads are drawn over trails.
func board(st *game.State) [][]cell {
	w, h := st.Arena.Width, st.Arena.Height
	rows := make([][]cell, h)
	for y := range rows {
		rows[y] = make([]cell, w)
		for x := range rows[y] {
			if st.Arena.OutOfBounds(game.Point{X: x, Y: y}) {
				rows[y][x] = cell{kind: cellWall, r: wallRune}
			} else {
				rows[y][x] = cell{r: ' '}
			}
		}
	}

	inside := func(p game.Point) bool {
		return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h
	}
	for _, p := range st.Players {
		p.Trail.Each(func(c game.Point) {
			if inside(c) {
				rows[c.Y][c.X] = cell{kind: cellTrail, slot: p.Slot, r: trailRune}
			}
		})
	}
	for _, p := range st.Players {
		if inside(p.Position) {
			rows[p.Position.Y][p.Position.X] = cell{kind: cellHead, slot: p.Slot, r: headRune}
		}
	}
	return rows
}

// overlay writes text centred on row y.
func overlay(rows [][]cell, y int, text string) {
	if y < 0 || y >= len(rows) {
		return
	}
	runes := []rune(text)
	start := (len(rows[y]) - len(runes)) / 2
	if start < 0 {
		start = 0
	}
	for i, r := range runes {
		if start+i >= len(rows[y]) {
			break
		}
		rows[y][start+i] = cell{kind: cellBanner, r: r}
	}
}

func plainRows(rows [][]cell) []string {
	out := make([]string, len(rows))
	for y, row := range rows {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.r)
		}
		out[y] = b.String()
	}
	return out
}

// styledRow renders a row, styling each run of identical cells once.
func styledRow(row []cell) string {
	var b strings.Builder
	for i := 0; i < len(row); {
		j := i
		var run strings.Builder
		for j < len(row) && row[j].kind == row[i].kind && row[j].slot == row[i].slot {
			run.WriteRune(row[j].r)
			j++
		}
		if row[i].kind == cellEmpty {
			b.WriteString(run.String())
		} else {
			b.WriteString(row[i].style().Render(run.String()))
		}
		i = j
	}
	return b.String()
}

// scoreLine lists every slot's colour and score, e.g. "GREEN: 2  RED: 0".
func scoreLine(st *game.State, styled bool) string {
	parts := make([]string, len(st.Players))
	for i, p := range st.Players {
		part := fmt.Sprintf("%s: %d", slotNames[p.Slot%game.MaxPlayers], p.Score)
		if styled {
			part = slotStyle(p.Slot).Render(part)
		}
		parts[i] = part
	}
	return strings.Join(parts, "  ")
}

// renderSnapshot draws the score line centred above the arena, with a PAUSE
// banner across the middle while paused.
func renderSnapshot(snap session.Snapshot) string {
	st := snap.State
	if st == nil {
		return ""
	}
	rows := board(st)
	if snap.Phase == session.Paused {
		overlay(rows, st.Arena.Height/2, " PAUSE ")
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, lipgloss.PlaceHorizontal(st.Arena.Width, lipgloss.Center, scoreLine(st, true)))
	for _, row := range rows {
		lines = append(lines, styledRow(row))
	}
	return strings.Join(lines, "\n")
}

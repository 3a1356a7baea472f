package terminal

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/roulette"
	"github.com/mcdev12/roleta/go/internal/viewer"
)

const (
	statusOpen   = "Aberto"
	statusClosed = "Fechado"

	// lines in one redrawn block
	blockLines = 7
)

// Display renders the viewer on an ANSI terminal. The whole block is redrawn
// in place on every frame.
type Display struct {
	mu       sync.Mutex
	out      *bufio.Writer
	measurer roulette.CellMeasurer
	drawn    bool

	count   int
	open    bool
	command string
	ticker  string
	winner  string
	history []string
	trigger string
	enabled bool
	alert   string
}

var _ viewer.Display = (*Display)(nil)

func New(w io.Writer, measurer roulette.CellMeasurer) *Display {
	return &Display{out: bufio.NewWriter(w), measurer: measurer}
}

func (d *Display) SetParticipantsCount(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count = n
}

func (d *Display) SetStatus(open bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = open
}

func (d *Display) SetCommand(command string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.command = command
}

func (d *Display) SetTicker(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ticker = text
}

func (d *Display) ShowWinner(w events.WinnerRecord, history []events.WinnerRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.winner = w.Label()
	d.history = d.history[:0]
	for _, h := range history {
		d.history = append(d.history, h.Label())
	}
}

func (d *Display) SetTrigger(label string, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trigger, d.enabled = label, enabled
}

func (d *Display) Alert(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alert = message
}

// RenderFrame redraws the block for frame.
func (d *Display) RenderFrame(f viewer.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.drawn {
		fmt.Fprintf(d.out, "\x1b[%dA", blockLines)
	}
	d.drawn = true

	cols := int(math.Max(1, math.Floor(2*f.Marker/d.measurer.CellWidth)))
	status := statusClosed
	if d.open {
		status = statusOpen
	}

	d.line(fmt.Sprintf("Participantes: %d | %s | Comando: %s", d.count, status, d.command))
	d.line(d.ticker)
	d.line(Marquee(f.Track, d.measurer, f.Offset, cols))
	d.line(strings.Repeat(" ", cols/2) + "^")
	d.line("Ultimo ganhador: " + d.winner)
	d.line("Historico: " + strings.Join(d.history, ", "))
	trigger := "[" + d.trigger + "]"
	if !d.enabled {
		trigger = "(" + d.trigger + ")"
	}
	if d.alert != "" {
		trigger += " ! " + d.alert
	}
	d.line(trigger)

	_ = d.out.Flush()
}

func (d *Display) line(s string) {
	fmt.Fprintf(d.out, "\x1b[2K%s\n", s)
}

// Marquee renders cols cells of track starting at offset. Chips are drawn as
// [name], gaps as spaces.
func Marquee(track *roulette.Track, m roulette.CellMeasurer, offset float64, cols int) string {
	var b strings.Builder
	b.Grow(cols)
	for c := 0; c < cols; c++ {
		x := offset + (float64(c)+0.5)*m.CellWidth
		b.WriteRune(cellAt(track, m, x))
	}
	return b.String()
}

func cellAt(track *roulette.Track, m roulette.CellMeasurer, x float64) rune {
	chip, ok := track.ChipAt(x)
	if !ok {
		return ' '
	}
	cycle := track.CycleWidth()
	local := math.Mod(x, cycle)
	rel := local - chip.Left - m.Padding
	if rel < 0 {
		return '['
	}
	runes := []rune(chip.Name)
	idx := int(rel / m.CellWidth)
	if idx >= len(runes) {
		return ']'
	}
	return runes[idx]
}

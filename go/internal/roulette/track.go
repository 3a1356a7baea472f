package roulette

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// TrackCopies is how many times the name sequence is repeated so the viewport never runs dry.
	TrackCopies = 8
	// MaxTrackNames bounds layout cost for very large giveaways.
	MaxTrackNames = 500
	// ChipGap is the horizontal space between chips, including between the last chip of a copy
	// and the first chip of the next one.
	ChipGap = 8.0

	keySeparator = "|"
)

var placeholderNames = []string{"Aguardando", "participantes"}

// Measurer reports the rendered width of a name chip.
type Measurer interface {
	Width(name string) float64
}

// CellMeasurer measures chips on a fixed-width grid: every rune is one cell.
type CellMeasurer struct {
	CellWidth float64
	Padding   float64
}

// DefaultMeasurer lays chips out on an 8px cell grid.
func DefaultMeasurer() CellMeasurer {
	return CellMeasurer{CellWidth: 8, Padding: 12}
}

func (m CellMeasurer) Width(name string) float64 {
	return float64(utf8.RuneCountInString(name))*m.CellWidth + 2*m.Padding
}

// Chip is one laid-out name within the first copy of the track.
type Chip struct {
	Index int
	Name  string
	Left  float64
	Width float64
}

// Center is the chip's horizontal midpoint relative to the start of its copy.
func (c Chip) Center() float64 {
	return c.Left + c.Width/2
}

// Track lays out the repeated name sequence and measures one full cycle.
type Track struct {
	measurer   Measurer
	names      []string
	key        string
	chips      []Chip
	cycleWidth float64
	renders    int
}

// NewTrack returns a track rendered with the placeholder names.
func NewTrack(m Measurer) *Track {
	if m == nil {
		m = DefaultMeasurer()
	}
	t := &Track{measurer: m}
	t.Render(nil)
	return t
}

// NamesKey is the derived equality fingerprint of a name list.
func NamesKey(names []string) string {
	return strings.Join(names, keySeparator)
}

// normalizeNames applies the placeholder and the size cap.
func normalizeNames(names []string) []string {
	if len(names) == 0 {
		names = placeholderNames
	}
	if len(names) > MaxTrackNames {
		names = names[:MaxTrackNames]
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Changed reports whether rendering names would produce a different track.
func (t *Track) Changed(names []string) bool {
	return NamesKey(normalizeNames(names)) != t.key
}

// Render rebuilds the layout for names and recomputes the cycle width.
func (t *Track) Render(names []string) {
	safe := normalizeNames(names)
	t.names = safe
	t.key = NamesKey(safe)
	t.chips = make([]Chip, len(safe))

	x := 0.0
	end := 0.0
	for i, name := range safe {
		w := t.measurer.Width(name)
		t.chips[i] = Chip{Index: i, Name: name, Left: x, Width: w}
		end = math.Max(end, x+w)
		x += w + ChipGap
	}
	t.cycleWidth = math.Max(end+ChipGap, 1)
	t.renders++
}

// Append adds a name at the end of the sequence and re-renders. A full track
// gives up its last name so the appended one is always laid out.
func (t *Track) Append(name string) int {
	names := append([]string{}, t.names...)
	if len(names) >= MaxTrackNames {
		names = names[:MaxTrackNames-1]
	}
	t.Render(append(names, name))
	return t.IndexOf(name)
}

func (t *Track) Names() []string { return t.names }
func (t *Track) Key() string { return t.key }
func (t *Track) CycleWidth() float64 { return t.cycleWidth }
func (t *Track) Copies() int { return TrackCopies }
func (t *Track) Chips() []Chip { return t.chips }

// Renders counts layout passes; used to observe re-render behaviour.
func (t *Track) Renders() int { return t.renders }

// Width is the total laid-out width of all copies.
func (t *Track) Width() float64 { return t.cycleWidth * TrackCopies }

// IndexOf returns the first chip index showing name, or -1.
func (t *Track) IndexOf(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

// ChipAt returns the chip covering global position x (any copy), if x is not in a gap.
func (t *Track) ChipAt(x float64) (Chip, bool) {
	if t.cycleWidth <= 1 || len(t.chips) == 0 {
		return Chip{}, false
	}
	local := math.Mod(x, t.cycleWidth)
	if local < 0 {
		local += t.cycleWidth
	}
	for _, c := range t.chips {
		if local >= c.Left && local < c.Left+c.Width {
			return c, true
		}
	}
	return Chip{}, false
}

package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/roulette"
	"github.com/mcdev12/roleta/go/internal/viewer"
)

func TestMarquee(t *testing.T) {
	m := roulette.CellMeasurer{CellWidth: 10, Padding: 0}
	track := roulette.NewTrack(m)
	track.Render([]string{"ab", "cde"})

	assert.Equal(t, "ab cde ", Marquee(track, m, 0, 7))
	// one full cycle later looks the same
	assert.Equal(t, "ab cde ", Marquee(track, m, track.CycleWidth(), 7))

	padded := roulette.CellMeasurer{CellWidth: 10, Padding: 10}
	track = roulette.NewTrack(padded)
	track.Render([]string{"ab", "cde"})
	assert.Equal(t, "[ab] [c", Marquee(track, padded, 0, 7))
}

func TestDisplay_RenderFrame(t *testing.T) {
	var buf bytes.Buffer
	m := roulette.CellMeasurer{CellWidth: 10, Padding: 0}
	d := New(&buf, m)

	track := roulette.NewTrack(m)
	track.Render([]string{"ab", "cde"})

	d.SetParticipantsCount(2)
	d.SetStatus(true)
	d.SetCommand("!participar")
	d.SetTicker("Aguardando novas entradas...")
	d.SetTrigger("Sortear agora", true)
	w := events.WinnerRecord{DisplayName: "ab", Platform: "twitch", DrawnAt: "t1"}
	d.ShowWinner(w, []events.WinnerRecord{w})

	d.RenderFrame(viewer.Frame{Track: track, Marker: 35})
	out := buf.String()
	assert.Contains(t, out, "Participantes: 2 | Aberto | Comando: !participar")
	assert.Contains(t, out, "ab cde ")
	assert.Contains(t, out, "Ultimo ganhador: ab (twitch)")
	assert.Contains(t, out, "[Sortear agora]")
	assert.NotContains(t, out, "\x1b[7A")

	buf.Reset()
	d.SetStatus(false)
	d.SetTrigger("Sorteando...", false)
	d.Alert("Sem participantes")
	d.RenderFrame(viewer.Frame{Track: track, Marker: 35})
	out = buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b[7A"))
	assert.Contains(t, out, "Fechado")
	assert.Contains(t, out, "(Sorteando...) ! Sem participantes")
}

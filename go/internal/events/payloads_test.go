package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_DrawStarted(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"draw_started","giveaway_id":7,"winner_name":"Alice","duration_ms":4200}`))
	require.NoError(t, err)
	require.NotNil(t, msg.DrawStarted)
	assert.Equal(t, EventTypeDrawStarted, msg.Type)
	assert.Equal(t, "Alice", msg.DrawStarted.WinnerName)
	assert.Equal(t, 4200.0, msg.DrawStarted.Duration())
	assert.Nil(t, msg.State)
}

func TestDecode_DrawStartedWithoutDurationFallsBack(t *testing.T) {
	for _, raw := range []string{
		`{"type":"draw_started","winner_name":"Alice"}`,
		`{"type":"draw_started","winner_name":"Alice","duration_ms":0}`,
	} {
		msg, err := Decode([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, float64(DefaultDrawDurationMs), msg.DrawStarted.Duration(), raw)
	}
}

func TestDecode_WrappedAndBareState(t *testing.T) {
	wrapped := `{"type":"state","state":{"participants_count":3,"is_open":true,"command":"!join","participant_names":["a","b","c"],"last_winner":{"display_name":"Bob","platform":"twitch","drawn_at":"2024-01-01T00:00:00"}}}`
	bare := `{"participants_count":3,"is_open":true,"command":"!join","participant_names":["a","b","c"],"last_winner":null}`

	msg, err := Decode([]byte(wrapped))
	require.NoError(t, err)
	require.NotNil(t, msg.State)
	assert.Equal(t, 3, msg.State.ParticipantsCount)
	require.NotNil(t, msg.State.LastWinner)
	assert.Equal(t, "Bob|twitch|2024-01-01T00:00:00", msg.State.LastWinner.Key())
	assert.Equal(t, "Bob (twitch)", msg.State.LastWinner.Label())

	msg, err = Decode([]byte(bare))
	require.NoError(t, err)
	require.NotNil(t, msg.State)
	assert.Equal(t, []string{"a", "b", "c"}, msg.State.ParticipantNames)
	assert.Nil(t, msg.State.LastWinner)
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]error{
		`not json`:                                  ErrMalformed,
		`[1,2,3]`:                                   ErrMalformed,
		`null`:                                      ErrMalformed,
		`{"type":"state"}`:                          ErrMissingState,
		`{"type":"state","state":null}`:             ErrMissingState,
		`{"type":"chat","text":"hi"}`:               ErrUnknownType,
		`{"participants_count":"many"}`:             ErrMalformed,
		`{"type":"draw_started","duration_ms":"x"}`: ErrMalformed,
	}
	for raw, want := range cases {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, want, raw)
	}
}

func TestEnvelope_Giveaway(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"type":"state","state":{"giveaway_id":12}}`), &env))
	assert.Equal(t, int64(12), env.Giveaway())

	data, err := json.Marshal(NewDrawStarted(9, "Carol", 3500))
	require.NoError(t, err)
	env = Envelope{}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, int64(9), env.Giveaway())
}

package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Event payload types shared by the gateway (producer side) and the viewer (consumer side).

// EventType is the "type" discriminator carried by every push message.
type EventType string

const (
	EventTypeDrawStarted EventType = "draw_started"
	EventTypeState       EventType = "state"
)

// DefaultDrawDurationMs is used by viewers when a draw_started event carries no usable duration.
const DefaultDrawDurationMs = 4200

var (
	// ErrMalformed is returned for payloads that are not JSON objects or have mistyped fields.
	ErrMalformed = errors.New("malformed event")
	// ErrMissingState is returned for a state wrapper without a state object.
	ErrMissingState = errors.New("state event without state")
	// ErrUnknownType is returned for a typed message the viewer does not understand.
	ErrUnknownType = errors.New("unknown event type")
)

// WinnerRecord is the last winner as published in a state snapshot.
type WinnerRecord struct {
	DisplayName string `json:"display_name"`
	Platform    string `json:"platform"`
	DrawnAt     string `json:"drawn_at"`
}

// Key is the identity used to de-duplicate winner announcements.
func (w WinnerRecord) Key() string {
	return w.DisplayName + "|" + w.Platform + "|" + w.DrawnAt
}

// Label is the history line shown for a winner.
func (w WinnerRecord) Label() string {
	return fmt.Sprintf("%s (%s)", w.DisplayName, w.Platform)
}

// GiveawayState is the full snapshot published whenever a giveaway changes.
type GiveawayState struct {
	GiveawayID        int64         `json:"giveaway_id,omitempty"`
	Name              string        `json:"name,omitempty"`
	Command           string        `json:"command"`
	IsOpen            bool          `json:"is_open"`
	ParticipantsCount int           `json:"participants_count"`
	ParticipantNames  []string      `json:"participant_names"`
	LatestParticipant *string       `json:"latest_participant,omitempty"`
	TickerMessage     *string       `json:"ticker_message,omitempty"`
	LastWinner        *WinnerRecord `json:"last_winner"`
	TS                string        `json:"ts,omitempty"`
}

// DrawStartedPayload announces a draw whose winner is already known to the server.
// DurationMs is a pointer so viewers can tell an absent duration from an explicit zero.
type DrawStartedPayload struct {
	Type       EventType `json:"type"`
	GiveawayID int64     `json:"giveaway_id,omitempty"`
	WinnerName string    `json:"winner_name"`
	DurationMs *float64  `json:"duration_ms,omitempty"`
}

// Duration returns the declared duration in milliseconds, falling back to
// DefaultDrawDurationMs when the field is absent or zero.
func (p DrawStartedPayload) Duration() float64 {
	if p.DurationMs == nil || *p.DurationMs == 0 {
		return DefaultDrawDurationMs
	}
	return *p.DurationMs
}

// StateEnvelope wraps a snapshot as {"type":"state","state":{...}}.
type StateEnvelope struct {
	Type  EventType      `json:"type"`
	State *GiveawayState `json:"state"`
}

// NewStateEnvelope wraps a snapshot for publishing.
func NewStateEnvelope(state *GiveawayState) StateEnvelope {
	return StateEnvelope{Type: EventTypeState, State: state}
}

// NewDrawStarted builds a draw_started event for publishing.
func NewDrawStarted(giveawayID int64, winnerName string, durationMs int) DrawStartedPayload {
	d := float64(durationMs)
	return DrawStartedPayload{
		Type:       EventTypeDrawStarted,
		GiveawayID: giveawayID,
		WinnerName: winnerName,
		DurationMs: &d,
	}
}

// Message is a decoded inbound push message. Exactly one of DrawStarted and State is set.
type Message struct {
	Type        EventType
	DrawStarted *DrawStartedPayload
	State       *GiveawayState
}

// Decode parses one push message. It accepts the draw_started shape, the wrapped
// state shape and a bare snapshot (an object without a type field).
func Decode(data []byte) (*Message, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformed
	}

	var head struct {
		Type  EventType       `json:"type"`
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch head.Type {
	case EventTypeDrawStarted:
		var p DrawStartedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &Message{Type: EventTypeDrawStarted, DrawStarted: &p}, nil

	case EventTypeState:
		if len(head.State) == 0 || string(head.State) == "null" {
			return nil, ErrMissingState
		}
		state, err := decodeState(head.State)
		if err != nil {
			return nil, err
		}
		return &Message{Type: EventTypeState, State: state}, nil

	case "":
		state, err := decodeState(data)
		if err != nil {
			return nil, err
		}
		return &Message{Type: EventTypeState, State: state}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, head.Type)
	}
}

func decodeState(data []byte) (*GiveawayState, error) {
	var state GiveawayState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &state, nil
}

// Envelope is the bus-level view used by the gateway to route a message by giveaway
// without decoding the full payload.
type Envelope struct {
	Type       EventType `json:"type"`
	GiveawayID int64     `json:"giveaway_id"`
	State      *struct {
		GiveawayID int64 `json:"giveaway_id"`
	} `json:"state,omitempty"`
}

// Giveaway returns the giveaway the message belongs to, or 0 when it carries none.
func (e Envelope) Giveaway() int64 {
	if e.Type == EventTypeState && e.State != nil {
		return e.State.GiveawayID
	}
	return e.GiveawayID
}

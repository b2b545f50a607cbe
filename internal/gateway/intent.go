package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cory-johannsen/treasurehunt/internal/game/board"
)

// Inbound intent names.
const (
	IntentStartPos  = "startPos"
	IntentClientDig = "clientDig"
)

var (
	// ErrMalformedIntent is returned for input that is not a well-formed intent.
	ErrMalformedIntent = errors.New("malformed intent")
	// ErrUnknownIntent is returned for a well-formed intent with an unknown name.
	ErrUnknownIntent = errors.New("unknown intent")
)

// Intent is one decoded client request.
type Intent struct {
	Name   string
	Target board.Coordinate
}

// Envelope is the wire form shared by inbound intents and outbound events.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type coordinateData struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

// DecodeIntent parses a JSON envelope of the form
// {"event":"startPos","data":{"row":3,"col":4}}.
func DecodeIntent(raw []byte) (Intent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrMalformedIntent, err)
	}
	return decodeEnvelope(env)
}

func decodeEnvelope(env Envelope) (Intent, error) {
	switch env.Event {
	case IntentStartPos, IntentClientDig:
	case "":
		return Intent{}, fmt.Errorf("%w: missing event name", ErrMalformedIntent)
	default:
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, env.Event)
	}

	if len(env.Data) == 0 {
		return Intent{}, fmt.Errorf("%w: %s without data", ErrMalformedIntent, env.Event)
	}
	var data coordinateData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return Intent{}, fmt.Errorf("%w: %s data: %v", ErrMalformedIntent, env.Event, err)
	}
	if data.Row == nil || data.Col == nil {
		return Intent{}, fmt.Errorf("%w: %s requires row and col", ErrMalformedIntent, env.Event)
	}
	return Intent{Name: env.Event, Target: board.Coordinate{Row: *data.Row, Col: *data.Col}}, nil
}

// EncodeEvent renders an outbound event as a JSON envelope.
func EncodeEvent(name string, payload any) ([]byte, error) {
	env := Envelope{Event: name}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", name, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

package rpc

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/treasurehunt/internal/game/session"
	"github.com/cory-johannsen/treasurehunt/internal/gateway"
)

// EncodeEvent converts an outbound event into a Struct envelope. Payloads
// pass through their JSON form so field names match the WebSocket frames.
func EncodeEvent(evt session.Event) (*structpb.Struct, error) {
	raw, err := gateway.EncodeEvent(evt.Name, evt.Payload)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("converting %s to struct: %w", evt.Name, err)
	}
	return msg, nil
}

// DecodeIntent converts an inbound Struct envelope into an intent.
func DecodeIntent(msg *structpb.Struct) (gateway.Intent, error) {
	raw, err := protojson.Marshal(msg)
	if err != nil {
		return gateway.Intent{}, fmt.Errorf("%w: %v", gateway.ErrMalformedIntent, err)
	}
	return gateway.DecodeIntent(raw)
}

// NewIntent builds the Struct envelope for an intent.
func NewIntent(name string, row, col int) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"event": name,
		"data":  map[string]any{"row": row, "col": col},
	})
}

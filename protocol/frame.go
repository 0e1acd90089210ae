package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/araneusX/battleship-gateway/domain"
)

// TypeReg is the registration frame discriminator.
const TypeReg = "reg"

// DecodeFrame parses the two-layer inbound envelope: an outer {type, data}
// object whose data field is a string holding a second JSON document. Both
// layers must parse for the frame to be usable.
func DecodeFrame(raw []byte) (domain.Frame, error) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.Frame{}, fmt.Errorf("decode envelope: %w", err)
	}

	var inner json.RawMessage
	if err := json.Unmarshal([]byte(env.Data), &inner); err != nil {
		return domain.Frame{}, fmt.Errorf("decode payload of %q: %w", env.Type, err)
	}

	return domain.Frame{Type: env.Type, Data: inner}, nil
}

// EncodeOutbound serializes a gateway-to-client message. Outbound frames are
// encoded in a single pass; the inbound double-encoding is not mirrored.
func EncodeOutbound(msg domain.Outbound) ([]byte, error) {
	return json.Marshal(msg)
}

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrUnknownMessage   = errors.New("unknown message")
)

// MessageWriter sends one message to a peer.
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg interface{}) error
}

// Decode reads the envelope of data.
func Decode(data []byte) (Generic, error) {
	var generic Generic
	if err := json.Unmarshal(data, &generic); err != nil {
		return Generic{}, fmt.Errorf("unmarshal message: %w", err)
	}
	if generic.Event == "" {
		return Generic{}, fmt.Errorf("%w: no event", ErrUnknownMessage)
	}
	return generic, nil
}

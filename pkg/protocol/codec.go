package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is the outer JSON object of every frame.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode marshals m into an envelope.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", m.Type(), err)
	}
	if string(data) == "{}" {
		data = nil
	}
	return json.Marshal(Envelope{Type: m.Type(), Data: data})
}

// Decode unmarshals one envelope into its typed message.
func Decode(b []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var m Message
	switch env.Type {
	case TypeNavigate:
		m = &Navigate{}
	case TypeReload:
		return Reload{}, nil
	case TypeRegion:
		m = &Region{}
	case TypeScroll:
		m = &Scroll{}
	case TypeScrollTo:
		m = &ScrollTo{}
	case TypeSmooth:
		m = &Smooth{}
	case TypeError:
		m = &ErrorMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
		}
	}
	return deref(m), nil
}

// DecodeClient decodes a frame received from a client. Only client message
// types are accepted.
func DecodeClient(b []byte) (Message, error) {
	if len(b) > MaxClientMessageSize {
		return nil, ErrMessageTooLarge
	}
	m, err := Decode(b)
	if err != nil {
		return nil, err
	}
	switch msg := m.(type) {
	case Navigate:
		if msg.Path == "" || len(msg.Path) > MaxPathLength {
			return nil, fmt.Errorf("%w: navigate path length %d", ErrMalformed, len(msg.Path))
		}
		return msg, nil
	case Reload:
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q from client", ErrUnknownType, m.Type())
	}
}

func deref(m Message) Message {
	switch v := m.(type) {
	case *Navigate:
		return *v
	case *Region:
		return *v
	case *Scroll:
		return *v
	case *ScrollTo:
		return *v
	case *Smooth:
		return *v
	case *ErrorMessage:
		return *v
	}
	return m
}

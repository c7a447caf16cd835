package protocol

const (
	// MaxClientMessageSize bounds a single client frame. Navigate is the
	// largest client message and carries one URL.
	MaxClientMessageSize = 8 * 1024

	// MaxPathLength bounds the path carried by Navigate.
	MaxPathLength = 2048
)

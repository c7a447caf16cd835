package protocol

// MessageType identifies a message in the envelope.
type MessageType string

const (
	TypeNavigate MessageType = "navigate" // Client navigated
	TypeReload   MessageType = "reload"   // Recovery request or document reload
	TypeRegion   MessageType = "region"   // Region replacement
	TypeScroll   MessageType = "scroll"   // Absolute viewport move
	TypeScrollTo MessageType = "scrollTo" // Element reveal
	TypeSmooth   MessageType = "smooth"   // Ambient smooth-scroll toggle
	TypeError    MessageType = "error"    // Rejected request
)

// Message is any payload that can travel in an envelope.
type Message interface {
	Type() MessageType
}

// Navigate is sent when the browser location changes.
type Navigate struct {
	Path string `json:"path"`
}

// Reload asks the server for recovery, or the client for a document reload.
type Reload struct{}

// Region replaces the contents of the element with id ID.
type Region struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// Scroll moves the viewport to (X, Y).
type Scroll struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Behavior string `json:"behavior"`
}

// ScrollTo reveals the element with id ID.
type ScrollTo struct {
	ID       string `json:"id"`
	Behavior string `json:"behavior"`
}

// Smooth toggles the page's ambient smooth-scroll styling.
type Smooth struct {
	Enabled bool `json:"enabled"`
}

// Type returns TypeNavigate.
func (Navigate) Type() MessageType { return TypeNavigate }

// Type returns TypeReload.
func (Reload) Type() MessageType { return TypeReload }

// Type returns TypeRegion.
func (Region) Type() MessageType { return TypeRegion }

// Type returns TypeScroll.
func (Scroll) Type() MessageType { return TypeScroll }

// Type returns TypeScrollTo.
func (ScrollTo) Type() MessageType { return TypeScrollTo }

// Type returns TypeSmooth.
func (Smooth) Type() MessageType { return TypeSmooth }

// Type returns TypeError.
func (ErrorMessage) Type() MessageType { return TypeError }

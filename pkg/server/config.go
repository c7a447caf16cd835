package server

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Config configures the HTTP server and its sessions.
type Config struct {
	// Address is the listen address (default ":8080").
	Address string

	// StaticDir is served under /static/ when set.
	StaticDir string

	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration

	// MaxSessions limits concurrent sessions. 0 means no limit.
	MaxSessions int

	// SendQueueSize is the per-session outbound frame buffer.
	SendQueueSize int

	// InboxSize is the per-session inbound message buffer.
	InboxSize int

	// HeartbeatInterval is the time between pings.
	HeartbeatInterval time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// NavigationRate and NavigationBurst limit navigate messages per session.
	NavigationRate  rate.Limit
	NavigationBurst int

	// CheckOrigin validates the websocket request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address:           ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		SendQueueSize:     64,
		InboxSize:         32,
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
		NavigationRate:    20,
		NavigationBurst:   40,
		CheckOrigin:       SameOriginCheck,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = d.SendQueueSize
	}
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.NavigationRate <= 0 {
		c.NavigationRate = d.NavigationRate
	}
	if c.NavigationBurst <= 0 {
		c.NavigationBurst = d.NavigationBurst
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	return c
}

// SameOriginCheck validates that the websocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., same-origin request or curl)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}

// AllowedOriginsCheck accepts same-origin requests and requests whose Origin
// host is in hosts.
func AllowedOriginsCheck(hosts []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		allowed[h] = true
	}
	return func(r *http.Request) bool {
		if SameOriginCheck(r) {
			return true
		}
		originURL, err := url.Parse(r.Header.Get("Origin"))
		if err != nil {
			return false
		}
		return allowed[originURL.Host]
	}
}

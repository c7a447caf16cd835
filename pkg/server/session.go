package server

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/harborlight/siteshell/pkg/middleware"
	"github.com/harborlight/siteshell/pkg/protocol"
	"github.com/harborlight/siteshell/pkg/shell"
)

// ErrSendQueueFull is the close reason for a client that cannot keep up.
var ErrSendQueueFull = errors.New("server: send queue full")

// Session is one websocket connection and its mounted application.
type Session struct {
	ID        string
	CreatedAt time.Time

	conn    *websocket.Conn
	inst    *shell.Instance
	config  Config
	limiter *rate.Limiter
	metrics *middleware.Metrics
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	inbox      chan protocol.Message
	dispatchCh chan func()
	send       chan []byte
	done       chan struct{}
	closed     atomic.Bool
	onClose    func(*Session)

	navigations atomic.Uint64
}

func newSession(ctx context.Context, conn *websocket.Conn, sh *shell.Shell, cfg Config, m *middleware.Metrics, logger *slog.Logger) *Session {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		conn:       conn,
		config:     cfg,
		limiter:    rate.NewLimiter(cfg.NavigationRate, cfg.NavigationBurst),
		metrics:    m,
		logger:     logger.With("session", id),
		ctx:        ctx,
		cancel:     cancel,
		inbox:      make(chan protocol.Message, cfg.InboxSize),
		dispatchCh: make(chan func(), cfg.InboxSize),
		send:       make(chan []byte, cfg.SendQueueSize),
		done:       make(chan struct{}),
	}
	s.inst = sh.NewInstance(s, s.Dispatch, s.logger)
	return s
}

// Start runs the session goroutines. It returns immediately.
func (s *Session) Start() {
	go s.EventLoop()
	go s.WriteLoop()
	go s.ReadLoop()
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Navigations returns the number of navigations handled.
func (s *Session) Navigations() uint64 {
	return s.navigations.Load()
}

// Send encodes m and queues it for the write loop. A client whose queue is
// full is disconnected.
func (s *Session) Send(m protocol.Message) {
	if s.closed.Load() {
		return
	}
	frame, err := protocol.Encode(m)
	if err != nil {
		s.logger.Error("encode error", "type", m.Type(), "error", err)
		return
	}
	select {
	case s.send <- frame:
	default:
		s.logger.Warn("send queue full, closing session")
		s.recordError("send_queue_full")
		go s.Close()
	}
}

// Dispatch queues fn to run on the session's event loop. It is safe to call
// from any goroutine.
func (s *Session) Dispatch(fn func()) {
	if s.closed.Load() {
		return
	}
	select {
	case s.dispatchCh <- fn:
	case <-s.done:
	default:
		s.logger.Warn("dispatch queue full, discarding callback")
	}
}

// ReadLoop decodes client messages and queues them for the event loop.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(protocol.MaxClientMessageSize)
	pongWait := 2 * s.config.HeartbeatInterval
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				s.recordError("read")
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			s.logger.Warn("invalid client message", "error", err)
			s.recordError("decode")
			s.Dispatch(func() { s.Send(protocol.NewError(protocol.ErrInvalidMessage)) })
			continue
		}

		if _, ok := msg.(protocol.Navigate); ok && !s.limiter.Allow() {
			s.logger.Warn("navigation rate limited")
			s.Dispatch(func() { s.Send(protocol.NewError(protocol.ErrRateLimited)) })
			continue
		}

		select {
		case s.inbox <- msg:
		case <-s.done:
			return
		default:
			s.logger.Warn("inbox full, dropping message", "type", msg.Type())
			s.Dispatch(func() { s.Send(protocol.NewError(protocol.ErrRateLimited)) })
		}
	}
}

// EventLoop owns the Instance. Messages and dispatched callbacks run here.
func (s *Session) EventLoop() {
	defer s.inst.Close()

	for {
		select {
		case msg := <-s.inbox:
			s.safeExecute(func() { s.handle(msg) })

		case fn := <-s.dispatchCh:
			s.safeExecute(fn)

		case <-s.done:
			return
		}
	}
}

func (s *Session) handle(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.Navigate:
		s.navigations.Add(1)
		s.inst.Navigate(s.ctx, m.Path)
	case protocol.Reload:
		s.inst.Reload()
	}
}

// safeExecute runs fn, recovering panics so one bad callback cannot end the
// event loop.
func (s *Session) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event loop panic",
				"panic", r,
				"stack", string(debug.Stack()))
			s.recordError("panic")
			s.Send(protocol.NewError(protocol.ErrServerError))
		}
	}()
	fn()
}

// WriteLoop writes queued frames and sends heartbeat pings.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("write error", "error", err)
				s.recordError("write")
				go s.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("ping error", "error", err)
				go s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.cancel()
	close(s.done)

	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.conn.Close()

	if s.onClose != nil {
		s.onClose(s)
	}
	s.logger.Info("session closed",
		"navigations", s.navigations.Load(),
		"duration", time.Since(s.CreatedAt))
}

func (s *Session) recordError(kind string) {
	if s.metrics != nil {
		s.metrics.RecordWebSocketError(kind)
	}
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/pool"
	"github.com/gorilla/websocket"
)

// session is one established gateway connection.
type session struct {
	id           int
	conn         *websocket.Conn
	dispatch     pool.Pool
	listeners    []shardmanager.Listener
	logger       shardmanager.Logger
	onDisconnect func(shardID int, err error)

	writeMu   sync.Mutex
	seq       atomic.Int64
	sessionID string

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
	closing  atomic.Bool
	stopOnce sync.Once
}

var _ shardmanager.Session = (*session)(nil)

func newSession(cfg shardmanager.SessionConfig, conn *websocket.Conn, logger shardmanager.Logger, onDisconnect func(int, error)) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:           cfg.ShardID,
		conn:         conn,
		dispatch:     cfg.Pools.Get(pool.KindEventDispatch),
		listeners:    cfg.Listeners,
		logger:       logger,
		onDisconnect: onDisconnect,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// ShardID implements shardmanager.Session.
func (s *session) ShardID() int {
	return s.id
}

// handshake runs HELLO / IDENTIFY / READY and returns the heartbeat interval.
func (s *session) handshake(id identify) (time.Duration, error) {
	p, err := s.read()
	if err != nil {
		return 0, fmt.Errorf("failed to read hello: %w", err)
	}
	if p.Op != OpHello {
		return 0, fmt.Errorf("expected hello, got op %d", p.Op)
	}

	var h hello
	if err := decode(p.D, &h); err != nil {
		return 0, fmt.Errorf("failed to decode hello: %w", err)
	}

	data, err := json.Marshal(id)
	if err != nil {
		return 0, fmt.Errorf("failed to encode identify: %w", err)
	}
	if err := s.write(Payload{Op: OpIdentify, D: data}); err != nil {
		return 0, fmt.Errorf("failed to send identify: %w", err)
	}

	for {
		p, err := s.read()
		if err != nil {
			return 0, fmt.Errorf("failed to read ready: %w", err)
		}

		switch p.Op {
		case OpDispatch:
			if p.T != EventReady {
				continue
			}
			var r ready
			if err := decode(p.D, &r); err != nil {
				return 0, fmt.Errorf("failed to decode ready: %w", err)
			}
			s.sessionID = r.SessionID
			return time.Duration(h.HeartbeatInterval) * time.Millisecond, nil
		case OpHeartbeat:
			if err := s.heartbeat(); err != nil {
				return 0, err
			}
		case OpInvalidSession:
			return 0, errors.New("gateway invalidated the session during identify")
		}
	}
}

func (s *session) start(interval time.Duration) {
	s.wg.Add(1)
	go s.readLoop()

	if interval > 0 {
		s.wg.Add(1)
		go s.heartbeatLoop(interval)
	}
}

func (s *session) readLoop() {
	defer s.wg.Done()
	defer close(s.done)
	defer s.cancel()

	for {
		p, err := s.read()
		if err != nil {
			_ = s.conn.Close()
			if !s.closing.Load() {
				if s.logger != nil {
					s.logger.Error(s.ctx, "gateway connection lost", "shardID", s.id, "error", err)
				}
				if s.onDisconnect != nil {
					s.onDisconnect(s.id, err)
				}
			}
			return
		}

		switch p.Op {
		case OpDispatch:
			s.fanOut(p.T, p.D)
		case OpHeartbeat:
			if err := s.heartbeat(); err != nil && s.logger != nil {
				s.logger.Error(s.ctx, "failed to send heartbeat", "shardID", s.id, "error", err)
			}
		case OpReconnect, OpInvalidSession:
			if s.logger != nil {
				s.logger.Info(s.ctx, "gateway requested reconnect", "shardID", s.id, "op", p.Op)
			}
			_ = s.conn.Close()
		}
	}
}

func (s *session) heartbeatLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.heartbeat(); err != nil {
				if s.logger != nil && !s.closing.Load() {
					s.logger.Error(s.ctx, "failed to send heartbeat", "shardID", s.id, "error", err)
				}
				return
			}
		}
	}
}

func (s *session) fanOut(event string, data json.RawMessage) {
	if len(s.listeners) == 0 {
		return
	}

	deliver := func() {
		for _, l := range s.listeners {
			l.OnEvent(s.ctx, s.id, event, data)
		}
	}

	if s.dispatch == nil {
		deliver()
		return
	}
	if err := s.dispatch.Submit(deliver); err != nil && s.logger != nil {
		s.logger.Debug(s.ctx, "dropped dispatch", "shardID", s.id, "event", event, "error", err)
	}
}

func (s *session) heartbeat() error {
	d := json.RawMessage("null")
	if seq := s.seq.Load(); seq > 0 {
		d = json.RawMessage(fmt.Sprint(seq))
	}
	return s.write(Payload{Op: OpHeartbeat, D: d})
}

func (s *session) read() (Payload, error) {
	var p Payload
	if err := s.conn.ReadJSON(&p); err != nil {
		return Payload{}, closeError(err)
	}
	if p.S != nil {
		s.seq.Store(*p.S)
	}
	return p, nil
}

func (s *session) write(p Payload) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(p)
}

// Shutdown implements shardmanager.Session. It sends a normal close frame and
// waits for the gateway to acknowledge it or for ctx to be done.
func (s *session) Shutdown(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.closing.Store(true)

		s.writeMu.Lock()
		werr := s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		s.writeMu.Unlock()

		if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
			select {
			case <-s.done:
			default:
				err = fmt.Errorf("failed to send close frame: %w", werr)
			}
		}

		select {
		case <-s.done:
		case <-ctx.Done():
		}
		s.stop()
	})
	return err
}

// ShutdownNow implements shardmanager.Session.
func (s *session) ShutdownNow() error {
	s.stopOnce.Do(func() {
		s.closing.Store(true)
		s.stop()
	})
	return nil
}

func (s *session) stop() {
	s.cancel()
	_ = s.conn.Close()
	s.wg.Wait()
}

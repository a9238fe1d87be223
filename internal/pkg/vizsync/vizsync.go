package vizsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/infraglow/glowctl/internal/pkg/config"
	"github.com/infraglow/glowctl/internal/pkg/entities"
	"github.com/infraglow/glowctl/internal/pkg/model"
	"github.com/infraglow/glowctl/pkg/sockets"
)

// Service keeps the visualization config for one backend entry in sync
// over the websocket channel and feeds entity state events into the
// snapshot.
type Service struct {
	cfg      *config.BackendConfig
	store    *Store
	snapshot *entities.Snapshot
	errChan  chan error
	logger   *zap.Logger

	// conn is swapped by reconnect from the socket read goroutine while
	// calls read it from HTTP, cron and update goroutines.
	connMu sync.RWMutex
	conn   sockets.Connection

	nextID  atomic.Uint64
	reloads singleflight.Group
	backoff []time.Duration
}

func New(cfg *config.BackendConfig, snapshot *entities.Snapshot, errChan chan error) *Service {
	return &Service{
		cfg:      cfg,
		store:    NewStore(),
		snapshot: snapshot,
		errChan:  errChan,
		logger:   zap.L(),
		backoff:  reloadBackoff,
	}
}

func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) connection() sockets.Connection {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.conn
}

func (s *Service) setConnection(conn sockets.Connection) sockets.Connection {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	old := s.conn
	s.conn = conn
	return old
}

func (s *Service) sendIfErr(err error) {
	if err != nil {
		s.errChan <- err
	}
}

func (s *Service) requestID() uint64 {
	return s.nextID.Add(1)
}

func (s *Service) wsURL() string {
	scheme := "ws"
	if s.cfg.Ssl {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: s.cfg.Host, Path: "/api/glow/ws"}
	return u.String()
}

// Connect dials the channel, subscribes to entity state events and runs
// the initial config load.
func (s *Service) Connect(ctx context.Context) error {
	if err := s.reconnect(ctx); err != nil {
		return err
	}
	if _, err := s.Load(ctx); err != nil {
		// The consumer retries via Reload; an empty store is the
		// documented "unloaded" state.
		s.logger.Warn("initial load failed, store stays unloaded", zap.Error(err))
	}
	return nil
}

func (s *Service) reconnect(ctx context.Context) error {
	opts := []func(*sockets.Conn){
		sockets.OnMessage(s.onMessage),
		sockets.OnError(s.onError),
		sockets.WithPingIntervalSec(20),
		sockets.WithPingMsg([]byte(`{"type":"ping"}`)),
	}
	if s.cfg.Ssl {
		opts = append(opts, sockets.InsecureSkipVerify())
	}
	conn := sockets.New(opts...)

	u := s.wsURL()
	s.logger.Debug("connecting to", zap.String("url", u))
	if err := conn.Dial(ctx, u, ""); err != nil {
		s.logger.Error("failed to connect to", zap.String("url", u), zap.Error(err))
		return err
	}

	if old := s.setConnection(conn); old != nil {
		_ = old.Close()
	}
	if err := s.subscribeStates(); err != nil {
		return err
	}
	s.logger.Debug("successfully connected to", zap.String("url", u))
	return nil
}

func (s *Service) subscribeStates() error {
	id := s.requestID()
	data, err := json.Marshal(model.SubscribeStatesRequest{
		Request: model.Request{ID: id, Type: model.SubscribeStates},
		EntryID: s.cfg.EntryID,
	})
	if err != nil {
		return err
	}
	return s.connection().Send(sockets.Msg{
		ID:   id,
		Body: data,
		Callback: func(data []byte, _ sockets.Connection) {
			s.logger.Debug("state subscription acknowledged", zap.ByteString("result", data))
		},
	})
}

// onMessage handles uncorrelated stream frames: entity state events.
func (s *Service) onMessage(data []byte, _ sockets.Connection) {
	var env model.EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("undecodable frame", zap.Error(err))
		return
	}
	if env.Type != "event" {
		s.logger.Debug("ignoring frame", zap.String("type", env.Type))
		return
	}
	switch env.Event.EventType {
	case "state_changed":
		s.snapshot.HandleStateChanged(env.Event.Data)
	default:
		s.logger.Debug("ignoring event", zap.String("event_type", env.Event.EventType))
	}
}

func (s *Service) onError(err error) {
	if isDisconnect(err) {
		s.logger.Info("channel lost, reconnecting", zap.Error(err))
		err = s.reconnect(context.Background())
		if err == nil {
			go func() {
				s.Reload(context.Background())
			}()
			return
		}
	}
	s.sendIfErr(err)
}

// isDisconnect classifies read-loop errors that mean the channel is gone.
// gorilla reports backend restarts as close or network errors, not as a
// plain EOF.
func isDisconnect(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// call issues one command frame and waits for the id-correlated result.
func (s *Service) call(ctx context.Context, id uint64, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	conn := s.connection()
	if conn == nil {
		return nil, errors.New("channel not connected")
	}

	resultChan := make(chan []byte, 1)
	err := conn.Send(sockets.Msg{
		ID:   id,
		Body: body,
		Callback: func(data []byte, _ sockets.Connection) {
			resultChan <- data
		},
	})
	if err != nil {
		return nil, err
	}
	select {
	case data := <-resultChan:
		return data, nil
	case <-ctx.Done():
		// drop the pending entry so abandoned commands cannot pile up
		conn.Cancel(id)
		return nil, fmt.Errorf("command %d: %w", id, ctx.Err())
	}
}

// command marshals req, sends it and decodes the typed result payload.
func command[T any](ctx context.Context, s *Service, req any, id uint64) (T, error) {
	var zero T
	body, err := json.Marshal(req)
	if err != nil {
		return zero, err
	}
	data, err := s.call(ctx, id, body)
	if err != nil {
		return zero, err
	}
	res := model.ParsedResult[T]{}
	if err := json.Unmarshal(data, &res); err != nil {
		return zero, err
	}
	if !res.Success {
		if res.Error != nil {
			return zero, fmt.Errorf("backend rejected command: %s (%s)", res.Error.Message, res.Error.Code)
		}
		return zero, errors.New("backend rejected command")
	}
	return res.Result, nil
}

// Close tears the channel down.
func (s *Service) Close() error {
	conn := s.connection()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// detach returns a bounded context not tied to the caller, for
// fire-and-forget sends that outlive the originating request.
func (s *Service) detach() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.CallTimeout+time.Second)
}

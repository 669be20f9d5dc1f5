package control

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Tank-Arena/internal/game"
)

// Message types sent to websocket clients.
const (
	MessageState   = "state"
	MessageCommand = "command"
	MessageError   = "error"
)

// Message is the server-to-client websocket envelope.
type Message struct {
	Type   string           `json:"type"`
	State  *game.StateView  `json:"state,omitempty"`
	Result *game.Submission `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Status int              `json:"status,omitempty"`
}

// localOrigins are the browser origins allowed besides the server's own host.
var localOrigins = []string{"localhost:*", "127.0.0.1:*", "[::1]:*"}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: localOrigins,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to accept websocket")
		return
	}
	defer conn.CloseNow()

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket connected")
	err = s.runSession(r.Context(), conn)
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		err = nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Debug().Err(err).Msg("websocket session ended")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// runSession pumps commands in and state out until either side stops.
func (s *Server) runSession(ctx context.Context, conn *websocket.Conn) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return s.readLoop(ctx, conn) })
	eg.Go(func() error { return s.pushLoop(ctx, conn) })
	return eg.Wait()
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var req CommandRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			return err
		}
		sub, status, err := s.submit(ctx, req.Tank, req.Text)
		msg := Message{Type: MessageCommand, Result: &sub, Status: status}
		if err != nil {
			msg = Message{Type: MessageError, Error: err.Error(), Status: status}
		}
		if err := write(ctx, conn, msg); err != nil {
			return err
		}
	}
}

func (s *Server) pushLoop(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(s.push)
	defer ticker.Stop()

	var last uint64
	sent := false
	for {
		if v := s.cmd.View(); !sent || v.Tick != last {
			if err := write(ctx, conn, Message{Type: MessageState, State: v}); err != nil {
				return err
			}
			last, sent = v.Tick, true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

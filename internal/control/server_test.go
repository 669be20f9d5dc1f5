package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Tank-Arena/internal/game"
	"github.com/Garsondee/Tank-Arena/internal/level"
)

type reply struct {
	ID      string   `json:"id"`
	Tank    int      `json:"tank"`
	Text    string   `json:"text"`
	Actions []string `json:"actions"`
	Error   string   `json:"error"`
}

func newTestServer(t *testing.T, mode game.Mode) (*Server, *game.Match) {
	t.Helper()
	lvl, err := level.Default()
	require.NoError(t, err)

	cfg := game.DefaultMatchConfig()
	cfg.Mode = mode
	cfg.AI.StartupTicks = 0
	m, err := game.NewMatch(cfg, lvl.Field())
	require.NoError(t, err)

	s, err := NewServer(m, lvl, 10*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	return s, m
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, reply) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var r reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	return rec, r
}

func TestCommandAccepted(t *testing.T) {
	s, m := newTestServer(t, game.Mode1P)
	rec, r := post(t, s.Handler(), "/tanks/1/command", `{"text": "turn right 90 then shoot"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 1, r.Tank)
	assert.Equal(t, []string{"TurnRight(90)", "Shoot"}, r.Actions)

	m.Step(context.Background())
	tv, ok := m.View().Tank(game.Tank1)
	require.True(t, ok)
	assert.Equal(t, game.ExecExecuting, tv.Executor.State)
}

func TestStopSubmitsEmptyQueue(t *testing.T) {
	s, _ := newTestServer(t, game.Mode2P)
	rec, r := post(t, s.Handler(), "/tanks/2/command", `{"text": "stop"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, r.Actions)
}

func TestCommandErrors(t *testing.T) {
	s, _ := newTestServer(t, game.Mode1P)
	h := s.Handler()

	cases := []struct {
		path, body string
		status     int
	}{
		{"/tanks/1/command", `{"text": "dance wildly"}`, http.StatusBadRequest},
		{"/tanks/1/command", `{"text": ""}`, http.StatusBadRequest},
		{"/tanks/1/command", `not json`, http.StatusBadRequest},
		{"/tanks/3/command", `{"text": "shoot"}`, http.StatusNotFound},
		{"/tanks/abc/command", `{"text": "shoot"}`, http.StatusNotFound},
		{"/tanks/2/command", `{"text": "shoot"}`, http.StatusForbidden},
	}
	for _, c := range cases {
		rec, r := post(t, h, c.path, c.body)
		assert.Equal(t, c.status, rec.Code, "%s %s", c.path, c.body)
		assert.NotEmpty(t, r.Error)
	}
}

func TestIntakeClosedIsUnavailable(t *testing.T) {
	s, m := newTestServer(t, game.Mode2P)
	m.Close()
	rec, _ := post(t, s.Handler(), "/tanks/1/command", `{"text": "shoot"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStateAndLevel(t *testing.T) {
	s, _ := newTestServer(t, game.ModeDemo)
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var v struct {
		Mode  string `json:"mode"`
		Phase string `json:"phase"`
		Tanks []struct {
			ID int  `json:"id"`
			AI bool `json:"ai"`
		} `json:"tanks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "demo", v.Mode)
	assert.Equal(t, "playing", v.Phase)
	require.Len(t, v.Tanks, 2)
	assert.True(t, v.Tanks[0].AI)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/level", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"FeatureCollection"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestWebsocketCommandAndPush(t *testing.T) {
	s, _ := newTestServer(t, game.Mode2P)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, wsjson.Write(ctx, conn, CommandRequest{Tank: game.Tank2, Text: "fire"}))
	require.NoError(t, wsjson.Write(ctx, conn, CommandRequest{Tank: game.Tank1, Text: "moonwalk"}))

	var gotState, gotCommand, gotError bool
	for !(gotState && gotCommand && gotError) {
		var msg struct {
			Type   string          `json:"type"`
			State  json.RawMessage `json:"state"`
			Result *reply          `json:"result"`
			Error  string          `json:"error"`
			Status int             `json:"status"`
		}
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		switch msg.Type {
		case MessageState:
			gotState = len(msg.State) > 0
		case MessageCommand:
			gotCommand = true
			require.NotNil(t, msg.Result)
			assert.Equal(t, 2, msg.Result.Tank)
			assert.Equal(t, []string{"Shoot"}, msg.Result.Actions)
			assert.Equal(t, http.StatusAccepted, msg.Status)
		case MessageError:
			gotError = true
			assert.Equal(t, http.StatusBadRequest, msg.Status)
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestWebsocketOrigins(t *testing.T) {
	s, _ := newTestServer(t, game.Mode2P)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dial := func(origin string) (*websocket.Conn, *http.Response, error) {
		return websocket.Dial(ctx, url, &websocket.DialOptions{
			HTTPHeader: http.Header{"Origin": []string{origin}},
		})
	}

	conn, resp, err := dial("https://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, conn)

	conn, _, err = dial("http://localhost:3000")
	require.NoError(t, err)
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusAccepted, statusFor(nil))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(game.ErrIntakeFull))
	assert.Equal(t, http.StatusBadRequest, statusFor(game.ErrEmptyCommand))
}

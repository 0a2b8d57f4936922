package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/app/orch"
	"github.com/dkeye/Poker/internal/config"
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/dkeye/Poker/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"*"},
		WS: config.WSConfig{
			ReadLimit:    32768,
			PingPeriod:   time.Minute,
			SendBuffer:   16,
			Backpressure: "kick",
		},
		RateLimit: config.RateLimitConfig{Events: 100, Interval: time.Second},
		Rooms:     config.RoomsConfig{GCEmpty: true, AllowOverwrite: true},
		Store:     config.StoreConfig{Driver: config.DriverMemory, OpTimeout: 2 * time.Second},
	}
}

type testServer struct {
	url   string
	orch  *orch.Orchestrator
	store core.RoomStore
}

func startServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rooms := store.NewMemory()
	o := &orch.Orchestrator{
		Registry:       app.NewRegistry(),
		Rooms:          app.NewRoomManager(),
		Store:          rooms,
		Policy:         app.SimplePolicy{},
		GCEmptyRooms:   cfg.Rooms.GCEmpty,
		AllowOverwrite: cfg.Rooms.AllowOverwrite,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ctl := NewSignalWSController(o, cfg)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testServer{
		url:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		orch:  o,
		store: rooms,
	}
}

type wsClient struct {
	t  *testing.T
	ws *websocket.Conn
}

func (s *testServer) dial(t *testing.T) *wsClient {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return &wsClient{t: t, ws: ws}
}

func (c *wsClient) send(event string, data any) {
	c.t.Helper()
	require.NoError(c.t, c.ws.WriteJSON(map[string]any{"type": event, "data": data}))
}

func (c *wsClient) sendRaw(frame string) {
	c.t.Helper()
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// expect reads the next frame and requires it to be event.
func (c *wsClient) expect(event string) json.RawMessage {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f received
	require.NoError(c.t, c.ws.ReadJSON(&f))
	require.Equal(c.t, event, f.Type, "payload: %s", f.Data)
	return f.Data
}

func (c *wsClient) expectSilence(d time.Duration) {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(d)))
	_, data, err := c.ws.ReadMessage()
	require.Error(c.t, err, "unexpected frame %s", data)
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func decodeUsers(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var users []domain.User
	require.NoError(t, json.Unmarshal(raw, &users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, string(u.ID))
	}
	return ids
}

func (c *wsClient) join(roomID, userID, name string) json.RawMessage {
	c.t.Helper()
	c.send(EventCreateUser, map[string]any{"roomId": roomID, "user": map[string]any{"id": userID, "name": name}})
	c.send(EventEnterRoom, roomID)
	c.expect(orch.EventUpdateUsers)
	return c.expect(orch.EventGetRoom)
}

func TestVotingRound(t *testing.T) {
	srv := startServer(t, testConfig())
	c1 := srv.dial(t)
	c2 := srv.dial(t)

	c1.send(EventCreateRoom, map[string]any{"id": "R1", "scale": []int{1, 2, 3}})
	snap := c1.join("R1", "u1", "Ann")

	var got struct {
		Room  map[string]any  `json:"room"`
		Users json.RawMessage `json:"users"`
	}
	require.NoError(t, json.Unmarshal(snap, &got))
	assert.Equal(t, []any{1.0, 2.0, 3.0}, got.Room["scale"])
	assert.Equal(t, []string{"u1"}, decodeUsers(t, got.Users))

	c2.join("R1", "u2", "Bob")
	assert.Equal(t, []string{"u1", "u2"}, decodeUsers(t, c1.expect(orch.EventUpdateUsers)))

	c1.send(EventSendVote, map[string]any{"roomId": "R1", "vote": 5})
	c1.expect(orch.EventUpdateUsers)
	c2.expect(orch.EventUpdateUsers)

	c2.send(EventGetVotes, "R1")
	for _, c := range []*wsClient{c1, c2} {
		var votes map[string][]domain.User
		require.NoError(t, json.Unmarshal(c.expect(orch.EventShowVotes), &votes))
		require.Len(t, votes, 1)
		require.Len(t, votes["5"], 1)
		assert.Equal(t, domain.UserID("u1"), votes["5"][0].ID)
	}

	c2.send(EventResetVotes, "R1")
	c1.expect(orch.EventClearVotes)
	c2.expect(orch.EventClearVotes)

	require.NoError(t, c2.ws.Close())
	assert.Equal(t, []string{"u1"}, decodeUsers(t, c1.expect(orch.EventUpdateUsers)))

	require.NoError(t, c1.ws.Close())
	assert.Eventually(t, func() bool {
		_, err := srv.store.Get(context.Background(), "R1")
		return err != nil
	}, 2*time.Second, 20*time.Millisecond, "empty room collected")
	assert.Eventually(t, func() bool { return srv.orch.Registry.Count() == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestRejectedJoins(t *testing.T) {
	srv := startServer(t, testConfig())
	c := srv.dial(t)

	c.send(EventCreateUser, map[string]any{"roomId": "nope", "user": map[string]any{"id": "u1"}})
	c.send(EventEnterRoom, "nope")
	assert.Empty(t, c.expect(orch.EventForbiddenRoom))

	c.send(EventCreateRoom, map[string]any{"id": 42})
	c.send(EventEnterRoom, 42)
	c.expect(orch.EventNoUserFound)

	c.send(EventSendVote, map[string]any{"roomId": "42", "vote": 1})
	c.expect(orch.EventNoUserFound)
}

func TestLeaveRoomKeepsConnection(t *testing.T) {
	srv := startServer(t, testConfig())
	c1 := srv.dial(t)
	c2 := srv.dial(t)
	c1.send(EventCreateRoom, map[string]any{"id": "R1"})
	c1.join("R1", "u1", "Ann")
	c2.join("R1", "u2", "Bob")
	c1.expect(orch.EventUpdateUsers)

	c2.send(EventLeaveRoom, "R1")
	assert.Equal(t, []string{"u1"}, decodeUsers(t, c1.expect(orch.EventUpdateUsers)))

	c2.send(EventPing, nil)
	c2.expect(orch.EventPong)
}

func TestBadPayloadGetsErrorEvent(t *testing.T) {
	srv := startServer(t, testConfig())
	c := srv.dial(t)

	c.send(EventSendVote, "not an object")
	var p orch.ErrorPayload
	require.NoError(t, json.Unmarshal(c.expect(orch.EventError), &p))
	assert.Equal(t, EventSendVote, p.Event)
	assert.Contains(t, p.Error, "bad payload")

	c.send(EventCreateRoom, map[string]any{"scale": []int{1}})
	require.NoError(t, json.Unmarshal(c.expect(orch.EventError), &p))
	assert.Equal(t, EventCreateRoom, p.Event)

	c.send(EventCreateUser, map[string]any{"roomId": "R1", "user": map[string]any{"name": "no id"}})
	require.NoError(t, json.Unmarshal(c.expect(orch.EventError), &p))
	assert.Equal(t, EventCreateUser, p.Event)

	c.sendRaw(`{not json`)
	c.sendRaw(`{"type":"mystery"}`)
	c.send(EventPing, nil)
	c.expect(orch.EventPong)
}

func TestDuplicateRoomRejectedWithoutOverwrite(t *testing.T) {
	cfg := testConfig()
	cfg.Rooms.AllowOverwrite = false
	srv := startServer(t, cfg)
	c := srv.dial(t)

	c.send(EventCreateRoom, map[string]any{"id": "R1", "v": 1})
	c.send(EventCreateRoom, map[string]any{"id": "R1", "v": 2})
	var p orch.ErrorPayload
	require.NoError(t, json.Unmarshal(c.expect(orch.EventError), &p))
	assert.Contains(t, p.Error, domain.ErrDuplicateRoom.Error())

	cfgRaw, err := srv.store.Get(context.Background(), "R1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"R1","v":1}`, string(cfgRaw))
}

func TestRateLimitDropsExcessEvents(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Events: 2, Interval: time.Minute}
	srv := startServer(t, cfg)
	c := srv.dial(t)

	for i := 0; i < 4; i++ {
		c.send(EventPing, nil)
	}
	c.expect(orch.EventPong)
	c.expect(orch.EventPong)
	c.expectSilence(200 * time.Millisecond)
}

func TestOriginCheck(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"http://poker.example.com"}
	srv := startServer(t, cfg)

	header := http.Header{"Origin": []string{"http://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(srv.url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://poker.example.com")
	ws, _, err := websocket.DefaultDialer.Dial(srv.url, header)
	require.NoError(t, err)
	ws.Close()
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("s1"))
	assert.True(t, rl.Allow("s1"))
	assert.False(t, rl.Allow("s1"))
	assert.True(t, rl.Allow("s2"), "windows are per connection")

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, rl.Allow("s1"))

	rl.Forget("s1")
	rl.Forget("s2")
	assert.Zero(t, rl.tracked())

	off := NewRateLimiter(0, time.Second)
	for i := 0; i < 100; i++ {
		require.True(t, off.Allow("s1"))
	}
}

func TestParseRoomID(t *testing.T) {
	for raw, want := range map[string]domain.RoomID{`"R1"`: "R1", `7`: "7", ` "x" `: "x"} {
		got, err := parseRoomID(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	for _, raw := range []string{``, `null`, `""`, `true`, `{"roomId":"R1"}`} {
		_, err := parseRoomID(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrBadPayload, raw)
	}
}

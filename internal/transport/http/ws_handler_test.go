package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/birdroom/internal/config"
	"github.com/vovakirdan/birdroom/internal/core"
	"github.com/vovakirdan/birdroom/internal/log"
	"github.com/vovakirdan/birdroom/internal/proto"
)

func startTestServer(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()

	cfg := config.Default()
	hub := core.NewHub(cfg.RoomBuffer)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, &cfg, log.Nop())
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return ts, hub
}

func dialRoom(ctx context.Context, t *testing.T, ts *httptest.Server, room, user string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/19/ws/room/" + room + "/user/" + user
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err, "dial %s", user)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func waitSubscribers(t *testing.T, hub *core.Hub, room core.RoomID, want int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return hub.Room(room).Subscribers() == want
	}, 2*time.Second, 10*time.Millisecond, "room %d should have %d subscribers", room, want)
}

func sendText(ctx context.Context, t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"message": text}))
}

func readOutbound(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.Outbound {
	t.Helper()

	var out proto.Outbound
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	return out
}

func httpGet(t *testing.T, ts *httptest.Server, path string) (int, string) {
	t.Helper()

	resp, err := ts.Client().Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	status, body := httpGet(t, ts, "/health")
	assert.Equal(t, stdhttp.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestRoomBroadcastReachesEveryMember(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialRoom(ctx, t, ts, "7", "alice")
	bob := dialRoom(ctx, t, ts, "7", "bob")
	waitSubscribers(t, hub, 7, 2)

	before := hub.Views().Load()
	sendText(ctx, t, alice, "hi")

	for _, conn := range []*websocket.Conn{alice, bob} {
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, websocket.MessageText, typ)
		assert.JSONEq(t, `{"user":"alice","message":"hi"}`, string(data))
	}

	assert.Equal(t, before+2, hub.Views().Load())

	status, body := httpGet(t, ts, "/19/views")
	assert.Equal(t, stdhttp.StatusOK, status)
	assert.Equal(t, "2", body)
}

func TestRoomsDoNotLeak(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialRoom(ctx, t, ts, "1", "alice")
	carol := dialRoom(ctx, t, ts, "2", "carol")
	waitSubscribers(t, hub, 1, 1)
	waitSubscribers(t, hub, 2, 1)

	sendText(ctx, t, alice, "room one")
	sendText(ctx, t, carol, "room two")

	assert.Equal(t, proto.Outbound{User: "alice", Message: "room one"}, readOutbound(ctx, t, alice))
	assert.Equal(t, proto.Outbound{User: "carol", Message: "room two"}, readOutbound(ctx, t, carol))
}

func TestRoomPreservesPublishOrder(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialRoom(ctx, t, ts, "3", "alice")
	bob := dialRoom(ctx, t, ts, "3", "bob")
	waitSubscribers(t, hub, 3, 2)

	texts := []string{"one", "two", "three", "four", "five"}
	for _, text := range texts {
		sendText(ctx, t, alice, text)
	}

	for _, text := range texts {
		assert.Equal(t, text, readOutbound(ctx, t, bob).Message)
	}
}

func TestRoomRejectsOversizedMessage(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialRoom(ctx, t, ts, "9", "alice")
	bob := dialRoom(ctx, t, ts, "9", "bob")
	waitSubscribers(t, hub, 9, 2)

	tooLong := strings.Repeat("x", 129)
	atLimit := strings.Repeat("y", 128)

	sendText(ctx, t, alice, tooLong)
	sendText(ctx, t, alice, atLimit)

	out := readOutbound(ctx, t, bob)
	assert.Equal(t, "alice", out.User)
	assert.Equal(t, atLimit, out.Message)
}

func TestRoomSkipsMalformedPayloads(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialRoom(ctx, t, ts, "4", "alice")
	waitSubscribers(t, hub, 4, 1)

	for _, raw := range []string{`not json`, `{"text":"wrong field"}`, `{"message":42}`, `[]`} {
		require.NoError(t, alice.Write(ctx, websocket.MessageText, []byte(raw)))
	}
	require.NoError(t, alice.Write(ctx, websocket.MessageBinary, []byte(`{"message":"binary"}`)))
	sendText(ctx, t, alice, "still here")

	out := readOutbound(ctx, t, alice)
	assert.Equal(t, "still here", out.Message)
	assert.Equal(t, 1, hub.Room(4).Subscribers())
}

func TestRoomLateJoinerMissesEarlierMessages(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialRoom(ctx, t, ts, "5", "alice")
	waitSubscribers(t, hub, 5, 1)

	sendText(ctx, t, alice, "early")
	assert.Equal(t, "early", readOutbound(ctx, t, alice).Message)

	bob := dialRoom(ctx, t, ts, "5", "bob")
	waitSubscribers(t, hub, 5, 2)
	sendText(ctx, t, alice, "late")

	assert.Equal(t, "late", readOutbound(ctx, t, bob).Message)
}

func TestRoomReleasesSubscriptionOnClientClose(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialRoom(ctx, t, ts, "6", "alice")
	bob := dialRoom(ctx, t, ts, "6", "bob")
	waitSubscribers(t, hub, 6, 2)

	_ = alice.Close(websocket.StatusNormalClosure, "bye")
	waitSubscribers(t, hub, 6, 1)

	bob.CloseNow()
	waitSubscribers(t, hub, 6, 0)
}

func TestRoomUserLabelIsUnescaped(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialRoom(ctx, t, ts, "20", url.PathEscape("ann marie/x"))
	waitSubscribers(t, hub, 20, 1)

	sendText(ctx, t, conn, "hello")
	assert.Equal(t, proto.Outbound{User: "ann marie/x", Message: "hello"}, readOutbound(ctx, t, conn))
}

func TestRoomRejectsNonIntegerRoomID(t *testing.T) {
	ts, _ := startTestServer(t)

	status, body := httpGet(t, ts, "/19/ws/room/lobby/user/alice")
	assert.Equal(t, stdhttp.StatusBadRequest, status)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "invalid room id", resp.Error)
}

func TestResetZeroesViews(t *testing.T) {
	ts, hub := startTestServer(t)

	hub.Views().Inc()
	hub.Views().Inc()
	hub.Views().Inc()

	resp, err := ts.Client().Post(ts.URL+"/19/reset", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	_, body := httpGet(t, ts, "/19/views")
	assert.Equal(t, "0", body)
}

func TestRoomsStats(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialRoom(ctx, t, ts, "12", "alice")
	dialRoom(ctx, t, ts, "12", "bob")
	dialRoom(ctx, t, ts, "3", "carol")
	waitSubscribers(t, hub, 12, 2)
	waitSubscribers(t, hub, 3, 1)

	status, body := httpGet(t, ts, "/19/rooms")
	require.Equal(t, stdhttp.StatusOK, status)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, []RoomStats{{ID: 3, Subscribers: 1}, {ID: 12, Subscribers: 2}}, resp.Rooms)
}

func TestServerShutdownEndsSessions(t *testing.T) {
	cfg := config.Default()
	hub := core.NewHub(cfg.RoomBuffer)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := httptest.NewServer(NewRouter(hub, &cfg, log.Nop()))
	defer ts.Close()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()

	conn := dialRoom(dialCtx, t, ts, "8", "alice")
	waitSubscribers(t, hub, 8, 1)

	cancel()

	_, _, err := conn.Read(dialCtx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
	waitSubscribers(t, hub, 8, 0)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/liveview/internal/adapters/directory"
	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/app/orch"
	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreams struct {
	mu       sync.Mutex
	overview app.Overview
	started  chan []domain.Device
	retried  chan domain.DeviceID
	stopped  int
	active   domain.DeviceID
	muted    *bool
	talking  map[domain.DeviceID]bool
	canTalk  bool
	changes  chan struct{}
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{
		started: make(chan []domain.Device, 1),
		retried: make(chan domain.DeviceID, 1),
		talking: make(map[domain.DeviceID]bool),
		changes: make(chan struct{}, 1),
	}
}

func (f *fakeStreams) StartAllStreams(_ context.Context, devices []domain.Device) {
	f.started <- devices
}

func (f *fakeStreams) StopAllStreams(context.Context) {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}

func (f *fakeStreams) RetryStream(_ context.Context, id domain.DeviceID) error {
	f.retried <- id
	return nil
}

func (f *fakeStreams) SetActiveDevice(id domain.DeviceID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := findStream(f.overview, id); !ok {
		return orch.ErrUnknownDevice
	}
	f.active = id
	return nil
}

func (f *fakeStreams) SetMuted(muted bool) {
	f.mu.Lock()
	f.muted = &muted
	f.mu.Unlock()
}

func (f *fakeStreams) StartTalking(id domain.DeviceID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.canTalk {
		return false
	}
	f.talking[id] = true
	return true
}

func (f *fakeStreams) StopTalking(id domain.DeviceID) {
	f.mu.Lock()
	f.talking[id] = false
	f.mu.Unlock()
}

func (f *fakeStreams) Overview() app.Overview {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overview
}

func (f *fakeStreams) Subscribe() (<-chan struct{}, func()) { return f.changes, func() {} }

func (f *fakeStreams) setOverview(ov app.Overview) {
	f.mu.Lock()
	f.overview = ov
	f.mu.Unlock()
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

var testDevices = []domain.Device{
	{ID: 12345, Name: "Front door", Kind: domain.DeviceKindDoorbell},
	{ID: 2, Name: "Garage", Kind: domain.DeviceKindCamera},
}

func setup(t *testing.T) (*gin.Engine, *fakeStreams) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	streams := newFakeStreams()
	dir := directory.NewStatic(core.Credentials{BearerToken: "tok"}, testDevices)
	r := SetupRouter(context.Background(), Options{Mode: "test", StartLimit: 100}, streams, dir)
	return r, streams
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := setup(t)
	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestListStreams(t *testing.T) {
	r, streams := setup(t)
	active := domain.DeviceID(12345)
	streams.setOverview(app.Overview{
		Streams:      []app.StreamStatus{{DeviceID: 12345, State: core.StateConnected, HasVideo: true}},
		ActiveDevice: &active,
	})

	w := do(r, http.MethodGet, "/api/streams", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got app.Overview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Streams, 1)
	assert.Equal(t, core.StateConnected, got.Streams[0].State)
	require.NotNil(t, got.ActiveDevice)
	assert.Equal(t, active, *got.ActiveDevice)
}

func TestStartStreams(t *testing.T) {
	t.Run("all devices", func(t *testing.T) {
		r, streams := setup(t)
		w := do(r, http.MethodPost, "/api/streams/start", "")
		assert.Equal(t, http.StatusAccepted, w.Code)
		select {
		case got := <-streams.started:
			assert.Equal(t, testDevices, got)
		case <-time.After(time.Second):
			t.Fatal("batch not started")
		}
	})

	t.Run("subset", func(t *testing.T) {
		r, streams := setup(t)
		w := do(r, http.MethodPost, "/api/streams/start", `{"device_ids":[2]}`)
		assert.Equal(t, http.StatusAccepted, w.Code)
		select {
		case got := <-streams.started:
			require.Len(t, got, 1)
			assert.Equal(t, domain.DeviceID(2), got[0].ID)
		case <-time.After(time.Second):
			t.Fatal("batch not started")
		}
	})

	t.Run("unknown device", func(t *testing.T) {
		r, streams := setup(t)
		w := do(r, http.MethodPost, "/api/streams/start", `{"device_ids":[2,99]}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "99")
		assert.Empty(t, streams.started)
	})

	t.Run("bad body", func(t *testing.T) {
		r, _ := setup(t)
		w := do(r, http.MethodPost, "/api/streams/start", `{"device_ids":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStartStreams_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	streams := newFakeStreams()
	streams.setOverview(app.Overview{Streams: []app.StreamStatus{{DeviceID: 1, State: core.StateFailed}}})
	dir := directory.NewStatic(core.Credentials{}, testDevices)
	r := SetupRouter(context.Background(), Options{StartLimit: 1, StartWindow: time.Hour}, streams, dir)

	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/api/streams/start", "").Code)
	<-streams.started
	w := do(r, http.MethodPost, "/api/streams/start", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// retry has its own budget
	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/api/streams/1/retry", "").Code)
	<-streams.retried
}

func TestStopStreams(t *testing.T) {
	r, streams := setup(t)
	w := do(r, http.MethodPost, "/api/streams/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, streams.stopped)
}

func TestRetryStream(t *testing.T) {
	r, streams := setup(t)
	streams.setOverview(app.Overview{Streams: []app.StreamStatus{
		{DeviceID: 1, State: core.StateFailed},
		{DeviceID: 2, State: core.StateNegotiating},
	}})

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/streams/abc/retry", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/streams/7/retry", "").Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/streams/2/retry", "").Code)

	w := do(r, http.MethodPost, "/api/streams/1/retry", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	select {
	case id := <-streams.retried:
		assert.Equal(t, domain.DeviceID(1), id)
	case <-time.After(time.Second):
		t.Fatal("retry not issued")
	}
}

func TestSetActive(t *testing.T) {
	r, streams := setup(t)
	streams.setOverview(app.Overview{Streams: []app.StreamStatus{{DeviceID: 1}, {DeviceID: 2}}})

	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/active", `{"device_id":2}`).Code)
	assert.Equal(t, domain.DeviceID(2), streams.active)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/api/active", `{"device_id":9}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/active", `{}`).Code)
}

func TestSetMute(t *testing.T) {
	r, streams := setup(t)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/mute", `{}`).Code)
	assert.Nil(t, streams.muted)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/mute", `{"muted":false}`).Code)
	require.NotNil(t, streams.muted)
	assert.False(t, *streams.muted)
}

func TestTalk(t *testing.T) {
	r, streams := setup(t)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/streams/1/talk/start", "").Code)

	streams.canTalk = true
	w := do(r, http.MethodPost, "/api/streams/1/talk/start", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"device_id":1,"talking":true}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/streams/1/talk/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, streams.talking[1])
}

func TestStatusFeed(t *testing.T) {
	r, streams := setup(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/status"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	read := func() statusMessage {
		t.Helper()
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		var ov app.Overview
		if len(msg.Data) > 0 {
			require.NoError(t, json.Unmarshal(msg.Data, &ov))
		}
		return statusMessage{Type: msg.Type, Data: ov}
	}

	first := read()
	assert.Equal(t, "overview", first.Type)

	streams.setOverview(app.Overview{Streams: []app.StreamStatus{{DeviceID: 5, State: core.StateConnecting}}})
	next := read()
	require.Equal(t, "overview", next.Type)
	ov := next.Data.(app.Overview)
	require.Len(t, ov.Streams, 1)
	assert.Equal(t, core.StateConnecting, ov.Streams[0].State)

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", read().Type)
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	a := limitKey{client: "10.0.0.1", route: "/api/streams/start"}
	b := limitKey{client: "10.0.0.1", route: "/api/streams/:id/retry"}

	_, ok := rl.Take(a)
	assert.True(t, ok)
	now = now.Add(20 * time.Second)
	_, ok = rl.Take(a)
	assert.True(t, ok)

	wait, ok := rl.Take(a)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, wait)

	_, ok = rl.Take(b)
	assert.True(t, ok)

	now = now.Add(41 * time.Second)
	_, ok = rl.Take(a)
	assert.True(t, ok)
	wait, ok = rl.Take(a)
	assert.False(t, ok)
	assert.Equal(t, 19*time.Second, wait)
}

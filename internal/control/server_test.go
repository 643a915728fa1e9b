package control

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ledpanel/internal/anim"
	"github.com/coreman2200/ledpanel/internal/diagnostics"
	"github.com/coreman2200/ledpanel/internal/message"
	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/status"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

type sink[T any] struct {
	mu      sync.Mutex
	cur     T
	updates int
	updErr  error
	err     error
}

func (s *sink[T]) Update(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updErr != nil {
		return s.updErr
	}
	s.cur = v
	s.updates++
	return nil
}

func (s *sink[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *sink[T]) Stats() anim.Stats { return anim.Stats{} }

func (s *sink[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *sink[T]) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *sink[T]) reject(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updErr = err
}

type rig struct {
	srv  *Server
	http *httptest.Server
	st   *sink[status.State]
	msg  *sink[message.State]
}

func newRig(t *testing.T) *rig {
	t.Helper()
	nop := zerolog.Nop()
	r := &rig{
		st:  &sink[status.State]{cur: status.Off{}},
		msg: &sink[message.State]{cur: message.Off{}},
	}
	r.srv = New(Options{Status: r.st, Message: r.msg, Driver: "sim", DiagEvery: 5 * time.Millisecond, Logger: &nop})
	r.http = httptest.NewServer(r.srv.Handler())
	t.Cleanup(r.http.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.srv.Run(ctx)
	return r
}

func (r *rig) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(r.http.URL, "http")+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
}

func TestPostStatus(t *testing.T) {
	r := newRig(t)

	resp, err := http.Post(r.http.URL+"/status", "application/json", strings.NewReader(`{"mode":"on","color":"#ff0000"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, status.On{Color: rgb.Red}, r.st.Current())

	resp, err = http.Post(r.http.URL+"/status", "application/json", strings.NewReader(`{"mode":"strobe"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	r.st.reject(anim.ErrPoisoned)
	resp, err = http.Post(r.http.URL+"/status", "application/json", strings.NewReader(`{"mode":"off"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPostMessageJSON(t *testing.T) {
	r := newRig(t)
	resp, err := http.Post(r.http.URL+"/message", "application/json",
		strings.NewReader(`{"mode":"scroll","text":"hi","color":"#00ff00","rate":2}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, message.Scroll{Text: "hi", Color: rgb.Green, Rate: 2}, r.msg.Current())
}

func TestMessageForm(t *testing.T) {
	r := newRig(t)
	client := noRedirect()

	resp, err := client.PostForm(r.http.URL+"/message/form", url.Values{
		"mode": {"2"}, "message": {"hello"}, "r": {"255"}, "g": {"0"}, "b": {"16"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/message", resp.Header.Get("Location"))
	assert.Equal(t, message.Scroll{Text: "hello", Color: rgb.New(255, 0, 16), Rate: 1}, r.msg.Current())

	resp, err = client.PostForm(r.http.URL+"/message/form", url.Values{"mode": {"1"}, "message": {"ok"}, "g": {"9"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, message.Static{Text: "ok", Color: rgb.New(0, 9, 0)}, r.msg.Current())

	resp, err = client.PostForm(r.http.URL+"/message/form", url.Values{"mode": {"0"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, message.Off{}, r.msg.Current())

	for _, bad := range []url.Values{
		{"mode": {"2"}, "r": {"300"}},
		{"mode": {"2"}, "delay": {"-1"}},
		{"mode": {"7"}},
	} {
		resp, err = client.PostForm(r.http.URL+"/message/form", bad)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad.Encode())
	}
}

func TestMessagePageShowsCurrent(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.msg.Update(message.Static{Text: "sale<now>", Color: rgb.Red}))

	resp, err := http.Get(r.http.URL + "/message")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sale&lt;now&gt;")
	assert.Contains(t, string(body), `action="/message/form"`)
}

func TestHealth(t *testing.T) {
	r := newRig(t)
	resp, err := http.Get(r.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var h struct {
		Driver string `json:"driver"`
		Status struct {
			Current status.Spec `json:"current"`
		} `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "sim", h.Driver)
	assert.Equal(t, "off", h.Status.Current.Mode)
}

func TestCORSPreflight(t *testing.T) {
	r := newRig(t)
	req, err := http.NewRequest(http.MethodOptions, r.http.URL+"/status", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestControlSocket(t *testing.T) {
	r := newRig(t)
	c := r.dial(t, "/control")

	send := func(msg string) controlAck {
		require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(msg)))
		var ack controlAck
		require.NoError(t, c.ReadJSON(&ack))
		return ack
	}

	ack := send(`{"status":{"mode":"flash","color":"#0000ff","period_ms":400},"message":{"mode":"static","text":"A","color":"#ffffff"}}`)
	assert.True(t, ack.OK, ack.Error)
	assert.Equal(t, status.Flash{Color: rgb.Blue, Period: 400 * time.Millisecond}, r.st.Current())
	assert.Equal(t, message.Static{Text: "A", Color: rgb.White}, r.msg.Current())

	ack = send(`{"status":{"mode":"on","color":"nope"}}`)
	assert.False(t, ack.OK)
	assert.Contains(t, ack.Error, "invalid spec")

	ack = send(`{"runTest":"rgb_channels"}`)
	assert.True(t, ack.OK, ack.Error)
	seq, ok := r.st.Current().(status.Sequence)
	require.True(t, ok)
	assert.Len(t, seq.Steps, 3)

	ack = send(`{"runTest":"plane_z"}`)
	assert.False(t, ack.OK)

	ack = send(`not json`)
	assert.False(t, ack.OK)
}

func TestFramesAreBroadcast(t *testing.T) {
	r := newRig(t)
	c := r.dial(t, "/frames")
	require.Eventually(t, func() bool {
		n, _ := r.srv.Subscribers()
		return n == 1
	}, time.Second, time.Millisecond)

	rec := ws2812.NewRecorder(1)
	drv := r.srv.Tap("message", rec)
	require.NoError(t, drv.Write([]uint32{1, 2, 3}))
	assert.Equal(t, 1, rec.Count())

	var f frame
	require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, c.ReadJSON(&f))
	assert.Equal(t, "message", f.Chain)
	assert.Equal(t, []uint32{1, 2, 3}, f.Pixels)
	assert.Equal(t, uint64(1), f.FrameID)
}

func TestDiagnosticsArePushed(t *testing.T) {
	r := newRig(t)
	c := r.dial(t, "/diag")
	require.Eventually(t, func() bool {
		_, n := r.srv.Subscribers()
		return n == 1
	}, time.Second, time.Millisecond)

	r.msg.fail(anim.ErrPanicked)

	var d diagnostics.Diagnostic
	require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, c.ReadJSON(&d))
	assert.Equal(t, "ENGINE.PANIC", d.Code)
	assert.Equal(t, diagnostics.Err, d.Severity)
}

func TestRunTest(t *testing.T) {
	st := &sink[status.State]{}
	msg := &sink[message.State]{}
	require.NoError(t, RunTest(OrientationTest, st, msg))
	_, ok := msg.Current().(message.Static)
	assert.True(t, ok)
	require.NoError(t, RunTest(SweepTest, st, msg))
	assert.Equal(t, message.Scroll{Text: "#", Color: rgb.White, Rate: 1}, msg.Current())
	assert.ErrorIs(t, RunTest("nope", st, msg), ErrUnknownTest)
}

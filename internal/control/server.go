// Package control is the HTTP and websocket surface for producers: it
// accepts status and message intents, previews transmitted frames and
// streams diagnostics.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledpanel/internal/anim"
	"github.com/coreman2200/ledpanel/internal/diagnostics"
	"github.com/coreman2200/ledpanel/internal/message"
	"github.com/coreman2200/ledpanel/internal/status"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

type StatusSink interface {
	Update(status.State) error
	Current() status.State
	Stats() anim.Stats
	Err() error
}

type MessageSink interface {
	Update(message.State) error
	Current() message.State
	Stats() anim.Stats
	Err() error
}

type Options struct {
	Status  StatusSink
	Message MessageSink
	// Driver is reported by /health.
	Driver string
	// DiagEvery is how often engine counters are checked. Zero means one
	// second.
	DiagEvery time.Duration
	// Preview collects tapped frames. Nil gets a fresh one.
	Preview *Preview
	Logger  *zerolog.Logger
}

const writeWait = 200 * time.Millisecond

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type frame struct {
	T       int64    `json:"t"`
	FrameID uint64   `json:"frame_id"`
	Chain   string   `json:"chain"`
	Pixels  []uint32 `json:"pixels"`
}

type Server struct {
	status  StatusSink
	message MessageSink
	monitor *diagnostics.Monitor
	log     zerolog.Logger
	opts    Options
	start   time.Time
	preview *Preview

	mu          sync.RWMutex
	frameID     uint64
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	// wmu serializes writes; a websocket allows one writer at a time.
	wmu sync.Mutex
}

func New(o Options) *Server {
	if o.DiagEvery <= 0 {
		o.DiagEvery = time.Second
	}
	if o.Preview == nil {
		o.Preview = NewPreview()
	}
	l := log.Logger
	if o.Logger != nil {
		l = *o.Logger
	}
	s := &Server{
		status:      o.Status,
		message:     o.Message,
		monitor:     diagnostics.NewMonitor(),
		log:         l.With().Str("component", "control").Logger(),
		opts:        o,
		start:       time.Now(),
		preview:     o.Preview,
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
	if o.Status != nil {
		s.monitor.Add("status", o.Status)
	}
	if o.Message != nil {
		s.monitor.Add("message", o.Message)
	}
	return s
}

// Preview fans frames from tapped drivers into the /frames broadcaster.
type Preview struct {
	frames chan frame
}

func NewPreview() *Preview {
	return &Preview{frames: make(chan frame, 16)}
}

// Tap wraps drv so every frame it accepts is also previewed on /frames.
// Frames are dropped from the preview, never from the chain, when the
// broadcaster falls behind.
func (p *Preview) Tap(chain string, drv ws2812.Driver) ws2812.Driver {
	return &tap{Driver: drv, chain: chain, out: p.frames}
}

func (s *Server) Tap(chain string, drv ws2812.Driver) ws2812.Driver {
	return s.preview.Tap(chain, drv)
}

type tap struct {
	ws2812.Driver
	chain string
	out   chan<- frame
}

func (t *tap) Write(words []uint32) error {
	if err := t.Driver.Write(words); err != nil {
		return err
	}
	f := frame{Chain: t.chain, Pixels: append([]uint32(nil), words...)}
	select {
	case t.out <- f:
	default:
	}
	return nil
}

// Run broadcasts tapped frames and periodic diagnostics until ctx ends.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.DiagEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.preview.frames:
			s.broadcastFrame(f)
		case <-ticker.C:
			for _, d := range s.monitor.Check() {
				s.pushDiag(d)
			}
		}
	}
}

// Handler returns every route wrapped for cross-origin use.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("POST /status", s.HandleStatus)
	mux.HandleFunc("GET /message", s.HandleMessagePage)
	mux.HandleFunc("POST /message", s.HandleMessage)
	mux.HandleFunc("POST /message/form", s.HandleMessageForm)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/frames", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	return withCORS(mux)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.start).Seconds(),
		"driver":   s.opts.Driver,
	}
	s.mu.RUnlock()
	if s.status != nil {
		resp["status"] = chainHealth(status.SpecOf(s.status.Current()), s.status.Stats(), s.status.Err())
	}
	if s.message != nil {
		resp["message"] = chainHealth(message.SpecOf(s.message.Current()), s.message.Stats(), s.message.Err())
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func chainHealth(spec any, st anim.Stats, err error) map[string]any {
	h := map[string]any{"current": spec, "stats": st}
	if err != nil {
		h["error"] = err.Error()
	}
	return h
}

func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var spec status.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.reply(w, s.applyStatus(spec))
}

func (s *Server) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var spec message.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.reply(w, s.applyMessage(spec))
}

func (s *Server) applyStatus(spec status.Spec) error {
	if s.status == nil {
		return anim.ErrNotInitialized
	}
	st, err := spec.State()
	if err != nil {
		return err
	}
	s.log.Debug().Stringer("state", st).Msg("status update")
	return s.status.Update(st)
}

func (s *Server) applyMessage(spec message.Spec) error {
	if s.message == nil {
		return anim.ErrNotInitialized
	}
	st, err := spec.State()
	if err != nil {
		return err
	}
	s.log.Debug().Str("mode", spec.Mode).Str("text", spec.Text).Msg("message update")
	return s.message.Update(st)
}

func (s *Server) reply(w http.ResponseWriter, err error) {
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, status.ErrInvalidSpec), errors.Is(err, message.ErrInvalidSpec):
		return http.StatusBadRequest
	case errors.Is(err, anim.ErrPoisoned), errors.Is(err, anim.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// controlMsg is one request on the control socket. Fields left out are
// not touched.
type controlMsg struct {
	Status  *status.Spec  `json:"status,omitempty"`
	Message *message.Spec `json:"message,omitempty"`
	RunTest string        `json:"runTest,omitempty"`
}

type controlAck struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ack := controlAck{OK: true}
		if err := s.applyControl(data); err != nil {
			ack = controlAck{Error: err.Error()}
		}
		b, _ := json.Marshal(ack)
		s.write(conn, b)
	}
}

func (s *Server) applyControl(data []byte) error {
	var msg controlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	var errs []error
	if msg.Status != nil {
		errs = append(errs, s.applyStatus(*msg.Status))
	}
	if msg.Message != nil {
		errs = append(errs, s.applyMessage(*msg.Message))
	}
	if msg.RunTest != "" {
		errs = append(errs, s.runTest(Test(msg.RunTest)))
	}
	return errors.Join(errs...)
}

func (s *Server) runTest(t Test) error {
	if s.status == nil || s.message == nil {
		return anim.ErrNotInitialized
	}
	if err := RunTest(t, s.status, s.message); err != nil {
		s.pushDiag(diagnostics.Diagnostic{
			Severity: diagnostics.Warn, Code: "TEST.UNKNOWN", Summary: "Test failed to start",
			Detail: err.Error(), Evidence: map[string]any{"name": string(t)},
		})
		return err
	}
	s.pushDiag(diagnostics.Diagnostic{Severity: diagnostics.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: string(t)})
	return nil
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	s.subscribe(w, r, s.clients)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	s.subscribe(w, r, s.diagClients)
}

// subscribe registers a listen-only socket in set until the peer goes away.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	set[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(set, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Subscribers is the number of frame and diagnostic listeners.
func (s *Server) Subscribers() (frames, diags int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients), len(s.diagClients)
}

func (s *Server) broadcastFrame(f frame) {
	s.mu.Lock()
	s.frameID++
	f.FrameID = s.frameID
	s.mu.Unlock()
	f.T = time.Now().UnixNano()
	b, _ := json.Marshal(f)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		if err := s.write(c, b); err != nil {
			s.log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *Server) pushDiag(d diagnostics.Diagnostic) {
	ev := s.log.Info()
	if d.Severity != diagnostics.Info {
		ev = s.log.Warn()
	}
	ev.Str("code", d.Code).Str("detail", d.Detail).Msg(d.Summary)
	b, _ := json.Marshal(d)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.diagClients {
		_ = s.write(c, b)
	}
}

func (s *Server) write(c *websocket.Conn, b []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteMessage(websocket.TextMessage, b)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

package inspector

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/weave"
	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/dom"
)

const (
	defaultSendBuffer = 64
	writeTimeout      = 10 * time.Second
)

// Frame is published to websocket clients after every flush that touched
// the host.
type Frame struct {
	Seq  uint64 `json:"seq"`
	Ops  []Op   `json:"ops"`
	HTML string `json:"html"`
}

// Message is sent by websocket clients to dispatch an event. Target is a
// recorder node ID or "#id".
type Message struct {
	Target string         `json:"target"`
	Event  string         `json:"event"`
	Data   map[string]any `json:"data,omitempty"`
}

// Server exposes a mounted app over HTTP: a snapshot page, the current HTML,
// a websocket op stream that also accepts events, and Prometheus metrics.
type Server struct {
	app      *weave.App
	rec      *Recorder
	history  *History
	upgrader websocket.Upgrader
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	seq     uint64
	html    string
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithHistorySize sets how many frames are kept for replay.
func WithHistorySize(n int) Option {
	return func(s *Server) {
		s.history = NewHistory(n)
	}
}

// WithCheckOrigin sets the websocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// New creates a server for app, whose host must be rec. Call it on the loop
// goroutine after Mount; the mount operations become the first frame.
func New(app *weave.App, rec *Recorder, opts ...Option) *Server {
	s := &Server{
		app:     app,
		rec:     rec,
		history: NewHistory(0),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	app.OnFlush(func(jobs, callbacks int) { s.publish() })
	s.publish()
	return s
}

// publish turns the recorded operations into a frame. It runs on the loop
// goroutine.
func (s *Server) publish() {
	ops := s.rec.Drain()
	if len(ops) == 0 {
		return
	}
	var markup string
	if target := s.app.Target(); target != nil {
		markup = dom.InnerHTML(target)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	data, err := json.Marshal(Frame{Seq: s.seq, Ops: ops, HTML: markup})
	if err != nil {
		s.logger.Error("encode frame failed", "seq", s.seq, "error", err)
		return
	}
	s.html = markup
	s.history.Add(s.seq, data)
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Warn("dropping slow inspector client")
			s.dropLocked(c)
		}
	}
	s.logger.Debug("frame published", "seq", s.seq, "ops", len(ops), "clients", len(s.clients))
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/ws", s.handleWebSocket)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves Handler on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.Close()
	}()

	s.logger.Info("inspector listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return werrors.New("W141").Wrap(err)
	}
	return nil
}

// Close disconnects every websocket client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.dropLocked(c)
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Snapshot returns the HTML of the mount target as of the last frame.
func (s *Server) Snapshot() (seq uint64, markup string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq, s.html
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>weave inspector</title></head>
<body>
<div id="weave-root">{{.HTML}}</div>
<script>
(function () {
  var root = document.getElementById("weave-root");
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws?after={{.Seq}}");
  ws.onmessage = function (e) { root.innerHTML = JSON.parse(e.data).html; };
  ["click", "input", "change"].forEach(function (type) {
    root.addEventListener(type, function (e) {
      var el = e.target.closest("[id]");
      if (!el || el === root) return;
      ws.send(JSON.stringify({target: "#" + el.id, event: type, data: {value: e.target.value}}));
    });
  });
})();
</script>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	seq, markup := s.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Seq  uint64
		HTML template.HTML
	}{seq, template.HTML(markup)})
	if err != nil {
		s.logger.Error("render index failed", "error", err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	seq, markup := s.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Weave-Seq", strconv.FormatUint(seq, 10))
	_, _ = io.WriteString(w, markup)
}

// handleWebSocket streams frames to the client and dispatches the events it
// sends. With ?after=N, retained frames newer than N are replayed first.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var after uint64
	replay := false
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid after", http.StatusBadRequest)
			return
		}
		after, replay = n, true
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	// Registering under the lock keeps replayed and live frames contiguous.
	s.mu.Lock()
	var frames [][]byte
	if replay {
		frames = s.history.Since(after)
	}
	c := &client{conn: conn, send: make(chan []byte, len(frames)+defaultSendBuffer)}
	for _, f := range frames {
		c.send <- f
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("inspector client connected", "remote", r.RemoteAddr, "replayed", len(frames))

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() {
		s.mu.Lock()
		s.dropLocked(c)
		s.mu.Unlock()
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("inspector read failed", "error", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Target == "" || msg.Event == "" {
			s.logger.Warn("invalid inspector message", "message", string(data))
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Warn("inspector write failed", "error", err)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// dispatch hands msg to the loop goroutine.
func (s *Server) dispatch(msg Message) {
	ok := s.app.Post(func() {
		node, found := s.rec.Lookup(msg.Target)
		if !found {
			s.logger.Warn("event target not found", "target", msg.Target, "event", msg.Event)
			return
		}
		if !s.rec.Document().Dispatch(node, msg.Event, msg.Data) {
			s.logger.Debug("event not handled", "target", msg.Target, "event", msg.Event)
		}
	})
	if !ok {
		s.logger.Warn("event dropped, loop unavailable", "target", msg.Target, "event", msg.Event)
	}
}

// dropLocked unregisters c. The caller holds s.mu.
func (s *Server) dropLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}

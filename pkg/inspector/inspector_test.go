package inspector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/telemetry"
)

func counter() *weave.Component {
	return &weave.Component{
		Name:     "Counter",
		Template: `<div><button id="inc" @click="inc">+</button><span>{{ n }}</span></div>`,
		Setup: func(_ *weave.Object, ctx *weave.SetupContext) map[string]any {
			n := ctx.System().Ref(0)
			return map[string]any{
				"n":   n,
				"inc": func() { n.Set(n.Peek().(int) + 1) },
			}
		},
	}
}

func TestRecorderOps(t *testing.T) {
	doc := dom.NewDocument()
	rec := NewRecorder(doc)
	app, err := weave.CreateApp(counter(), weave.WithHost(rec))
	require.NoError(t, err)
	require.NoError(t, app.Mount(doc.Body()))

	ops := rec.Drain()
	require.NotEmpty(t, ops)
	kinds := map[OpKind]int{}
	for _, op := range ops {
		kinds[op.Kind]++
	}
	assert.Equal(t, 3, kinds[OpCreateElement])
	assert.Equal(t, 1, kinds[OpSetListener])
	assert.Positive(t, kinds[OpInsert])
	assert.Empty(t, rec.Drain())

	last := ops[len(ops)-1]
	assert.Equal(t, OpInsert, last.Kind)
	assert.Equal(t, rec.ID(doc.Body()), last.Parent)

	btn, ok := rec.Lookup("#inc")
	require.True(t, ok)
	doc.Dispatch(btn, "click", nil)
	app.Flush()

	ops = rec.Drain()
	require.Len(t, ops, 1)
	assert.Equal(t, OpSetText, ops[0].Kind)
	assert.Equal(t, "1", ops[0].Value)

	root, ok := rec.Lookup(last.Node)
	require.True(t, ok)
	app.Unmount()
	_, ok = rec.Lookup(last.Node)
	assert.False(t, ok, "removed nodes are forgotten")
	assert.NotNil(t, root)
	_, ok = rec.Lookup("#missing")
	assert.False(t, ok)
	assert.Positive(t, rec.Total())
}

func TestOpKindJSON(t *testing.T) {
	data, err := json.Marshal(Op{Kind: OpSetAttr, Node: "n1", Name: "class", Value: "a"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"SetAttr","node":"n1","name":"class","value":"a"}`, string(data))
	assert.Equal(t, "Unknown", OpKind(0xff).String())

	for k := OpCreateElement; k <= OpRemove; k++ {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var back OpKind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}

	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(`{"seq":2,"ops":[{"op":"Insert","node":"n2","parent":"n1"}],"html":"<p></p>"}`), &frame))
	assert.Equal(t, []Op{{Kind: OpInsert, Node: "n2", Parent: "n1"}}, frame.Ops)

	var op Op
	assert.Error(t, json.Unmarshal([]byte(`{"op":"Explode","node":"n1"}`), &op))
}

func TestHistory(t *testing.T) {
	h := NewHistory(3)
	assert.False(t, h.CanRecover(0))
	for seq := uint64(1); seq <= 5; seq++ {
		h.Add(seq, []byte{byte('0' + seq)})
	}
	assert.Equal(t, 3, h.Count())
	assert.Equal(t, uint64(3), h.MinSeq())
	assert.Equal(t, uint64(5), h.MaxSeq())

	assert.Equal(t, [][]byte{[]byte("4"), []byte("5")}, h.Since(3))
	assert.Len(t, h.Since(0), 3)
	assert.Empty(t, h.Since(5))

	assert.True(t, h.CanRecover(2))
	assert.False(t, h.CanRecover(1))
	assert.False(t, h.CanRecover(5))
}

type fixture struct {
	app    *weave.App
	srv    *Server
	http   *httptest.Server
	reg    *prometheus.Registry
	cancel context.CancelFunc
	done   chan error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	doc := dom.NewDocument()
	rec := NewRecorder(doc)
	app, err := weave.CreateApp(counter(),
		weave.WithHost(rec),
		weave.WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg))))
	require.NoError(t, err)
	require.NoError(t, app.Mount(doc.Body()))
	srv := New(app, rec, WithGatherer(reg))

	ctx, cancel := context.WithCancel(context.Background())
	f := &fixture{app: app, srv: srv, http: httptest.NewServer(srv.Handler()), reg: reg, cancel: cancel, done: make(chan error, 1)}
	go func() { f.done <- app.Run(ctx) }()
	t.Cleanup(func() {
		f.http.Close()
		f.srv.Close()
		f.cancel()
		<-f.done
	})
	return f
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestSnapshotRoutes(t *testing.T) {
	f := newFixture(t)
	want := `<div><button id="inc">+</button><span>0</span></div>`

	code, body := f.get(t, "/snapshot")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, want, body)

	code, body = f.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<title>weave inspector</title>")
	assert.Contains(t, body, want)

	code, _ = f.get(t, "/ws?after=x")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.get(t, "/missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebSocketStream(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "?after=0")

	first := readFrame(t, conn)
	assert.Equal(t, uint64(1), first.Seq)
	assert.NotEmpty(t, first.Ops)
	assert.Contains(t, first.HTML, "<span>0</span>")

	require.NoError(t, conn.WriteJSON(Message{Target: "#inc", Event: "click"}))
	next := readFrame(t, conn)
	assert.Equal(t, uint64(2), next.Seq)
	require.Len(t, next.Ops, 1)
	assert.Equal(t, OpSetText, next.Ops[0].Kind)
	assert.Contains(t, next.HTML, "<span>1</span>")

	// Unknown targets and malformed messages are ignored.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	require.NoError(t, conn.WriteJSON(Message{Target: "n999", Event: "click"}))
	require.NoError(t, conn.WriteJSON(Message{Target: "#inc", Event: "click"}))
	assert.Equal(t, uint64(3), readFrame(t, conn).Seq)

	seq, markup := f.srv.Snapshot()
	assert.Equal(t, uint64(3), seq)
	assert.Contains(t, markup, "<span>2</span>")
}

func TestLateClientWithoutReplay(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")
	assert.Eventually(t, func() bool { return f.srv.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Message{Target: "#inc", Event: "click"}))
	assert.Equal(t, uint64(2), readFrame(t, conn).Seq)

	f.srv.Close()
	assert.Equal(t, 0, f.srv.Clients())
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")
	require.NoError(t, conn.WriteJSON(Message{Target: "#inc", Event: "click"}))
	readFrame(t, conn)

	code, body := f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "weave_flushes_total 1")
	assert.Contains(t, body, `weave_updates_total{component="Counter"} 1`)
}

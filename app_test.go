package weave

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/telemetry"
)

// todoApp returns a list whose rows emit "remove" to their parent. log
// receives lifecycle events of both components.
func todoApp(log *[]string) (*Component, **Array) {
	record := func(s string) Hook {
		return func(inst *Instance) { *log = append(*log, inst.Name()+"."+s) }
	}
	row := &Component{
		Name:          "Row",
		Template:      `<li><span>{{ text }}</span><button @click="remove">x</button></li>`,
		Created:       record("created"),
		Mounted:       record("mounted"),
		BeforeUnmount: record("beforeUnmount"),
		Unmounted:     record("unmounted"),
		Setup: func(props *Object, ctx *SetupContext) map[string]any {
			return map[string]any{"remove": func() { _ = ctx.Emit("remove") }}
		},
	}
	var todos *Array
	list := &Component{
		Name:       "List",
		Template:   `<ul><Row v-for="t in todos" :key="t" :text="t" @remove="drop(t)"/></ul>`,
		Components: map[string]*Component{"Row": row},
		Created:    record("created"),
		Mounted:    record("mounted"),
		Unmounted:  record("unmounted"),
		Setup: func(props *Object, ctx *SetupContext) map[string]any {
			todos = ctx.System().Reactive(&[]any{"write", "test"}).(*Array)
			return map[string]any{
				"todos": todos,
				"drop":  func(t string) { todos.Splice(todos.Index(t), 1) },
			}
		},
	}
	return list, &todos
}

func TestCreateAppRunsCreationHooks(t *testing.T) {
	var log []string
	def, _ := todoApp(&log)
	app, err := CreateApp(def)
	require.NoError(t, err)

	assert.Equal(t, []string{"List.created"}, log)
	assert.False(t, app.Mounted())
	assert.Nil(t, app.Target())
	assert.NotNil(t, app.Document())
	assert.Equal(t, "List", app.Root().Name())
}

func TestMountErrors(t *testing.T) {
	var log []string
	def, _ := todoApp(&log)
	app, err := CreateApp(def)
	require.NoError(t, err)

	err = app.Mount(nil)
	assert.True(t, stderrors.Is(err, werrors.New("W100")))

	require.NoError(t, app.Mount(app.Document().Body()))
	err = app.Mount(app.Document().Body())
	assert.True(t, stderrors.Is(err, werrors.New("W104")))
}

func TestCreateAppTemplateError(t *testing.T) {
	_, err := CreateApp(&Component{Name: "Bad", Template: `<div><p v-for="x">{{ x }}</p></div>`})
	var werr *werrors.Error
	require.True(t, stderrors.As(err, &werr))
	assert.Equal(t, "W004", werr.Code)
}

func TestEndToEndLifecycle(t *testing.T) {
	var log []string
	def, todos := todoApp(&log)
	app, err := CreateApp(def)
	require.NoError(t, err)
	body := app.Document().Body()
	require.NoError(t, app.Mount(body))

	assert.Equal(t, []string{
		"List.created",
		"Row.created", "Row.mounted",
		"Row.created", "Row.mounted",
		"List.mounted",
	}, log)
	assert.Equal(t,
		`<ul><li><span>write</span><button>x</button></li><li><span>test</span><button>x</button></li></ul>`,
		dom.InnerHTML(body))

	// Several synchronous writes coalesce into one update.
	(*todos).Push("ship")
	(*todos).Push("rest")
	var seen string
	tick := app.NextTick(func() { seen = dom.InnerHTML(body) })
	assert.False(t, tick.Resolved())
	app.Flush()

	assert.True(t, tick.Resolved())
	assert.Contains(t, seen, "<span>rest</span>")
	assert.Equal(t, 4, len(app.Root().Children))
	assert.Equal(t, 1, app.Stats().Updates)

	// Clicking a row's button removes it through the emitted event.
	log = nil
	rows := app.Document().QueryTag("li")
	require.Len(t, rows, 4)
	button := rows[0].LastChild
	app.Document().Dispatch(button, "click", nil)
	app.Flush()
	assert.Equal(t, []string{"Row.beforeUnmount", "Row.unmounted"}, log)
	assert.Len(t, app.Document().QueryTag("li"), 3)
	assert.Nil(t, rows[0].Parent)

	log = nil
	ul := body.FirstChild
	app.Unmount()
	assert.Equal(t, []string{"Row.beforeUnmount", "Row.unmounted", "Row.beforeUnmount", "Row.unmounted", "Row.beforeUnmount", "Row.unmounted", "List.unmounted"}, log)
	assert.Nil(t, ul.Parent)
	assert.Empty(t, dom.InnerHTML(body))
	assert.False(t, app.Mounted())

	app.Unmount()
}

func TestRowRemovedAfterItsHooks(t *testing.T) {
	var attached []bool
	row := &Component{
		Name:     "Row",
		Template: `<li>{{ v }}</li>`,
		Unmounted: func(inst *Instance) {
			attached = append(attached, inst.Tree.El.(*html.Node).Parent != nil)
		},
	}
	var items *Array
	list := &Component{
		Template:   `<ul><Row v-for="v in items" :key="v" :v="v"/></ul>`,
		Components: map[string]*Component{"Row": row},
		Setup: func(_ *Object, ctx *SetupContext) map[string]any {
			items = ctx.System().Reactive(&[]any{1, 2}).(*Array)
			return map[string]any{"items": items}
		},
	}
	app, err := CreateApp(list)
	require.NoError(t, err)
	require.NoError(t, app.Mount(app.Document().Body()))

	items.Pop()
	app.Flush()
	assert.Equal(t, []bool{true}, attached)
	assert.Equal(t, "<ul><li>1</li></ul>", dom.InnerHTML(app.Document().Body()))
}

func TestNextTickOrdering(t *testing.T) {
	var count *Ref
	app, err := CreateApp(&Component{
		Template: `<p>{{ n }}</p>`,
		Setup: func(_ *Object, ctx *SetupContext) map[string]any {
			count = ctx.System().Ref(0)
			return map[string]any{"n": count}
		},
	})
	require.NoError(t, err)
	body := app.Document().Body()
	require.NoError(t, app.Mount(body))

	var order []string
	count.Set(1)
	app.NextTick(func() { order = append(order, "a:"+dom.InnerHTML(body)) }).
		Then(func() { order = append(order, "then") })
	count.Set(2)
	app.NextTick(func() { order = append(order, "b:"+dom.InnerHTML(body)) })
	app.Flush()

	assert.Equal(t, []string{"a:<p>2</p>", "b:<p>2</p>", "then"}, order)
}

func TestRunWithPost(t *testing.T) {
	var count *Ref
	app, err := CreateApp(&Component{
		Template: `<p>{{ n }}</p>`,
		Setup: func(_ *Object, ctx *SetupContext) map[string]any {
			count = ctx.System().Ref(0)
			return map[string]any{"n": count}
		},
	})
	require.NoError(t, err)
	body := app.Document().Body()
	require.NoError(t, app.Mount(body))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	got := make(chan string, 1)
	require.True(t, app.Post(func() {
		count.Set(7)
		app.NextTick(func() { got <- dom.InnerHTML(body) })
	}))

	select {
	case s := <-got:
		assert.Equal(t, "<p>7</p>", s)
	case <-time.After(2 * time.Second):
		t.Fatal("update not committed")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAppMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	var count *Ref
	app, err := CreateApp(&Component{
		Name:     "Counter",
		Template: `<p>{{ n }}</p>`,
		Setup: func(_ *Object, ctx *SetupContext) map[string]any {
			count = ctx.System().Ref(0)
			return map[string]any{"n": count}
		},
	},
		WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg))),
		WithTracer(telemetry.NewTracer()),
	)
	require.NoError(t, err)
	require.NoError(t, app.Mount(app.Document().Body()))

	flushes := 0
	app.OnFlush(func(jobs, callbacks int) { flushes++ })
	count.Set(1)
	app.Flush()

	assert.Equal(t, 1, flushes)
	n, err := testutil.GatherAndCount(reg, "weave_updates_total", "weave_flushes_total", "weave_mounted_instances")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWithHostAndProps(t *testing.T) {
	doc, err := dom.ParseDocument(`<main id="app"></main>`)
	require.NoError(t, err)
	app, err := CreateApp(&Component{Template: `<h1>{{ title }}</h1>`},
		WithHost(doc),
		WithProps(map[string]any{"title": "Hi"}))
	require.NoError(t, err)

	target := doc.GetElementByID("app")
	require.NoError(t, app.Mount(target))
	assert.Equal(t, "<h1>Hi</h1>", dom.InnerHTML(target))
	assert.Equal(t, target, app.Target())
	assert.Same(t, doc, app.Document())

	app.Root().Props.Set("title", "Bye")
	app.Flush()
	assert.Equal(t, "<h1>Bye</h1>", dom.InnerHTML(target))
}

func TestChildAndParentChangesInOneTick(t *testing.T) {
	var own, state *Object
	child := &Component{
		Name:     "Child",
		Template: `<p><span>{{ n }}</span><i>{{ own.v }}</i></p>`,
		Setup: func(_ *Object, ctx *SetupContext) map[string]any {
			own = ctx.System().Object(map[string]any{"v": 0})
			return map[string]any{"own": own}
		},
	}
	parent := &Component{
		Name:       "Parent",
		Template:   `<div><b>{{ s.n }}</b><Child :n="s.n"/></div>`,
		Components: map[string]*Component{"Child": child},
		Setup: func(_ *Object, ctx *SetupContext) map[string]any {
			state = ctx.System().Object(map[string]any{"n": 0})
			return map[string]any{"s": state}
		},
	}
	app, err := CreateApp(parent)
	require.NoError(t, err)
	body := app.Document().Body()
	require.NoError(t, app.Mount(body))

	updates := app.Stats().Updates
	own.Set("v", 1)
	state.Set("n", 5)
	var seen string
	app.NextTick(func() { seen = dom.InnerHTML(body) })
	app.Flush()

	want := `<div><b>5</b><p><span>5</span><i>1</i></p></div>`
	assert.Equal(t, want, seen)
	assert.Equal(t, want, dom.InnerHTML(body))
	assert.Equal(t, 2, app.Stats().Updates-updates, "child renders once")

	// A callback writing parent state after the child already rendered in
	// this flush queues the child again.
	own.Set("v", 2)
	app.NextTick(func() { state.Set("n", 6) })
	app.NextTick(func() { seen = dom.InnerHTML(body) })
	app.Flush()
	assert.Equal(t, `<div><b>6</b><p><span>6</span><i>2</i></p></div>`, seen)
}

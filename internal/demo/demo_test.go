package demo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/pkg/dom"
)

func mountDemo(t *testing.T, n int) (*weave.App, *State) {
	t.Helper()
	def, st := New(n)
	app, err := weave.CreateApp(def)
	require.NoError(t, err)
	require.NoError(t, app.Mount(app.Document().Body()))
	return app, st
}

func labels(app *weave.App) []string {
	var out []string
	for _, li := range app.Document().QueryTag("li") {
		out = append(out, dom.InnerHTML(li.FirstChild))
	}
	return out
}

func TestInitialRender(t *testing.T) {
	app, st := mountDemo(t, 3)

	assert.Equal(t, 3, st.Len())
	assert.Equal(t, []string{label(1), label(2), label(3)}, labels(app))
	assert.Equal(t, "3 rows", dom.InnerHTML(app.Document().GetElementByID("count")))

	rows := app.Document().QueryTag("li")
	assert.Equal(t, "odd", attr(rows[0], "class"))
	assert.Equal(t, "", attr(rows[1], "class"))
	assert.NotNil(t, app.Document().GetElementByID("remove-2"))
}

func TestButtons(t *testing.T) {
	app, st := mountDemo(t, 3)
	doc := app.Document()

	doc.Dispatch(doc.GetElementByID("add"), "click", nil)
	app.Flush()
	assert.Equal(t, 4, st.Len())
	assert.Equal(t, "4 rows", dom.InnerHTML(doc.GetElementByID("count")))

	doc.Dispatch(doc.GetElementByID("reverse"), "click", nil)
	app.Flush()
	assert.Equal(t, []string{label(4), label(3), label(2), label(1)}, labels(app))

	doc.Dispatch(doc.GetElementByID("rotate"), "click", nil)
	app.Flush()
	assert.Equal(t, []string{label(1), label(4), label(3), label(2)}, labels(app))
}

func TestRowRemovesItself(t *testing.T) {
	app, st := mountDemo(t, 3)
	doc := app.Document()

	doc.Dispatch(doc.GetElementByID("remove-2"), "click", nil)
	app.Flush()

	assert.Equal(t, 2, st.Len())
	assert.Equal(t, []string{label(1), label(3)}, labels(app))
	assert.Nil(t, doc.GetElementByID("remove-2"))
	assert.Len(t, app.Root().Children, 2)
}

func TestMovesKeepRowNodes(t *testing.T) {
	app, st := mountDemo(t, 5)
	before := app.Document().QueryTag("li")
	moves := app.Stats().Moves

	st.Swap(1, 3)
	app.Flush()

	after := app.Document().QueryTag("li")
	assert.Same(t, before[1], after[3])
	assert.Same(t, before[3], after[1])
	assert.Same(t, before[0], after[0])
	assert.Equal(t, 2, app.Stats().Moves-moves)

	st.Swap(-1, 9)
	app.Flush()
	assert.Equal(t, after, app.Document().QueryTag("li"))
}

func TestSortAndRelabel(t *testing.T) {
	app, st := mountDemo(t, 12)

	st.Sort()
	app.Flush()
	got := labels(app)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1], got[i])
	}

	suffixed := func() int {
		n := 0
		for _, l := range labels(app) {
			if strings.HasSuffix(l, " !") {
				n++
			}
		}
		return n
	}

	updates := app.Stats().Updates
	st.Relabel(" !")
	app.Flush()
	assert.Equal(t, 2, app.Stats().Updates-updates)
	assert.Equal(t, 2, suffixed())

	st.Relabel(" !")
	app.Flush()
	assert.Equal(t, 0, suffixed())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestIDAt(t *testing.T) {
	app, st := mountDemo(t, 3)
	st.Reverse()
	app.Flush()
	assert.Equal(t, 3, st.IDAt(0))
	st.Remove(st.IDAt(0))
	st.Remove(42)
	app.Flush()
	assert.Equal(t, []string{label(2), label(1)}, labels(app))
}

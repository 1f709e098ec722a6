package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

var _ Host = (*Document)(nil)

func TestInsertAndRemove(t *testing.T) {
	d := NewDocument()
	ul := d.CreateElement("ul")
	d.Insert(d.Body(), ul, nil)

	a, b, c := d.CreateElement("li"), d.CreateElement("li"), d.CreateElement("li")
	for i, n := range []Node{a, b, c} {
		d.Insert(n, d.CreateText(string(rune('a'+i))), nil)
	}
	d.Insert(ul, a, nil)
	d.Insert(ul, c, nil)
	d.Insert(ul, b, c)
	assert.Equal(t, "<ul><li>a</li><li>b</li><li>c</li></ul>", InnerHTML(d.Body()))

	// Inserting an attached node moves it.
	d.Insert(ul, c, a)
	assert.Equal(t, "<li>c</li><li>a</li><li>b</li>", InnerHTML(ul))
	assert.Equal(t, a, d.NextSibling(c))
	assert.Nil(t, d.NextSibling(b))
	assert.Equal(t, ul, d.Parent(a))

	d.Remove(a)
	assert.Equal(t, "<li>c</li><li>b</li>", InnerHTML(ul))
	assert.Nil(t, d.Parent(a))

	// A stale anchor from another parent appends.
	d.Insert(ul, a, d.Body())
	assert.Equal(t, "<li>c</li><li>b</li><li>a</li>", InnerHTML(ul))
}

func TestAttributes(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("input")
	d.SetAttribute(el, "type", "text")
	d.SetAttribute(el, "value", "x")
	d.SetAttribute(el, "type", "email")
	assert.Equal(t, "email", Attr(el, "type"))
	assert.Equal(t, `<input type="email" value="x"/>`, OuterHTML(el))

	d.RemoveAttribute(el, "type")
	d.RemoveAttribute(el, "missing")
	assert.Equal(t, `<input value="x"/>`, OuterHTML(el))
}

func TestTextAndComments(t *testing.T) {
	d := NewDocument()
	p := d.CreateElement("p")
	txt := d.CreateText("a < b")
	d.Insert(p, txt, nil)
	d.Insert(p, d.CreateComment("v-if"), nil)
	assert.Equal(t, "<p>a &lt; b<!--v-if--></p>", OuterHTML(p))

	d.SetText(txt, "done")
	assert.Equal(t, "done", TextContent(p))
}

func TestParseStaticAndClone(t *testing.T) {
	d := NewDocument()
	n, err := d.ParseStatic(`<div class="x"><b>bold</b> text</div>`)
	require.NoError(t, err)
	assert.Equal(t, `<div class="x"><b>bold</b> text</div>`, OuterHTML(n))

	clone := d.Clone(n).(*html.Node)
	assert.NotSame(t, n, clone)
	d.SetAttribute(clone, "class", "y")
	assert.Equal(t, "x", Attr(n, "class"))
	assert.Equal(t, `<div class="y"><b>bold</b> text</div>`, OuterHTML(clone))

	row, err := d.ParseStatic(`<tr><td>1</td></tr>`)
	require.NoError(t, err)
	assert.Equal(t, "tr", row.(*html.Node).Data)

	_, err = d.ParseStatic(`<b>a</b><b>b</b>`)
	assert.Error(t, err)
}

func TestDispatchBubbles(t *testing.T) {
	d := NewDocument()
	outer := d.CreateElement("div")
	inner := d.CreateElement("button")
	d.Insert(d.Body(), outer, nil)
	d.Insert(outer, inner, nil)

	var got []string
	d.SetListener(outer, "click", func(e *Event) {
		got = append(got, "outer")
		assert.Equal(t, inner, e.Target)
	})
	d.SetListener(inner, "click", func(e *Event) {
		got = append(got, "inner:"+e.Data["id"].(string))
	})
	assert.True(t, d.Dispatch(inner, "click", map[string]any{"id": "1"}))
	assert.Equal(t, []string{"inner:1", "outer"}, got)

	got = nil
	d.SetListener(inner, "click", func(e *Event) {
		got = append(got, "inner")
		e.StopPropagation()
	})
	d.Dispatch(inner, "click", nil)
	assert.Equal(t, []string{"inner"}, got)

	assert.False(t, d.Dispatch(inner, "input", nil))
}

func TestListenersClearedOnRemove(t *testing.T) {
	d := NewDocument()
	outer := d.CreateElement("div")
	inner := d.CreateElement("button")
	d.Insert(d.Body(), outer, nil)
	d.Insert(outer, inner, nil)
	d.SetListener(outer, "click", func(*Event) {})
	d.SetListener(inner, "click", func(*Event) {})
	d.SetListener(inner, "input", func(*Event) {})
	assert.Equal(t, 2, d.Listeners())

	d.SetListener(inner, "input", nil)
	assert.Equal(t, 2, d.Listeners())
	d.SetListener(inner, "click", nil)
	assert.Equal(t, 1, d.Listeners())

	d.SetListener(inner, "click", func(*Event) {})
	d.Remove(outer)
	assert.Equal(t, 0, d.Listeners())
}

func TestQueries(t *testing.T) {
	d, err := ParseDocument(`<div id="app"><p>one</p><section><p id="two">two</p></section></div>`)
	require.NoError(t, err)

	assert.Equal(t, "div", d.GetElementByID("app").Data)
	assert.Equal(t, "two", TextContent(d.GetElementByID("two")))
	assert.Nil(t, d.GetElementByID("missing"))
	assert.Len(t, d.QueryTag("p"), 2)
}

// Package demo is the list app used by the serve and bench commands: a
// keyed list of rows, each a child component that emits "remove".
package demo

import (
	"fmt"
	"strings"

	"github.com/vango-dev/weave"
)

const listTemplate = `<div id="demo">
  <header>
    <h1>weave demo</h1>
    <button id="add" @click="add(1)">add</button>
    <button id="sort" @click="sort">sort</button>
    <button id="reverse" @click="reverse">reverse</button>
    <button id="rotate" @click="rotate">rotate</button>
    <span id="count">{{ rows.length }} rows</span>
  </header>
  <ul id="rows">
    <Row v-for="row in rows" :key="row.id" :row="row" @remove="remove(row.id)"/>
  </ul>
</div>`

const rowTemplate = `<li :class="{odd: row.id % 2 == 1}">
  <span class="label">{{ row.label }}</span>
  <button :id="'remove-' + row.id" @click="remove">x</button>
</li>`

// State is a handle to the demo's rows. It is usable once the app is
// created and only from the loop goroutine.
type State struct {
	rows *weave.Array
	next int
}

// Row is the list item component.
var Row = &weave.Component{
	Name:     "Row",
	Template: rowTemplate,
	Setup: func(props *weave.Object, ctx *weave.SetupContext) map[string]any {
		return map[string]any{
			"remove": func() error { return ctx.Emit("remove") },
		}
	},
}

// New returns the root component of a list with n rows and its state.
func New(n int) (*weave.Component, *State) {
	st := &State{}
	root := &weave.Component{
		Name:       "List",
		Template:   listTemplate,
		Components: map[string]*weave.Component{"Row": Row},
		Setup: func(props *weave.Object, ctx *weave.SetupContext) map[string]any {
			st.rows = ctx.System().Array(&[]any{})
			st.Add(n)
			return map[string]any{
				"rows":    st.rows,
				"add":     st.Add,
				"remove":  st.Remove,
				"sort":    st.Sort,
				"reverse": st.Reverse,
				"rotate":  st.Rotate,
			}
		},
	}
	return root, st
}

// Len returns the number of rows without tracking.
func (s *State) Len() int {
	return len(*s.rows.Raw())
}

// IDAt returns the id of the row at i.
func (s *State) IDAt(i int) int {
	return (*s.rows.Raw())[i].(map[string]any)["id"].(int)
}

// Add appends n rows.
func (s *State) Add(n int) {
	items := make([]any, n)
	for i := range items {
		s.next++
		items[i] = map[string]any{"id": s.next, "label": label(s.next)}
	}
	s.rows.Push(items...)
}

// Remove deletes the row with the given id.
func (s *State) Remove(id int) {
	for i, item := range *s.rows.Raw() {
		if item.(map[string]any)["id"] == id {
			s.rows.Splice(i, 1)
			return
		}
	}
}

// Sort orders rows by label.
func (s *State) Sort() {
	s.rows.Sort(func(x, y any) bool {
		return fmt.Sprint(x.(*weave.Object).Get("label")) < fmt.Sprint(y.(*weave.Object).Get("label"))
	})
}

// Reverse reverses the rows.
func (s *State) Reverse() {
	s.rows.Reverse()
}

// Rotate moves the last row to the front.
func (s *State) Rotate() {
	if s.Len() < 2 {
		return
	}
	s.rows.Unshift(s.rows.Pop())
}

// Swap exchanges the rows at i and j.
func (s *State) Swap(i, j int) {
	raw := *s.rows.Raw()
	if i < 0 || j < 0 || i >= len(raw) || j >= len(raw) {
		return
	}
	a, b := raw[i], raw[j]
	s.rows.Splice(i, 1, b)
	s.rows.Splice(j, 1, a)
}

// Relabel toggles suffix on the label of every tenth row.
func (s *State) Relabel(suffix string) {
	for i := 0; i < s.Len(); i += 10 {
		row := s.rows.At(i).(*weave.Object)
		text := fmt.Sprint(row.Peek("label"))
		if trimmed, ok := strings.CutSuffix(text, suffix); ok {
			row.Set("label", trimmed)
		} else {
			row.Set("label", text+suffix)
		}
	}
}

var adjectives = []string{"pretty", "large", "big", "small", "tall", "short", "long", "handsome", "plain", "quaint"}
var nouns = []string{"table", "chair", "house", "bbq", "desk", "car", "pony", "cookie", "sandwich", "burger"}

func label(id int) string {
	return fmt.Sprintf("%s %s %d", adjectives[id%len(adjectives)], nouns[(id/len(adjectives))%len(nouns)], id)
}

package vdom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLIS(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"mixed run", []int{6, 4, 8, 9, 7}, []int{1, 2, 3}},
		{"two runs", []int{8, 9, 7, 4, 10, 11}, []int{0, 1, 4, 5}},
		{"sorted", []int{0, 1, 2, 3}, []int{0, 1, 2, 3}},
		{"reversed", []int{3, 2, 1, 0}, []int{3}},
		{"empty", nil, []int{}},
		{"new nodes skipped", []int{-1, 0, -1, 1}, []int{1, 3}},
		{"rotation", []int{3, 0, 1, 2}, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindLIS(tt.in))
		})
	}
}

type testComp struct{ name string }

func (c *testComp) ComponentName() string { return c.name }

func TestIsSameNode(t *testing.T) {
	static := &Static{Markup: "<p>x</p>", Tag: "p"}
	other := &Static{Markup: "<p>y</p>", Tag: "p"}
	compA, compB := &testComp{"A"}, &testComp{"B"}

	tests := []struct {
		name string
		a, b *VNode
		want bool
	}{
		{"same tag unkeyed", &VNode{Tag: "li"}, &VNode{Tag: "li"}, true},
		{"different tag", &VNode{Tag: "li"}, &VNode{Tag: "p"}, false},
		{"equal keys", &VNode{Tag: "li", Key: 1}, &VNode{Tag: "li", Key: 1}, true},
		{"different keys", &VNode{Tag: "li", Key: 1}, &VNode{Tag: "li", Key: 2}, false},
		{"key on one side", &VNode{Tag: "li", Key: "a"}, &VNode{Tag: "li"}, false},
		{"text nodes", Text("a"), Text("b"), true},
		{"text vs empty", Text("a"), Empty(), false},
		{"same static", &VNode{Kind: KindStatic, Tag: "p", Static: static}, &VNode{Kind: KindStatic, Tag: "p", Static: static}, true},
		{"other static", &VNode{Kind: KindStatic, Tag: "p", Static: static}, &VNode{Kind: KindStatic, Tag: "p", Static: other}, false},
		{"same component", Comp(compA, nil), Comp(compA, nil), true},
		{"other component", Comp(compA, nil), Comp(compB, nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSameNode(tt.a, tt.b))
		})
	}
}

func TestPatchFlagString(t *testing.T) {
	assert.Equal(t, "HOISTED", Hoisted.String())
	assert.Equal(t, "NONE", PatchFlag(0).String())
	assert.Equal(t, "TEXT|EVENT", (FlagText | FlagEvent).String())
	assert.True(t, (FlagText | FlagChildren).Has(FlagChildren))
	assert.False(t, Hoisted.Has(FlagText))
}

func TestH(t *testing.T) {
	node := Li(Key(7), Props{"class": "item", "onclick": func() {}}, "hello", nil)

	assert.Equal(t, 7, node.Key)
	assert.Equal(t, "item", node.Props["class"])
	_, hasKey := node.Props["key"]
	assert.False(t, hasKey)
	require.Len(t, node.Children, 1)
	assert.Equal(t, "hello", node.Children[0].Text)
	assert.True(t, node.PatchFlag.Has(FlagClass|FlagEvent|FlagChildren))
}

func TestClassAndStyleStrings(t *testing.T) {
	assert.Equal(t, "a c", ClassString(map[string]any{"a": true, "b": false, "c": 1}))
	assert.Equal(t, "x y", ClassString([]any{"x", "", "y"}))
	assert.Equal(t, "color: red; font-size: 12;", StyleString(map[string]any{"font-size": 12, "color": "red"}))
	assert.Equal(t, "color: red", StyleString("color: red"))
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy((*int)(nil)))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(3))
	assert.True(t, Truthy(map[string]any{}))
}

func TestPropsEqual(t *testing.T) {
	assert.True(t, PropsEqual("a", "a"))
	assert.False(t, PropsEqual(1, int64(1)))
	assert.True(t, PropsEqual(map[string]any{"a": 1}, map[string]any{"a": 1}))
	f := func() {}
	assert.False(t, PropsEqual(f, f))
}

func TestInvoke(t *testing.T) {
	var got []any
	add := func(n int, label string) { got = append(got, n, label) }

	_, err := Invoke(add, int64(3), "x", "surplus")
	require.NoError(t, err)
	assert.Equal(t, []any{3, "x"}, got)

	out, err := Invoke(func(a, b float64) float64 { return a + b }, 1, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, out)

	out, err = Invoke(func(xs ...int) int { return len(xs) }, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	_, err = Invoke(func() error { return errors.New("nope") })
	assert.EqualError(t, err, "nope")

	_, err = Invoke(42)
	assert.Error(t, err)

	_, err = Invoke(func(s string) {}, 5)
	assert.Error(t, err)
}

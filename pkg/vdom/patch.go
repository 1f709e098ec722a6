package vdom

import "strings"

// PatchFlag marks the categories of dynamic bindings on a compiled node.
// A node is either Hoisted or a non-zero OR of category bits.
type PatchFlag int

const (
	FlagText      PatchFlag = 1 << iota // Interpolated text child
	FlagClass                           // Dynamic class
	FlagStyle                           // Dynamic style
	FlagProps                           // Dynamic props listed in DynamicProps
	FlagEvent                           // Event listeners
	FlagDirective                       // v-if / v-for and friends
	FlagChildren                        // At least one dynamic child
)

// Hoisted marks a fully static node.
const Hoisted PatchFlag = -1

// Has reports whether every bit of want is set. Hoisted has no bits.
func (f PatchFlag) Has(want PatchFlag) bool {
	return f != Hoisted && f&want == want
}

// String returns the flag names joined with "|".
func (f PatchFlag) String() string {
	if f == Hoisted {
		return "HOISTED"
	}
	if f == 0 {
		return "NONE"
	}
	var names []string
	for _, bit := range []struct {
		flag PatchFlag
		name string
	}{
		{FlagText, "TEXT"},
		{FlagClass, "CLASS"},
		{FlagStyle, "STYLE"},
		{FlagProps, "PROPS"},
		{FlagEvent, "EVENT"},
		{FlagDirective, "DIRECTIVE"},
		{FlagChildren, "CHILDREN"},
	} {
		if f&bit.flag != 0 {
			names = append(names, bit.name)
		}
	}
	return strings.Join(names, "|")
}

package renderer

import (
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/telemetry"
	"github.com/vango-dev/weave/pkg/vdom"
)

// positionKey stands in for the key of an unkeyed child.
type positionKey int

func childKey(v *vdom.VNode, i int) any {
	if v.HasKey() {
		return v.Key
	}
	return positionKey(i)
}

// diffChildren reconciles the children of parent. Common prefixes and
// suffixes are patched in place; the middle section is matched by key, and
// only nodes outside the longest increasing subsequence of old positions
// are moved.
func (r *Renderer) diffChildren(parent dom.Node, old, next []*vdom.VNode, owner *Instance) {
	i := 0
	e1, e2 := len(old)-1, len(next)-1

	for i <= e1 && i <= e2 && vdom.IsSameNode(old[i], next[i]) {
		r.patch(old[i], next[i], owner)
		i++
	}
	for i <= e1 && i <= e2 && vdom.IsSameNode(old[e1], next[e2]) {
		r.patch(old[e1], next[e2], owner)
		e1--
		e2--
	}

	anchorAfter := func(idx int) dom.Node {
		if idx+1 < len(next) {
			return next[idx+1].El
		}
		return nil
	}

	switch {
	case i > e1:
		for ; i <= e2; i++ {
			r.mount(next[i], parent, anchorAfter(e2), owner)
		}
		return
	case i > e2:
		for ; i <= e1; i++ {
			r.unmount(old[i], true)
		}
		return
	}

	s := i
	keyToNew := make(map[any]int, e2-s+1)
	for j := s; j <= e2; j++ {
		keyToNew[childKey(next[j], j)] = j
	}

	toPatch := e2 - s + 1
	newToOld := make([]int, toPatch)
	for j := range newToOld {
		newToOld[j] = -1
	}

	patched, maxNew, moved := 0, 0, false
	for j := s; j <= e1; j++ {
		prev := old[j]
		if patched >= toPatch {
			r.unmount(prev, true)
			continue
		}
		ni, ok := keyToNew[childKey(prev, j)]
		if !ok || newToOld[ni-s] >= 0 || !vdom.IsSameNode(prev, next[ni]) {
			r.unmount(prev, true)
			continue
		}
		newToOld[ni-s] = j
		if ni >= maxNew {
			maxNew = ni
		} else {
			moved = true
		}
		r.patch(prev, next[ni], owner)
		patched++
	}

	var seq []int
	if moved {
		seq = vdom.FindLIS(newToOld)
	}
	k := len(seq) - 1
	moves := 0
	for j := toPatch - 1; j >= 0; j-- {
		ni := s + j
		anchor := anchorAfter(ni)
		switch {
		case newToOld[j] < 0:
			r.mount(next[ni], parent, anchor, owner)
		case moved:
			if k >= 0 && seq[k] == j {
				k--
				continue
			}
			r.host.Insert(parent, next[ni].El, anchor)
			moves++
		}
	}
	r.stats.Moves += moves
	r.metrics.RecordOps(telemetry.OpMove, moves)
}

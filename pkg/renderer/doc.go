// Package renderer mounts component trees into a dom.Host and keeps them in
// sync with reactive state.
//
// Each mounted Instance renders inside a reactive effect. The first run
// mounts the tree; later runs are triggered by writes to anything the render
// read and, when a queue is configured, go through it so several writes
// produce one update. Updates diff the new tree against the previous one,
// guided by the patch flags the compiler recorded:
//
//   - identical nodes are skipped, except containers, whose children are
//     re-resolved and diffed
//   - nodes that are not the same (key, kind, tag) are replaced
//   - text, class, style, recorded props and listeners are patched per flag
//   - child lists go through keyed reconciliation, moving only the nodes
//     outside the longest increasing subsequence of old positions
//
// Component props are written into the child instance's observable props,
// so a child re-renders only when a prop it read changed.
package renderer

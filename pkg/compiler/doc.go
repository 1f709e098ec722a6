// Package compiler turns HTML-like templates into render functions.
//
// Compilation runs in three passes. Parse builds an AST from the template
// source and reports malformed input with coded errors carrying the line and
// column. Transform walks the tree bottom-up computing patch flags, then
// hoists maximal static subtrees (deduplicated by markup) and marks static
// elements whose only dynamic part is their children as containers. Generate
// compiles every expression and produces a Program.
//
// A Program is bound once per component instance:
//
//	prog, err := compiler.Compile(`<ul><li v-for="item in items" :key="item.id">{{ item.label }}</li></ul>`)
//	render := prog.Bind(compiler.Env{Context: ctx, Props: props})
//	tree := render()
//
// Expressions use a small JavaScript-like language: member access, indexing,
// calls, arithmetic, comparisons, &&, ||, !, ternaries, list and object
// literals. Identifiers resolve against v-for variables first, then the
// render context (refs are unwrapped), then props.
package compiler

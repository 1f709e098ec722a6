package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/compiler"
)

// nodeReport describes one compiled element.
type nodeReport struct {
	Path   string   `json:"path"`
	Depth  int      `json:"depth"`
	Line   int      `json:"line"`
	Column int      `json:"column"`
	Class  string   `json:"class"`
	Flags  string   `json:"flags"`
	Props  []string `json:"props,omitempty"`
}

// staticReport describes one hoisted subtree.
type staticReport struct {
	Tag   string `json:"tag"`
	Hash  string `json:"hash"`
	Bytes int    `json:"bytes"`
}

// compileReport is what the compile command prints.
type compileReport struct {
	File       string         `json:"file"`
	Bytes      int            `json:"bytes"`
	Nodes      []nodeReport   `json:"nodes"`
	Statics    []staticReport `json:"statics"`
	Containers int            `json:"containers"`
}

func compileCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compile <template>",
		Short: "Compile a template and show its analysis",
		Long: `Compile a template file and print, per element, the hoisting class
and patch flags the compiler assigned.

Examples:
  weave compile list.html
  weave compile list.html --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return errors.New("W140").Wrap(err).WithDetail("Cannot read " + path)
			}

			prog, err := compiler.CompileFile(filepath.Base(path), string(src))
			if err != nil {
				return err
			}
			report := buildReport(path, string(src), prog)
			c.logger.Debug("template compiled",
				"file", path,
				"nodes", len(report.Nodes),
				"statics", len(report.Statics))

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			writeTable(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

// buildReport walks the compiled AST in document order.
func buildReport(file, src string, prog *compiler.Program) compileReport {
	r := compileReport{
		File:       file,
		Bytes:      len(src),
		Nodes:      []nodeReport{},
		Statics:    []staticReport{},
		Containers: len(prog.Compilation.Containers),
	}
	for _, s := range prog.Statics {
		r.Statics = append(r.Statics, staticReport{
			Tag:   s.Tag,
			Hash:  fmt.Sprintf("%016x", s.Hash),
			Bytes: len(s.Markup),
		})
	}

	var walk func(n *compiler.Node, path []string)
	walk = func(n *compiler.Node, path []string) {
		for _, child := range n.Children {
			if child.Type != compiler.NodeElement {
				continue
			}
			p := append(path, child.Tag)
			r.Nodes = append(r.Nodes, nodeReport{
				Path:   strings.Join(p, " > "),
				Depth:  len(path),
				Line:   child.Pos.Line,
				Column: child.Pos.Column,
				Class:  child.Class.String(),
				Flags:  child.PatchFlag.String(),
				Props:  child.DynamicProps,
			})
			// A hoisted subtree is reported as one node.
			if child.Class != compiler.ClassHoisted {
				walk(child, p[:len(p):len(p)])
			}
		}
	}
	walk(prog.Compilation.Root, nil)
	return r
}

func writeJSON(w io.Writer, r compileReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeTable(w io.Writer, r compileReport) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetTitle(fmt.Sprintf("%s (%s)", r.File, humanize.Bytes(uint64(r.Bytes))))
	tbl.AppendHeader(table.Row{"element", "pos", "class", "flags", "props"})
	for _, n := range r.Nodes {
		tbl.AppendRow(table.Row{
			strings.Repeat("  ", n.Depth) + lastSegment(n.Path),
			fmt.Sprintf("%d:%d", n.Line, n.Column),
			n.Class,
			n.Flags,
			strings.Join(n.Props, ","),
		})
	}
	staticBytes := 0
	for _, s := range r.Statics {
		staticBytes += s.Bytes
	}
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d elements", len(r.Nodes)),
		"",
		fmt.Sprintf("%d hoisted", len(r.Statics)),
		fmt.Sprintf("%d containers", r.Containers),
		humanize.Bytes(uint64(staticBytes)) + " static",
	})
	tbl.Render()
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, " > "); i >= 0 {
		return path[i+3:]
	}
	return path
}

package compiler

import (
	"html"
	"regexp"
	"sort"
	"strings"

	werrors "github.com/vango-dev/weave/internal/errors"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Parse builds the AST of a template. The returned node has type NodeRoot.
func Parse(template string) (*Node, error) {
	return ParseFile("", template)
}

// ParseFile is Parse with a file name used in error locations.
func ParseFile(name, template string) (*Node, error) {
	p := &parser{src: template, file: name}
	p.indexLines()
	return p.parse()
}

type parser struct {
	src        string
	file       string
	pos        int
	lineStarts []int
	stack      []*Node
}

func (p *parser) parse() (*Node, error) {
	root := &Node{Type: NodeRoot, Pos: p.position(0)}
	p.stack = []*Node{root}

	for p.pos < len(p.src) {
		var err error
		rest := p.src[p.pos:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			err = p.comment()
		case strings.HasPrefix(rest, "</"):
			err = p.closeTag()
		case p.atStartTag():
			err = p.openTag()
		case strings.HasPrefix(rest, "{{"):
			err = p.interpolation()
		default:
			p.text()
		}
		if err != nil {
			return nil, err
		}
	}

	if len(p.stack) > 1 {
		open := p.stack[len(p.stack)-1]
		return nil, p.errorAt("W002", open.Pos.Offset).
			WithMessage("Unclosed element <%s>", open.Tag).
			WithSuggestion("Add </" + open.Tag + "> or write <" + open.Tag + " />")
	}
	return root, nil
}

func (p *parser) top() *Node {
	return p.stack[len(p.stack)-1]
}

func (p *parser) atStartTag() bool {
	return p.pos+1 < len(p.src) && p.src[p.pos] == '<' && isLetter(p.src[p.pos+1])
}

func (p *parser) comment() error {
	start := p.pos
	end := strings.Index(p.src[p.pos+4:], "-->")
	if end < 0 {
		return p.errorAt("W006", start).WithMessage("Unterminated comment")
	}
	p.pos += 4 + end + 3
	return nil
}

func (p *parser) openTag() error {
	start := p.pos
	p.pos++
	el := &Node{Type: NodeElement, Tag: p.readName(), Pos: p.position(start)}

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return p.errorAt("W006", start).WithMessage("Unterminated start tag <%s>", el.Tag)
		}
		if strings.HasPrefix(p.src[p.pos:], "/>") {
			p.pos += 2
			el.SelfClosing = true
			break
		}
		if p.src[p.pos] == '>' {
			p.pos++
			break
		}
		if err := p.attribute(el); err != nil {
			return err
		}
	}

	p.top().appendChild(el)
	if !el.SelfClosing && !isVoid(el.Tag) {
		p.stack = append(p.stack, el)
	}
	return nil
}

func (p *parser) attribute(el *Node) error {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isSpace(c) || c == '=' || c == '>' || strings.HasPrefix(p.src[p.pos:], "/>") {
			break
		}
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return p.errorAt("W006", start).WithMessage("Unexpected %q in <%s>", p.src[p.pos], el.Tag)
	}

	value, boolean := "", true
	save := p.pos
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '=' {
		p.pos++
		p.skipSpace()
		v, err := p.attrValue(start)
		if err != nil {
			return err
		}
		value, boolean = v, false
	} else {
		p.pos = save
	}

	attr, err := p.classify(name, value, boolean, start)
	if err != nil {
		return err
	}
	attr.Parent = el
	el.Attrs = append(el.Attrs, attr)
	return nil
}

func (p *parser) attrValue(attrStart int) (string, error) {
	if p.pos >= len(p.src) {
		return "", p.errorAt("W006", attrStart).WithMessage("Missing attribute value")
	}
	if q := p.src[p.pos]; q == '"' || q == '\'' {
		end := strings.IndexByte(p.src[p.pos+1:], q)
		if end < 0 {
			return "", p.errorAt("W006", attrStart).WithMessage("Unterminated attribute value")
		}
		v := p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		return v, nil
	}
	start := p.pos
	for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && p.src[p.pos] != '>' {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

// classify turns a raw attribute into an event, directive or attribute node.
func (p *parser) classify(name, value string, boolean bool, offset int) (*Node, error) {
	pos := p.position(offset)
	switch {
	case strings.HasPrefix(name, "@") || strings.HasPrefix(name, "v-on:"):
		event := strings.TrimPrefix(strings.TrimPrefix(name, "@"), "v-on:")
		event, _, _ = strings.Cut(event, ".")
		if event == "" || strings.TrimSpace(value) == "" {
			return nil, p.errorAt("W005", offset).WithMessage("Event %q needs a handler", name)
		}
		return &Node{Type: NodeEvent, Name: "on" + strings.ToLower(event), Value: strings.TrimSpace(value), Pos: pos}, nil

	case strings.HasPrefix(name, ":") || strings.HasPrefix(name, "v-bind:"):
		prop := strings.TrimPrefix(strings.TrimPrefix(name, ":"), "v-bind:")
		if prop == "" || strings.TrimSpace(value) == "" {
			return nil, p.errorAt("W005", offset).WithMessage("Binding %q needs an expression", name)
		}
		return &Node{Type: NodeAttribute, Name: prop, Value: strings.TrimSpace(value), Dynamic: true, Pos: pos}, nil

	case strings.HasPrefix(name, "v-"):
		dir := name[2:]
		if dir != "if" && dir != "for" {
			return nil, p.errorAt("W008", offset).WithMessage("Unknown directive %q", name)
		}
		if strings.TrimSpace(value) == "" {
			return nil, p.errorAt("W005", offset).WithMessage("Directive %q needs an expression", name)
		}
		return &Node{Type: NodeDirective, Name: dir, Value: strings.TrimSpace(value), Pos: pos}, nil
	}
	return &Node{Type: NodeAttribute, Name: name, Value: html.UnescapeString(value), Boolean: boolean, Pos: pos}, nil
}

func (p *parser) closeTag() error {
	start := p.pos
	p.pos += 2
	name := p.readName()
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '>' {
		return p.errorAt("W006", start).WithMessage("Unterminated end tag </%s>", name)
	}
	p.pos++

	if isVoid(name) {
		return nil
	}
	if len(p.stack) == 1 {
		return p.errorAt("W001", start).WithMessage("Unexpected closing tag </%s>", name)
	}
	if open := p.top(); open.Tag != name {
		return p.errorAt("W001", start).
			WithMessage("Closing tag </%s> does not match <%s>", name, open.Tag).
			WithSuggestion("Close <" + open.Tag + "> before </" + name + ">")
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

func (p *parser) interpolation() error {
	start := p.pos
	end := strings.Index(p.src[p.pos+2:], "}}")
	if end < 0 {
		return p.errorAt("W003", start).WithMessage("Unterminated interpolation")
	}
	expr := strings.TrimSpace(p.src[p.pos+2 : p.pos+2+end])
	if expr == "" {
		return p.errorAt("W003", start).WithMessage("Empty interpolation")
	}
	p.pos += 2 + end + 2
	p.top().appendChild(&Node{Type: NodeInterpolation, Value: expr, Pos: p.position(start)})
	return nil
}

func (p *parser) text() {
	start := p.pos
	for p.pos < len(p.src) {
		rest := p.src[p.pos:]
		if strings.HasPrefix(rest, "{{") {
			break
		}
		if rest[0] == '<' && (p.atStartTag() || strings.HasPrefix(rest, "</") || strings.HasPrefix(rest, "<!--")) {
			break
		}
		p.pos++
	}
	raw := p.src[start:p.pos]
	if strings.TrimSpace(raw) == "" && (strings.ContainsAny(raw, "\r\n") || p.top().Type == NodeRoot) {
		return
	}
	text := whitespaceRun.ReplaceAllString(html.UnescapeString(raw), " ")
	p.top().appendChild(&Node{Type: NodeText, Value: text, Pos: p.position(start)})
}

func (p *parser) readName() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if !isLetter(c) && !isDigit(c) && c != '-' && c != '_' && c != '.' && c != ':' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) indexLines() {
	p.lineStarts = []int{0}
	for i := 0; i < len(p.src); i++ {
		if p.src[i] == '\n' {
			p.lineStarts = append(p.lineStarts, i+1)
		}
	}
}

func (p *parser) position(offset int) Position {
	line := sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > offset })
	return Position{Offset: offset, Line: line, Column: offset - p.lineStarts[line-1] + 1}
}

func (p *parser) errorAt(code string, offset int) *werrors.Error {
	pos := p.position(offset)
	return werrors.New(code).WithSource(p.file, p.src, pos.Line, pos.Column)
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }

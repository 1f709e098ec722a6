package compiler

// Compile parses, analyses and generates a template.
func Compile(template string) (*Program, error) {
	return CompileFile("", template)
}

// CompileFile is Compile with a file name used in error locations.
func CompileFile(name, template string) (*Program, error) {
	root, err := ParseFile(name, template)
	if err != nil {
		return nil, err
	}
	return Generate(name, template, Transform(root))
}

// MustCompile is like Compile but panics if the template is invalid.
func MustCompile(template string) *Program {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

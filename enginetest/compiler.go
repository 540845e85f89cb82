package enginetest

import (
	"fmt"
	"strings"

	"github.com/elm-tooling/elm-details/engine"
)

// ModuleAST is a minimal stand-in for the real parser's AST: a module
// name and its imports, recovered from a tiny textual convention (first
// line "module <Name> exposing (..)", one "import <Name>" per line after),
// since real source parsing is out of scope (spec §6).
type ModuleAST struct {
	Name engine.ModuleNameRaw
	Imps []engine.ModuleNameRaw
}

func (m *ModuleAST) DeclaredName() engine.ModuleNameRaw { return m.Name }
func (m *ModuleAST) Imports() []engine.ModuleNameRaw    { return m.Imps }

// Parser implements engine.ModuleParser over the same tiny convention.
type Parser struct{}

func (Parser) Parse(pkg engine.PkgName, src []byte) (engine.ModuleAST, error) {
	lines := strings.Split(string(src), "\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf("enginetest: empty source")
	}
	fields := strings.Fields(lines[0])
	if len(fields) < 2 || fields[0] != "module" {
		return nil, fmt.Errorf("enginetest: first line must be %q, got %q", "module <Name> exposing (..)", lines[0])
	}
	ast := &ModuleAST{Name: engine.ModuleNameRaw(fields[1])}
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "import" {
			ast.Imps = append(ast.Imps, engine.ModuleNameRaw(fields[1]))
		}
	}
	return ast, nil
}

// Graph is a minimal engine.GlobalGraph: the set of module names merged
// into it so far, regardless of whether they arrived as a LocalObjectGraph
// (a single module) or another package's whole GlobalGraph.
type Graph struct {
	Modules map[string]bool
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{Modules: map[string]bool{}}
}

func (g *Graph) Merge(obj engine.LocalObjectGraph) {
	switch v := obj.(type) {
	case *Graph:
		for m := range v.Modules {
			g.Modules[m] = true
		}
	case string:
		g.Modules[v] = true
	case nil:
	default:
		g.Modules[fmt.Sprintf("%v", v)] = true
	}
}

// Compiler implements engine.Compiler by echoing back a deterministic
// Interface derived from the module's own name and its imports' Interfaces,
// so tests can assert on build order and namespace resolution without a
// real type checker.
type Compiler struct{}

func (Compiler) NewGraph() engine.GlobalGraph { return NewGraph() }

func (Compiler) Compile(pkg engine.PkgName, imported map[engine.ModuleNameRaw]engine.Interface, mod engine.ModuleAST, wantDocs bool) (engine.CompileResult, error) {
	ast, ok := mod.(*ModuleAST)
	if !ok {
		return engine.CompileResult{}, fmt.Errorf("enginetest: unexpected ModuleAST type %T", mod)
	}
	iface := engine.Interface{
		Values: map[string]string{"value": string(ast.Name)},
	}
	var docs interface{}
	if wantDocs {
		docs = fmt.Sprintf("docs for %s in %s", ast.Name, pkg)
	}
	return engine.CompileResult{Interface: iface, Objects: string(ast.Name), Docs: docs}, nil
}

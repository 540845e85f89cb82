package engine

import (
	"context"
	"io"
)

// ModuleAST is the opaque parse result handed back by the external parser.
// The engine never looks inside it except to pass it to Compiler.
type ModuleAST interface {
	// DeclaredName is the module name the source itself declares, used to
	// verify it matches the name the engine crawled it under (spec §4.F.2).
	DeclaredName() ModuleNameRaw
	// Imports lists the raw module names this module imports.
	Imports() []ModuleNameRaw
}

// ModuleParser is the out-of-scope source-parsing collaborator
// (spec §6: `parseModule(pkg, bytes) -> ModuleAST | Err`).
type ModuleParser interface {
	Parse(pkg PkgName, src []byte) (ModuleAST, error)
}

// Interface is a module's compiled, exported API.
type Interface struct {
	Values   map[string]string // exported value name -> canonical type
	Types    map[string]string // exported type name -> canonical definition
	Aliases  map[string]string
	Infixes  map[string]string // operator -> canonical type
}

// LocalObjectGraph is one module's contribution to a package's object graph;
// opaque to everything except the external compiler and the final linker.
type LocalObjectGraph interface{}

// GlobalGraph is the union of every module's LocalObjectGraph in a package.
type GlobalGraph interface {
	Merge(LocalObjectGraph)
}

// CompileResult is what the external compiler hands back for a Local module.
type CompileResult struct {
	Interface Interface
	Objects   LocalObjectGraph
	Docs      interface{} // non-nil only when docs were requested
}

// Compiler is the out-of-scope module compiler collaborator (spec §6).
type Compiler interface {
	Compile(pkg PkgName, imported map[ModuleNameRaw]Interface, mod ModuleAST, wantDocs bool) (CompileResult, error)
	// NewGraph returns an empty GlobalGraph ready to Merge modules into;
	// object graphs are otherwise opaque to everything but the compiler.
	NewGraph() GlobalGraph
}

// EndpointInfo is the registry's per-(pkg,version) download descriptor.
type EndpointInfo struct {
	URL  string
	Hash string // hex-encoded sha256 of the archive
}

// Fetcher is the out-of-scope HTTP transport collaborator (spec §6:
// `httpGet`, `httpGetArchive`).
type Fetcher interface {
	// GetJSON fetches url and decodes it into out.
	GetJSON(ctx context.Context, url string, out interface{}) error
	// GetArchive streams the archive at url into w, returning its
	// hex-encoded sha256 once fully read.
	GetArchive(ctx context.Context, url string, w io.Writer) (sha256Hex string, err error)
}

// FileSystem is the small abstract filesystem collaborator (spec §6).
type FileSystem interface {
	ReadUTF8(path string) (string, error)
	ReadBinary(path string) ([]byte, error)
	WriteBinary(path string, data []byte) error
	Exists(path string) (bool, error)
	ModTime(path string) (Time, error)
	Remove(path string) error
	MkdirAll(path string) error
	List(path string) ([]string, error)
	DirExists(path string) (bool, error)
}

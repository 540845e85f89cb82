package build

import (
	"golang.org/x/sync/errgroup"

	"github.com/elm-tooling/elm-details/engine"
)

// compiler drives stage 3 of the build (spec §4.F.3): every crawled
// module is compiled once its own imports have compiled, each task
// launched concurrently and suspending only on its own Cells.
type compiler struct {
	pkg      engine.PkgName
	external engine.Compiler
	reg      *registry
	wantDocs bool
}

// compileAll launches one compile task per module currently known to reg
// and waits for them all.
func (c *compiler) compileAll(names []engine.ModuleNameRaw) error {
	g := new(errgroup.Group)
	for _, name := range names {
		name := name
		g.Go(func() error {
			return c.compileOne(name)
		})
	}
	return g.Wait()
}

func (c *compiler) compileOne(name engine.ModuleNameRaw) error {
	// compileAll only ever runs over names crawl() has already registered,
	// so claim here just looks the entry up; it never creates one.
	st, _ := c.reg.claim(name)

	broken := st.broken.Wait()
	if broken {
		st.compile.Fill(result{kind: rBroken, err: errBrokenModule(name)})
		return nil
	}

	cr := st.crawl.Wait()
	switch cr.kind {
	case sForeign:
		st.compile.Fill(result{kind: rForeign, iface: cr.iface})
		return nil
	case sKernelForeign:
		st.compile.Fill(result{kind: rKernelForeign})
		return nil
	case sKernelLocal:
		st.compile.Fill(result{kind: rKernelLocal, objs: cr.chunks})
		return nil
	case sNone:
		st.compile.Fill(result{kind: rBroken, err: errBrokenModule(name)})
		return nil
	}

	imported := make(map[engine.ModuleNameRaw]engine.Interface, len(cr.imports))
	for _, imp := range cr.imports {
		impSt, owner := c.reg.claim(imp)
		if owner {
			// An import that nothing crawled (shouldn't happen if crawl
			// ran to completion, but guards against a partial graph);
			// treat as broken rather than hang forever.
			impSt.broken.Fill(true)
			impSt.crawl.Fill(crawled{kind: sNone})
		}
		if impSt.broken.Wait() {
			st.compile.Fill(result{kind: rBroken, err: errBrokenModule(name)})
			return nil
		}
		impRes := impSt.compile.Wait()
		if impRes.kind == rBroken {
			st.compile.Fill(result{kind: rBroken, err: errBrokenModule(name)})
			return nil
		}
		imported[imp] = impRes.iface
	}

	ast := cr.ast
	out, err := c.external.Compile(c.pkg, imported, ast, c.wantDocs)
	if err != nil {
		st.compile.Fill(result{kind: rBroken, err: err})
		return nil
	}
	st.compile.Fill(result{kind: rLocal, iface: out.Interface, objs: out.Objects, docs: out.Docs})
	return nil
}

type brokenModuleError struct {
	name engine.ModuleNameRaw
}

func (e *brokenModuleError) Error() string {
	return "module " + string(e.name) + " is broken"
}

func errBrokenModule(name engine.ModuleNameRaw) error {
	return &brokenModuleError{name: name}
}

type brokenPackageError struct {
	pkg engine.PkgName
}

func (e *brokenPackageError) Error() string {
	return "package " + e.pkg.String() + " has a broken module"
}

func errBrokenPackage(pkg engine.PkgName) error {
	return &brokenPackageError{pkg: pkg}
}

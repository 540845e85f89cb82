package build

import (
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/elm-tooling/elm-details/engine"
)

// crawler walks the module-import graph of one package (spec §4.F.2),
// starting from its exposed modules, concurrently.
type crawler struct {
	pkg      engine.PkgName
	srcDir   string
	isKernel bool
	fs       engine.FileSystem
	parser   engine.ModuleParser
	foreign  map[engine.ModuleNameRaw]*foreignEntry
	reg      *registry
}

// crawlExposed launches a concurrent crawl of every exposed module and
// waits for them all, returning the first hard (non-module) error, if any
// (spec §4.F.2: "Crawl exposed modules concurrently").
func (c *crawler) crawlExposed(exposed []engine.ModuleNameRaw) error {
	g := new(errgroup.Group)
	for _, name := range exposed {
		name := name
		g.Go(func() error {
			return c.crawl(name, nil)
		})
	}
	return g.Wait()
}

// crawl resolves name's Status, recursing into its imports. path is the
// chain of module names currently being crawled by this goroutine's own
// call stack, used to detect import cycles. A back-edge (name already in
// path_) means name's own owning crawl call is still blocked waiting on
// this very call to return, so name is marked broken right here instead
// of being left to resolve normally — otherwise it stays sLocal and the
// compile stage deadlocks two Cells waiting on each other (spec §9).
func (c *crawler) crawl(name engine.ModuleNameRaw, path_ []engine.ModuleNameRaw) error {
	for _, seen := range path_ {
		if seen == name {
			st, _ := c.reg.claim(name)
			c.reg.markBroken(st)
			return nil
		}
	}

	st, owner := c.reg.claim(name)
	if !owner {
		// Someone else is already crawling (or has crawled) this name;
		// nothing further for this call to do.
		return nil
	}

	fe, isForeign := c.foreign[name]
	if isForeign && fe.specific == false {
		// Exposed-but-ambiguous is itself a build error (spec §4.F.2).
		c.reg.markBroken(st)
		return nil
	}

	srcPath := path.Join(c.srcDir, strings.ReplaceAll(string(name), ".", "/")+".elm")
	exists, err := c.fs.Exists(srcPath)
	if err != nil {
		return err
	}

	if isForeign && fe.specific && !exists {
		st.broken.Fill(false)
		st.crawl.Fill(crawled{kind: sForeign, iface: fe.iface})
		return nil
	}

	if !exists && c.isKernel && isKernelName(name) {
		return c.crawlKernel(name, st)
	}

	if !exists {
		c.reg.markBroken(st)
		return nil
	}

	raw, err := c.fs.ReadUTF8(srcPath)
	if err != nil {
		return err
	}
	ast, err := c.parser.Parse(c.pkg, []byte(raw))
	if err != nil {
		c.reg.markBroken(st)
		return nil
	}
	if ast.DeclaredName() != name {
		c.reg.markBroken(st)
		return nil
	}

	// name's own outcome is only known once every descendant has been
	// crawled (a back-edge targeting name can still arrive while we wait
	// below), so it isn't resolved until after g.Wait() returns.
	imports := ast.Imports()
	nextPath := append(append([]engine.ModuleNameRaw{}, path_...), name)
	g := new(errgroup.Group)
	for _, imp := range imports {
		imp := imp
		g.Go(func() error {
			return c.crawl(imp, nextPath)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.reg.markResolved(st, crawled{kind: sLocal, ast: ast, src: []byte(raw), imports: imports})
	return nil
}

// crawlKernel handles a kernel package's <module>.js fallback when no
// .elm source exists (spec §4.F.2 "Special case kernel modules").
func (c *crawler) crawlKernel(name engine.ModuleNameRaw, st *moduleState) error {
	jsPath := path.Join(c.srcDir, strings.ReplaceAll(string(name), ".", "/")+".js")
	exists, err := c.fs.Exists(jsPath)
	if err != nil {
		return err
	}
	if !exists {
		st.broken.Fill(false)
		st.crawl.Fill(crawled{kind: sKernelForeign})
		return nil
	}
	raw, err := c.fs.ReadUTF8(jsPath)
	if err != nil {
		return err
	}
	chunks, imports := extractKernelChunks(raw)
	st.broken.Fill(false)
	st.crawl.Fill(crawled{kind: sKernelLocal, chunks: chunks, imports: imports})
	return nil
}

// isKernelName reports whether name follows the kernel-module convention
// (a local-only namespace prefix reserved for runtime-authored modules).
func isKernelName(name engine.ModuleNameRaw) bool {
	return strings.HasPrefix(string(name), "Elm.Kernel.")
}

// extractKernelChunks is a stand-in for the kernel `.js` chunk/import
// extraction the real compiler performs: it returns the whole source as
// one opaque chunk and no imports, so a kernel module's own imports are
// not crawled.
func extractKernelChunks(src string) (chunks interface{}, imports []engine.ModuleNameRaw) {
	return src, nil
}

package build

import (
	"sync"

	"github.com/elm-tooling/elm-details/engine"
	"github.com/elm-tooling/elm-details/internal/cell"
)

// crawledKind tags the outcome of crawling one module (spec "State machine
// of a single module during build").
type crawledKind int

const (
	sLocal crawledKind = iota
	sForeign
	sKernelLocal
	sKernelForeign
	sNone // ambiguous foreign, or broken: using it is an error
)

type crawled struct {
	kind    crawledKind
	ast     engine.ModuleAST       // sLocal only
	src     []byte                 // sLocal only, for Compile
	iface   engine.Interface       // sForeign only
	chunks  interface{}            // sKernelLocal only, opaque kernel chunks
	imports []engine.ModuleNameRaw // sLocal/sKernelLocal only
}

// resultKind tags the outcome of compiling one module.
type resultKind int

const (
	rLocal resultKind = iota
	rForeign
	rKernelLocal
	rKernelForeign
	rBroken
)

type result struct {
	kind  resultKind
	iface engine.Interface      // rLocal/rForeign
	objs  engine.LocalObjectGraph // rLocal/rKernelLocal
	docs  interface{}
	err   error // rBroken only
}

// moduleState is the per-module entry in the shared status/result dicts
// (spec §5 "per-package dep dict"): one Cell for the crawl outcome, one
// for the compile outcome, each written exactly once.
type moduleState struct {
	crawl    *cell.Cell[crawled]
	broken   *cell.Cell[bool] // filled true iff crawl failed
	compile  *cell.Cell[result]
	resolved bool // guarded by registry.mu; true once crawl/broken have been filled
}

func newModuleState() *moduleState {
	return &moduleState{
		crawl:   cell.New[crawled](),
		broken:  cell.New[bool](),
		compile: cell.New[result](),
	}
}

// registry is the shared, mutex-guarded map keyed by raw module name that
// every crawl/compile task reads and writes through (spec §5).
type registry struct {
	mu   sync.Mutex
	byName map[engine.ModuleNameRaw]*moduleState
}

func newRegistry() *registry {
	return &registry{byName: make(map[engine.ModuleNameRaw]*moduleState)}
}

// claim returns the moduleState for name, creating it (Unseen -> Crawling)
// if this is the first task to reference it; the bool reports whether
// this call was the one that created it (i.e. this task owns the crawl).
func (r *registry) claim(name engine.ModuleNameRaw) (*moduleState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.byName[name]; ok {
		return st, false
	}
	st := newModuleState()
	r.byName[name] = st
	return st, true
}

// markBroken resolves st as broken, unless it has already been resolved.
// An import-cycle back-edge and the cycle member's own owning crawl race
// to resolve the same moduleState (spec §9's cycle handling can only
// detect the cycle from inside the back-edge, after the owning crawl has
// already started waiting on its descendants), and a Cell panics on a
// second Fill, so the decision of which side actually wins is made once,
// under r.mu, here.
func (r *registry) markBroken(st *moduleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.resolved {
		return
	}
	st.resolved = true
	st.broken.Fill(true)
	st.crawl.Fill(crawled{kind: sNone})
}

// markResolved fills st with cr's successful crawl outcome, unless a
// concurrent back-edge already marked it broken while this call was still
// waiting on its own imports (see markBroken).
func (r *registry) markResolved(st *moduleState, cr crawled) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.resolved {
		return
	}
	st.resolved = true
	st.broken.Fill(false)
	st.crawl.Fill(cr)
}

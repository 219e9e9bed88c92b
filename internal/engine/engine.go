// Package engine owns the current Process and rebuilds it when fragments
// change.
package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/fwconfig/internal/assembler"
	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
	"github.com/gyaneshwarpardhi/fwconfig/internal/eventcontent"
	"github.com/gyaneshwarpardhi/fwconfig/internal/metrics"
	"github.com/gyaneshwarpardhi/fwconfig/internal/registry"
)

// Options configure how fragments are assembled.
type Options struct {
	Registry *registry.Registry
	Strict   bool
	// Base fragments are placed before every loaded bundle.
	Base []*config.Fragment
}

// Engine publishes the most recent successfully assembled Process.
type Engine struct {
	process atomic.Pointer[assembler.Process]
	opts    Options

	mu   sync.Mutex // serializes rebuilds
	last struct {
		bundle  *config.Bundle
		process *assembler.Process
		err     error
	}
}

// New creates an Engine with no process. Call Rebuild to publish one.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Process returns the current process, or nil before the first successful
// Rebuild.
func (e *Engine) Process() *assembler.Process {
	return e.process.Load()
}

// Ready reports whether a process has been published.
func (e *Engine) Ready() bool { return e.process.Load() != nil }

// Rebuild validates and assembles b on top of the base fragments and swaps
// the result in. On failure the previous process stays current. Rebuilding
// the bundle of the previous call returns that call's result.
func (e *Engine) Rebuild(b *config.Bundle) (*assembler.Process, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b == e.last.bundle {
		return e.last.process, e.last.err
	}
	p, err := e.rebuild(b)
	e.last.bundle, e.last.process, e.last.err = b, p, err
	return p, err
}

func (e *Engine) rebuild(b *config.Bundle) (*assembler.Process, error) {
	start := time.Now()
	full := &config.Bundle{Fragments: append(slices.Clone(e.opts.Base), b.Fragments...)}

	p, err := e.assemble(full)
	metrics.AssemblyDuration.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.AssembliesTotal.WithLabelValues("error").Inc()
		slog.Error("process assembly failed, keeping previous process", "fragments", len(full.Fragments), "err", err)
		return nil, err
	}
	metrics.AssembliesTotal.WithLabelValues("success").Inc()

	e.process.Store(p)
	metrics.LastAssemblySuccess.SetToCurrentTime()
	metrics.ProcessFragments.Set(float64(len(full.Fragments)))
	metrics.ProcessDeclarations.WithLabelValues("pset").Set(float64(len(p.PSetNames())))
	metrics.ProcessDeclarations.WithLabelValues("module").Set(float64(len(p.Modules())))
	metrics.ProcessDeclarations.WithLabelValues("sequence").Set(float64(len(p.SequenceNames())))
	metrics.ProcessDeclarations.WithLabelValues("event_content").Set(float64(len(p.EventContentNames())))

	for _, w := range p.Warnings() {
		slog.Warn("module type not registered", "process", p.ID(), "detail", w)
	}
	slog.Info("process assembled",
		"process", p.ID(),
		"fragments", len(full.Fragments),
		"modules", len(p.Modules()),
		"sequences", len(p.SequenceNames()),
		"duration", time.Since(start),
	)
	return p, nil
}

func (e *Engine) assemble(b *config.Bundle) (*assembler.Process, error) {
	if err := config.Validate(b); err != nil {
		return nil, err
	}
	return assembler.Build(b, assembler.Options{Registry: e.opts.Registry, Strict: e.opts.Strict})
}

// Select runs branches through the named event content of the current
// process.
func (e *Engine) Select(name string, branches []string) (eventcontent.Selection, error) {
	p := e.Process()
	if p == nil {
		return eventcontent.Selection{}, fmt.Errorf("no process assembled yet")
	}
	set, ok := p.EventContent(name)
	if !ok {
		return eventcontent.Selection{}, cfgerr.New(cfgerr.ErrNotFound, name, "no event content %q", name)
	}
	sel, err := set.Select(branches)
	if err != nil {
		return eventcontent.Selection{}, err
	}
	metrics.BranchesSelected.WithLabelValues(name, "kept").Add(float64(len(sel.Kept)))
	metrics.BranchesSelected.WithLabelValues(name, "dropped").Add(float64(len(sel.Dropped)))
	return sel, nil
}

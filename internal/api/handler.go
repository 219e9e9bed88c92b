package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/fwconfig/internal/assembler"
	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
	"github.com/gyaneshwarpardhi/fwconfig/internal/engine"
	"github.com/gyaneshwarpardhi/fwconfig/internal/histo"
)

const (
	maxSelectBranches = 10000
	maxSelectBody     = 1 << 20
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes. loader may be nil,
// in which case reloading is not offered.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/process", h.withProcess(h.getProcess))
	h.mux.HandleFunc("GET /v1/process/dump", h.withProcess(h.dumpProcess))
	h.mux.HandleFunc("GET /v1/modules", h.withProcess(h.listModules))
	h.mux.HandleFunc("GET /v1/modules/{label}", h.withProcess(h.getModule))
	h.mux.HandleFunc("GET /v1/modules/{label}/histograms", h.withProcess(h.getHistograms))
	h.mux.HandleFunc("GET /v1/psets/{name}", h.withProcess(h.getPSet))
	h.mux.HandleFunc("GET /v1/sequences/{name}", h.withProcess(h.getSequence))
	h.mux.HandleFunc("GET /v1/event-content/{name}", h.withProcess(h.getEventContent))
	h.mux.HandleFunc("POST /v1/event-content/{name}/select", h.selectBranches)
	h.mux.HandleFunc("POST /v1/reload", h.reload)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

type processHandler func(w http.ResponseWriter, r *http.Request, p *assembler.Process)

// withProcess answers 503 until a process has been assembled.
func (h *Handler) withProcess(fn processHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := h.eng.Process()
		if p == nil {
			writeError(w, http.StatusServiceUnavailable, "no process assembled yet")
			return
		}
		fn(w, r, p)
	}
}

// GET /v1/process: summary of the current process.
func (h *Handler) getProcess(w http.ResponseWriter, r *http.Request, p *assembler.Process) {
	writeJSON(w, http.StatusOK, processResponse{
		ID:           p.ID(),
		Sources:      p.Sources(),
		Warnings:     p.Warnings(),
		PSets:        p.PSetNames(),
		Modules:      moduleSummaries(p),
		Sequences:    p.SequenceNames(),
		EventContent: p.EventContentNames(),
	})
}

// GET /v1/process/dump: the process as one YAML fragment.
func (h *Handler) dumpProcess(w http.ResponseWriter, r *http.Request, p *assembler.Process) {
	data, err := yaml.Marshal(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /v1/modules
func (h *Handler) listModules(w http.ResponseWriter, r *http.Request, p *assembler.Process) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"process": p.ID(),
		"modules": moduleSummaries(p),
	})
}

// GET /v1/modules/{label}
func (h *Handler) getModule(w http.ResponseWriter, r *http.Request, p *assembler.Process) {
	label := r.PathValue("label")
	m, ok := p.Module(label)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no module %q", label))
		return
	}
	writeJSON(w, http.StatusOK, moduleResponse{
		moduleSummary: summary(m),
		Params:        m.Params(),
	})
}

// GET /v1/modules/{label}/histograms: histogram descriptors among the
// module's parameters.
func (h *Handler) getHistograms(w http.ResponseWriter, r *http.Request, p *assembler.Process) {
	label := r.PathValue("label")
	m, ok := p.Module(label)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no module %q", label))
		return
	}
	named := histo.Collect(m.Params())
	if named == nil {
		named = []histo.Named{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"module":     label,
		"histograms": named,
	})
}

// GET /v1/psets/{name}
func (h *Handler) getPSet(w http.ResponseWriter, r *http.Request, p *assembler.Process) {
	name := r.PathValue("name")
	ps, ok := p.PSet(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no pset %q", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "params": ps})
}

// GET /v1/sequences/{name}
func (h *Handler) getSequence(w http.ResponseWriter, r *http.Request, p *assembler.Process) {
	name := r.PathValue("name")
	s, ok := p.Sequence(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no sequence %q", name))
		return
	}
	steps := s.Steps()
	writeJSON(w, http.StatusOK, sequenceResponse{
		Name:  name,
		Expr:  assembler.FormatSteps(steps),
		Steps: steps,
	})
}

// GET /v1/event-content/{name}
func (h *Handler) getEventContent(w http.ResponseWriter, r *http.Request, p *assembler.Process) {
	name := r.PathValue("name")
	set, ok := p.EventContent(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no event content %q", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     name,
		"commands": set.Strings(),
	})
}

// POST /v1/event-content/{name}/select: which branches the set keeps.
func (h *Handler) selectBranches(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	body := http.MaxBytesReader(w, r.Body, maxSelectBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(req.Branches) > maxSelectBranches {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%d branches exceeds max %d", len(req.Branches), maxSelectBranches))
		return
	}
	if !h.eng.Ready() {
		writeError(w, http.StatusServiceUnavailable, "no process assembled yet")
		return
	}
	sel, err := h.eng.Select(r.PathValue("name"), req.Branches)
	switch {
	case errors.Is(err, cfgerr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// POST /v1/reload: re-read fragments from disk and reassemble.
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotImplemented, "server was started without fragment files")
		return
	}
	b, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	p, err := h.eng.Rebuild(b)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":  true,
		"process":   p.ID(),
		"fragments": len(p.Sources()),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 until a process has been assembled.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	p := h.eng.Process()
	if p == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "no process"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"process": p.ID(),
	})
}
